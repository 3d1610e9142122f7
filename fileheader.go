// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"bytes"
	"encoding/binary"
)

// Compiled rules file layout constants.
const (
	// fileHeaderSize is the size of the outer file header: the magic,
	// a 32-bit image size and a version byte.
	fileHeaderSize = 9
)

// yaraMagic identifies a compiled rules file.
var yaraMagic = []byte("YARA")

// FileHeader represents the outer header of a compiled rules file. The
// image and the relocation stream follow it immediately.
type FileHeader struct {
	// Magic bytes, always "YARA".
	Magic [4]byte `json:"magic"`

	// Size of the image, in bytes, not counting this header nor the
	// relocation stream appended after the image.
	Size uint32 `json:"size"`

	// Version of the rules format. Versions 11 and 12 are decoded
	// identically.
	Version uint8 `json:"version"`
}

// ParseFileHeader validates the magic and the declared version, and carves
// the image region out of the raw buffer.
func (yr *File) ParseFileHeader() error {
	if len(yr.data) < fileHeaderSize {
		return ErrBadMagic
	}

	if !bytes.Equal(yr.data[:4], yaraMagic) {
		return ErrBadMagic
	}

	copy(yr.FileHeader.Magic[:], yr.data[:4])
	yr.FileHeader.Size = binary.LittleEndian.Uint32(yr.data[4:8])
	yr.FileHeader.Version = yr.data[8]

	if _, ok := versionParsers[yr.FileHeader.Version]; !ok {
		return ErrUnsupportedVersion
	}

	if fileHeaderSize+uint64(yr.FileHeader.Size) > uint64(len(yr.data)) {
		return ErrTruncatedImage
	}

	yr.size = yr.FileHeader.Size
	yr.img = yr.data[fileHeaderSize : fileHeaderSize+int(yr.size)]
	return nil
}
