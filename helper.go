// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	// Undefined is the 64-bit sentinel the compiler uses for values and
	// pointers that have no resolved address.
	Undefined uint64 = 0xFFFABADAFABADAFF

	// undefinedPointer is how the upper word of Undefined lands on a
	// little-endian 32-bit read of a 64-bit slot.
	undefinedPointer uint32 = 0xFFFABADA

	// relocTerminator ends the relocation stream.
	relocTerminator uint32 = 0xFFFFFFFF

	// MaxStringLength is the largest length a string descriptor may declare.
	MaxStringLength = 0xFFFFFF
)

// Errors
var (
	// ErrBadMagic is returned when the file does not start with the
	// expected magic bytes.
	ErrBadMagic = errors.New("bad header")

	// ErrUnsupportedVersion is returned when the header declares a rules
	// format version this package cannot decode.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrTruncatedImage is returned when the header declares more image
	// bytes than the file actually carries.
	ErrTruncatedImage = errors.New("truncated image")

	// ErrBadRelocs is returned when the relocation stream is truncated or
	// contains an entry pointing outside the image.
	ErrBadRelocs = errors.New("bad relocs")

	// ErrBadOpcode is returned when the code walker reaches a byte that is
	// not a known opcode.
	ErrBadOpcode = errors.New("bad opcode")

	// ErrOutsideBoundary is returned when attempting to read an address
	// beyond the image limits.
	ErrOutsideBoundary = errors.New("reading data outside boundary")

	// ErrInstructionBeforeRule is returned when the instruction stream
	// carries an instruction before the first rule initialization.
	ErrInstructionBeforeRule = errors.New("instruction before rule")

	// ErrStringEncoding is returned when a NUL-terminated string field
	// holds invalid UTF-8.
	ErrStringEncoding = errors.New("invalid string encoding")

	// ErrStringTooLong is returned when a string descriptor declares a
	// length above MaxStringLength.
	ErrStringTooLong = errors.New("string length too large")

	// ErrBadMetaType is returned when a metadata entry carries an unknown
	// type tag.
	ErrBadMetaType = errors.New("bad metadata type")
)

// ReadUint64 reads a uint64 from the image.
func (yr *File) ReadUint64(offset uint64) (uint64, error) {
	if offset > uint64(yr.size) || offset+8 > uint64(yr.size) {
		return 0, ErrOutsideBoundary
	}

	return binary.LittleEndian.Uint64(yr.img[offset:]), nil
}

// ReadUint32 reads a uint32 from the image.
func (yr *File) ReadUint32(offset uint64) (uint32, error) {
	if offset > uint64(yr.size) || offset+4 > uint64(yr.size) {
		return 0, ErrOutsideBoundary
	}

	return binary.LittleEndian.Uint32(yr.img[offset:]), nil
}

// ReadUint16 reads a uint16 from the image.
func (yr *File) ReadUint16(offset uint64) (uint16, error) {
	if offset > uint64(yr.size) || offset+2 > uint64(yr.size) {
		return 0, ErrOutsideBoundary
	}

	return binary.LittleEndian.Uint16(yr.img[offset:]), nil
}

// ReadUint8 reads a uint8 from the image.
func (yr *File) ReadUint8(offset uint64) (uint8, error) {
	if offset+1 > uint64(yr.size) {
		return 0, ErrOutsideBoundary
	}

	return yr.img[offset], nil
}

// ReadBytesAtOffset returns a copy of size image bytes starting at offset.
func (yr *File) ReadBytesAtOffset(offset, size uint64) ([]byte, error) {
	// Boundary check, guarding the sum against overflow.
	totalSize := offset + size
	if totalSize < offset {
		return nil, ErrOutsideBoundary
	}

	if offset > uint64(yr.size) || totalSize > uint64(yr.size) {
		return nil, ErrOutsideBoundary
	}

	b := make([]byte, size)
	copy(b, yr.img[offset:totalSize])
	return b, nil
}

// patchUint32 overwrites a 32-bit slot inside the image. Used solely by the
// relocation pass; the image is read-only afterwards.
func (yr *File) patchUint32(offset, value uint32) {
	binary.LittleEndian.PutUint32(yr.img[offset:], value)
}

// getCString reads a NUL-terminated UTF-8 string at the given image offset.
// A zero offset is the format's null-pointer convention; callers check the
// pointer before dereferencing it.
func (yr *File) getCString(offset uint64) (string, error) {
	if offset >= uint64(yr.size) {
		return "", ErrOutsideBoundary
	}

	end := offset
	for end < uint64(yr.size) && yr.img[end] != 0 {
		end++
	}
	if end == uint64(yr.size) {
		return "", ErrOutsideBoundary
	}

	s := string(yr.img[offset:end])
	if !utf8.ValidString(s) {
		return "", ErrStringEncoding
	}
	return s, nil
}

// DecodeUTF16String decodes a UTF-16 little-endian byte sequence.
func DecodeUTF16String(b []byte) (string, error) {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	s, err := decoder.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}
