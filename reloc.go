// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"encoding/binary"
)

// The compiler serializes absolute pointers into an image that has no load
// address yet. The relocation stream appended after the image lists every
// 32-bit slot that holds such a pointer; slots still carrying the undefined
// sentinel are zeroed so that downstream decoding sees an explicit absent
// pointer. The pass is idempotent: a zeroed slot no longer matches the
// sentinel.
//
// Stream layout: little-endian uint32 image offsets, terminated by
// 0xFFFFFFFF. A stream that ends before the terminator is structural damage.

// ApplyRelocations walks the relocation stream and patches the image.
func (yr *File) ApplyRelocations() error {
	stream := yr.data[fileHeaderSize+int(yr.size):]

	pos := 0
	for {
		if pos+4 > len(stream) {
			return ErrBadRelocs
		}

		entry := binary.LittleEndian.Uint32(stream[pos:])
		pos += 4

		if entry == relocTerminator {
			return nil
		}

		if uint64(entry)+4 > uint64(yr.size) {
			return ErrBadRelocs
		}

		slot, err := yr.ReadUint32(uint64(entry))
		if err != nil {
			return ErrBadRelocs
		}

		if slot == undefinedPointer {
			yr.patchUint32(entry, 0)
		}
	}
}
