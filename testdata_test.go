// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"encoding/binary"
	"testing"
)

// imageBuilder assembles synthetic compiled rules files in memory, in the
// layout the decoder expects: outer header, image, relocation stream.
type imageBuilder struct {
	img     []byte
	relocs  []uint32
	version uint8
}

func newImageBuilder() *imageBuilder {
	return &imageBuilder{
		// Zeroed room for the image header record.
		img:     make([]byte, 48),
		version: 11,
	}
}

// alloc extends the image with n zero bytes and returns their offset.
func (b *imageBuilder) alloc(n int) uint32 {
	off := uint32(len(b.img))
	b.img = append(b.img, make([]byte, n)...)
	return off
}

// bytes appends raw bytes and returns their offset.
func (b *imageBuilder) bytes(data []byte) uint32 {
	off := uint32(len(b.img))
	b.img = append(b.img, data...)
	return off
}

// cstring appends a NUL-terminated string and returns its offset.
func (b *imageBuilder) cstring(s string) uint32 {
	return b.bytes(append([]byte(s), 0))
}

func (b *imageBuilder) putUint32(offset, v uint32) {
	binary.LittleEndian.PutUint32(b.img[offset:], v)
}

func (b *imageBuilder) putUint64(offset uint32, v uint64) {
	binary.LittleEndian.PutUint64(b.img[offset:], v)
}

// op appends a single-byte instruction and returns its address.
func (b *imageBuilder) op(op Opcode) uint32 {
	return b.bytes([]byte{byte(op)})
}

// opImm appends an instruction with a 64-bit immediate and returns its
// address.
func (b *imageBuilder) opImm(op Opcode, imm uint64) uint32 {
	off := b.bytes([]byte{byte(op)})
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], imm)
	b.bytes(buf[:])
	return off
}

func (b *imageBuilder) setCodeStart(off uint32) {
	b.putUint32(imgHdrCodeStartOffset, off)
}

// rule reserves a rule record wired to the given pointers and returns its
// offset.
func (b *imageBuilder) rule(flags uint32, ident string, tagsPtr, metaPtr, nsPtr uint32) uint32 {
	idOff := b.cstring(ident)
	off := b.alloc(176)
	b.putUint32(off+ruleFlagsOffset, flags)
	b.putUint32(off+ruleIdentOffset, idOff)
	b.putUint32(off+ruleTagsOffset, tagsPtr)
	b.putUint32(off+ruleMetadataOffset, metaPtr)
	b.putUint32(off+ruleNamespaceOffset, nsPtr)
	return off
}

// stringDesc reserves a string descriptor and returns its offset.
func (b *imageBuilder) stringDesc(flags StringFlag, ident string, data []byte) uint32 {
	idOff := b.cstring(ident)
	dataOff := b.bytes(data)
	off := b.alloc(32)
	b.putUint32(off+strDescFlagsOffset, uint32(flags))
	b.putUint32(off+strDescLengthOffset, uint32(len(data)))
	b.putUint32(off+strDescIdentOffset, idOff)
	b.putUint32(off+strDescDataOffset, dataOff)
	return off
}

// metaIntChain reserves a single-entry INTEGER metadata chain followed by
// its NULL terminator.
func (b *imageBuilder) metaIntChain(name string, value int64) uint32 {
	nameOff := b.cstring(name)
	off := b.alloc(2 * metaEntrySize)
	b.putUint32(off+metaTypeOffset, uint32(MetaTypeInteger))
	b.putUint64(off+metaIntOffset, uint64(value))
	b.putUint32(off+metaIdentOffset, nameOff)
	return off
}

// namespace reserves a namespace record and returns its offset.
func (b *imageBuilder) namespace(name string) uint32 {
	nameOff := b.cstring(name)
	off := b.alloc(136)
	b.putUint32(off+nsNameOffset, nameOff)
	return off
}

func (b *imageBuilder) reloc(off uint32) {
	b.relocs = append(b.relocs, off)
}

// build serializes the outer header, the image and the terminated
// relocation stream.
func (b *imageBuilder) build() []byte {
	out := make([]byte, 0, fileHeaderSize+len(b.img)+4*(len(b.relocs)+1))
	out = append(out, yaraMagic...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(b.img)))
	out = append(out, u32[:]...)
	out = append(out, b.version)
	out = append(out, b.img...)

	for _, r := range b.relocs {
		binary.LittleEndian.PutUint32(u32[:], r)
		out = append(out, u32[:]...)
	}
	binary.LittleEndian.PutUint32(u32[:], relocTerminator)
	out = append(out, u32[:]...)
	return out
}

// buildFile decodes the outer header of the built file and returns it
// ready for the later parse stages.
func buildFile(t *testing.T, b *imageBuilder) *File {
	t.Helper()

	yr, err := NewBytes(b.build(), nil)
	if err != nil {
		t.Fatalf("NewBytes failed, reason: %v", err)
	}
	if err := yr.ParseFileHeader(); err != nil {
		t.Fatalf("ParseFileHeader failed, reason: %v", err)
	}
	return yr
}
