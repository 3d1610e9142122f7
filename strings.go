// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// StringFlag holds the pattern flags of a string descriptor.
type StringFlag uint32

// String pattern flags.
const (
	StringFlagReferenced    StringFlag = 0x01
	StringFlagHexadecimal   StringFlag = 0x02
	StringFlagNoCase        StringFlag = 0x04
	StringFlagASCII         StringFlag = 0x08
	StringFlagWide          StringFlag = 0x10
	StringFlagRegexp        StringFlag = 0x20
	StringFlagFastHexRegexp StringFlag = 0x40
	StringFlagFullWord      StringFlag = 0x80
	StringFlagAnonymous     StringFlag = 0x100
	StringFlagSingleMatch   StringFlag = 0x200
	StringFlagLiteral       StringFlag = 0x400
	StringFlagFitsInAtom    StringFlag = 0x800
	StringFlagNull          StringFlag = 0x1000
	StringFlagChainPart     StringFlag = 0x2000
	StringFlagChainTail     StringFlag = 0x4000
	StringFlagFixedOffset   StringFlag = 0x8000
	StringFlagGreedyRegexp  StringFlag = 0x10000
)

// String descriptor record layout. Pointer fields occupy 8-byte-aligned
// 64-bit slots of which only the low word is meaningful after relocation.
const (
	strDescFlagsOffset     = 0
	strDescLengthOffset    = 4
	strDescIdentOffset     = 8
	strDescDataOffset      = 16
	strDescChainedToOffset = 24
)

// StringDescriptor represents a named string pattern of a rule.
type StringDescriptor struct {
	// Flags of the pattern.
	Flags StringFlag `json:"flags"`

	// Length of the pattern data, in bytes.
	Length uint32 `json:"length"`

	// ChainedTo is the image offset of the descriptor this pattern is
	// chained to, or zero.
	ChainedTo uint32 `json:"chained_to"`

	// Identifier of the pattern, including the leading `$`.
	Identifier string `json:"identifier"`

	// Data holds the raw pattern bytes. Present only for literal
	// patterns; regular expressions and atom sets are compiled away by
	// the rules compiler and cannot be recovered.
	Data []byte `json:"data,omitempty"`
}

// ParseString decodes the string descriptor at the given image offset.
// A descriptor whose flags are all clear or whose identifier pointer is
// null decodes as absent (nil, nil); a present descriptor whose length
// exceeds MaxStringLength fails with ErrStringTooLong.
func (yr *File) ParseString(address uint64) (*StringDescriptor, error) {
	flags, err := yr.ReadUint32(address + strDescFlagsOffset)
	if err != nil {
		return nil, err
	}
	length, err := yr.ReadUint32(address + strDescLengthOffset)
	if err != nil {
		return nil, err
	}
	identPtr, err := yr.ReadUint32(address + strDescIdentOffset)
	if err != nil {
		return nil, err
	}
	dataPtr, err := yr.ReadUint32(address + strDescDataOffset)
	if err != nil {
		return nil, err
	}
	chainedTo, err := yr.ReadUint32(address + strDescChainedToOffset)
	if err != nil {
		return nil, err
	}

	if StringFlag(flags) == 0 || identPtr == 0 {
		return nil, nil
	}
	if length > MaxStringLength {
		return nil, ErrStringTooLong
	}

	identifier, err := yr.getCString(uint64(identPtr))
	if err != nil {
		return nil, err
	}

	s := &StringDescriptor{
		Flags:      StringFlag(flags),
		Length:     length,
		ChainedTo:  chainedTo,
		Identifier: identifier,
	}

	if s.Flags&StringFlagLiteral != 0 {
		s.Data, err = yr.ReadBytesAtOffset(uint64(dataPtr), uint64(length))
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// stringAt is the speculative variant of ParseString used on PUSH
// immediates: any decode failure or absent descriptor yields nil.
func (yr *File) stringAt(address uint64) *StringDescriptor {
	s, err := yr.ParseString(address)
	if err != nil {
		return nil
	}
	return s
}

// Modifiers returns the pattern's modifier keywords in their canonical
// order. ASCII is the default and is never emitted.
func (s *StringDescriptor) Modifiers() []string {
	var mods []string
	if s.Flags&StringFlagFullWord != 0 {
		mods = append(mods, "fullword")
	}
	if s.Flags&StringFlagWide != 0 {
		mods = append(mods, "wide")
	}
	if s.Flags&StringFlagNoCase != 0 {
		mods = append(mods, "nocase")
	}
	if s.Flags&StringFlagRegexp != 0 {
		mods = append(mods, "regex")
	}
	return mods
}
