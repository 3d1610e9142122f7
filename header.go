// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// The image header stores the format version followed by five 64-bit
// pointer slots. After relocation every pointer is either zero (absent) or
// an in-bounds byte offset, so only the low word of each slot is read.
const (
	imgHdrVersionOffset    = 0
	imgHdrRulesOffset      = 8
	imgHdrExternalsOffset  = 16
	imgHdrCodeStartOffset  = 24
	imgHdrMatchOffset      = 32
	imgHdrTransitionOffset = 40
)

// ImageHeader represents the header record at the start of the image.
type ImageHeader struct {
	// Version of the rules format, repeated inside the image.
	Version uint32 `json:"version"`

	// RulesOffset points to the rule record table.
	RulesOffset uint32 `json:"rules_offset"`

	// ExternalsOffset points to the external variables table.
	ExternalsOffset uint32 `json:"externals_offset"`

	// CodeStart is the offset at which the condition bytecode begins.
	CodeStart uint32 `json:"code_start"`

	// MatchOffset points to the Aho-Corasick match table.
	MatchOffset uint32 `json:"match_offset"`

	// TransitionOffset points to the Aho-Corasick transition table.
	TransitionOffset uint32 `json:"transition_offset"`
}

// ParseImageHeader decodes the image header record.
func (yr *File) ParseImageHeader() error {
	fields := []struct {
		offset uint64
		dst    *uint32
	}{
		{imgHdrVersionOffset, &yr.Header.Version},
		{imgHdrRulesOffset, &yr.Header.RulesOffset},
		{imgHdrExternalsOffset, &yr.Header.ExternalsOffset},
		{imgHdrCodeStartOffset, &yr.Header.CodeStart},
		{imgHdrMatchOffset, &yr.Header.MatchOffset},
		{imgHdrTransitionOffset, &yr.Header.TransitionOffset},
	}

	for _, f := range fields {
		v, err := yr.ReadUint32(f.offset)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	return nil
}
