// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"testing"
)

func TestParseStringAbsent(t *testing.T) {
	b := newImageBuilder()
	noflag := b.stringDesc(0, "$a", []byte("x"))
	oversized := b.stringDesc(StringFlagLiteral, "$b", []byte("x"))
	b.putUint32(oversized+strDescLengthOffset, MaxStringLength+1)
	noident := b.stringDesc(StringFlagLiteral, "$c", []byte("x"))
	b.putUint32(noident+strDescIdentOffset, 0)

	yr := buildFile(t, b)

	s, err := yr.ParseString(uint64(noflag))
	if s != nil || err != nil {
		t.Errorf("NOFLAG descriptor got (%v, %v), want (nil, nil)", s, err)
	}

	if _, err = yr.ParseString(uint64(oversized)); err != ErrStringTooLong {
		t.Errorf("oversized descriptor got %v, want %v", err, ErrStringTooLong)
	}
	if s := yr.stringAt(uint64(oversized)); s != nil {
		t.Errorf("speculative lookup of oversized descriptor got %v, want nil", s)
	}

	s, err = yr.ParseString(uint64(noident))
	if s != nil || err != nil {
		t.Errorf("identifier-less descriptor got (%v, %v), want (nil, nil)",
			s, err)
	}
}

func TestParseStringLiteral(t *testing.T) {
	b := newImageBuilder()
	desc := b.stringDesc(StringFlagLiteral|StringFlagWide|StringFlagNoCase,
		"$lit", []byte("payload"))

	yr := buildFile(t, b)

	s, err := yr.ParseString(uint64(desc))
	if err != nil {
		t.Fatalf("ParseString failed, reason: %v", err)
	}
	if s.Identifier != "$lit" {
		t.Errorf("identifier got %q, want %q", s.Identifier, "$lit")
	}
	if s.Length != 7 || string(s.Data) != "payload" {
		t.Errorf("data got (%d, %q), want (7, \"payload\")", s.Length, s.Data)
	}
}

func TestParseStringNonLiteralHasNoData(t *testing.T) {
	b := newImageBuilder()
	desc := b.stringDesc(StringFlagRegexp, "$re", nil)

	yr := buildFile(t, b)

	s, err := yr.ParseString(uint64(desc))
	if err != nil {
		t.Fatalf("ParseString failed, reason: %v", err)
	}
	if s == nil || s.Data != nil {
		t.Errorf("non-literal descriptor got %v, want present without data", s)
	}
}

func TestStringPattern(t *testing.T) {
	tests := []struct {
		name string
		in   StringDescriptor
		out  string
	}{
		{
			"hex literal",
			StringDescriptor{
				Flags: StringFlagHexadecimal | StringFlagLiteral,
				Data:  []byte{0xDE, 0xAD, 0xBE},
			},
			" = { DE AD BE }",
		},
		{
			"hex literal with low bytes",
			StringDescriptor{
				Flags: StringFlagHexadecimal | StringFlagLiteral,
				Data:  []byte{0x0A, 0x00},
			},
			" = { 0A 00 }",
		},
		{
			"plain literal",
			StringDescriptor{
				Flags: StringFlagLiteral,
				Data:  []byte("acme"),
			},
			" = \"acme\"",
		},
		{
			"empty literal",
			StringDescriptor{Flags: StringFlagLiteral},
			" = \"\"",
		},
		{
			"wide literal stored expanded",
			StringDescriptor{
				Flags: StringFlagLiteral | StringFlagWide,
				Data:  []byte{'a', 0, 'b', 0},
			},
			" = \"ab\"",
		},
		{
			"compiled regexp",
			StringDescriptor{Flags: StringFlagRegexp},
			" " + unrecoverableMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.pattern()
			if got != tt.out {
				t.Errorf("pattern got %q, want %q", got, tt.out)
			}
		})
	}
}

func TestStringModifiers(t *testing.T) {
	tests := []struct {
		name  string
		flags StringFlag
		out   []string
	}{
		{
			"ascii only",
			StringFlagASCII | StringFlagLiteral,
			nil,
		},
		{
			"canonical order",
			StringFlagRegexp | StringFlagNoCase | StringFlagWide |
				StringFlagFullWord,
			[]string{"fullword", "wide", "nocase", "regex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StringDescriptor{Flags: tt.flags}
			got := s.Modifiers()
			if len(got) != len(tt.out) {
				t.Fatalf("got %v, want %v", got, tt.out)
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Errorf("got %v, want %v", got, tt.out)
					break
				}
			}
		})
	}
}
