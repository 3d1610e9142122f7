// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// unrecoverableMarker annotates patterns whose textual form is compiled
// away (regex bytecode, atom sets) and cannot be reconstructed.
const unrecoverableMarker = "[__unrecoverable_with_yaradec__]"

// RenderOptions controls the optional sections of a rule's textual form.
type RenderOptions struct {
	// Tags emits the rule's tags after the identifier.
	Tags bool

	// Asm emits the disassembly of the rule's condition program.
	Asm bool
}

// DefaultRenderOptions enables every section.
var DefaultRenderOptions = RenderOptions{Tags: true, Asm: true}

// String renders the rule with the default options.
func (r *Rule) String() string {
	return r.Render(DefaultRenderOptions)
}

// Render reconstructs the textual form of the rule.
func (r *Rule) Render(opts RenderOptions) string {
	var b strings.Builder

	if r.Flags&RuleFlagPrivate != 0 {
		b.WriteString("private ")
	}
	if r.Flags&RuleFlagGlobal != 0 {
		b.WriteString("global ")
	}

	b.WriteString("rule ")
	if r.Namespace != "" {
		b.WriteString(r.Namespace)
		b.WriteByte(':')
	}
	b.WriteString(r.Identifier)
	if opts.Tags && len(r.Tags) > 0 {
		b.WriteString(" : ")
		b.WriteString(strings.Join(r.Tags, " "))
	}
	b.WriteString(" {\n")

	if len(r.Meta) > 0 {
		b.WriteString("\tmeta:\n")
		for _, m := range r.Meta {
			fmt.Fprintf(&b, "\t\t%s = %s\n", m.Identifier, m.value())
		}
	}

	if len(r.Strings) > 0 {
		b.WriteString("\tstrings:\n")
		for _, s := range r.Strings {
			b.WriteString("\t\t")
			b.WriteString(s.Identifier)
			b.WriteString(s.pattern())
			for _, mod := range s.Modifiers() {
				b.WriteByte(' ')
				b.WriteString(mod)
			}
			b.WriteByte('\n')
		}
	}

	if opts.Asm {
		b.WriteString("\t__yaradec_asm__:\n")
		for _, ins := range r.Code {
			b.WriteString("\t\t")
			b.WriteString(ins.Opcode.String())
			if len(ins.Args) > 0 {
				b.WriteString(" (")
				for _, arg := range ins.Args {
					b.WriteByte(' ')
					b.WriteString(renderArg(arg))
					b.WriteByte(' ')
				}
				b.WriteByte(')')
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// value renders a metadata entry value in rule-source syntax.
func (m *Meta) value() string {
	switch m.Type {
	case MetaTypeString:
		return fmt.Sprintf("\"%s\"", m.Str)
	case MetaTypeInteger:
		return fmt.Sprintf("%d", m.Int)
	case MetaTypeBoolean:
		return fmt.Sprintf("%t", m.Bool)
	}
	return ""
}

// pattern renders the right-hand side of a string declaration. Hex literals
// come back as a byte listing, plain literals as a quoted string; anything
// else was compiled away.
func (s *StringDescriptor) pattern() string {
	switch {
	case s.Flags&StringFlagHexadecimal != 0 && s.Flags&StringFlagLiteral != 0:
		return " = " + renderHexBytes(s.Data)
	case s.Flags&StringFlagLiteral != 0:
		return fmt.Sprintf(" = \"%s\"", s.literal())
	default:
		return " " + unrecoverableMarker
	}
}

// literal recovers the text of a literal pattern. Wide patterns stored as
// their UTF-16LE expansion are folded back to readable text.
func (s *StringDescriptor) literal() string {
	if s.Flags&StringFlagWide != 0 && len(s.Data)%2 == 0 &&
		bytes.IndexByte(s.Data, 0) >= 0 {
		if dec, err := DecodeUTF16String(s.Data); err == nil && utf8.ValidString(dec) {
			return dec
		}
	}
	return string(s.Data)
}

func renderHexBytes(data []byte) string {
	if len(data) == 0 {
		return "{ }"
	}

	parts := make([]string, len(data))
	for i, x := range data {
		parts[i] = fmt.Sprintf("%02X", x)
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func renderArg(arg Arg) string {
	switch v := arg.(type) {
	case IntImm:
		return fmt.Sprintf("0x%X", uint64(v))
	case *StringDescriptor:
		return v.Identifier
	}
	return ""
}
