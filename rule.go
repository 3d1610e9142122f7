// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// RuleFlag holds the flags of a rule record.
type RuleFlag uint32

// Rule flags.
const (
	RuleFlagPrivate           RuleFlag = 0x01
	RuleFlagGlobal            RuleFlag = 0x02
	RuleFlagRequireExecutable RuleFlag = 0x04
	RuleFlagRequireFile       RuleFlag = 0x08
	RuleFlagNull              RuleFlag = 0x1000
)

// Rule record layout: the flags word is followed by 32 reserved bookkeeping
// slots, after which the pointer fields sit in 8-byte-aligned 64-bit slots.
// The strings-table pointer at offset 160 is not consumed here; patterns
// are discovered through PUSH operands instead.
const (
	ruleFlagsOffset     = 0
	ruleIdentOffset     = 136
	ruleTagsOffset      = 144
	ruleMetadataOffset  = 152
	ruleNamespaceOffset = 168
)

// Namespace record layout: 32 reserved slots, then the name pointer.
const nsNameOffset = 128

// Rule is a single decompiled rule.
type Rule struct {
	// Flags of the rule.
	Flags RuleFlag `json:"flags"`

	// Identifier of the rule.
	Identifier string `json:"identifier"`

	// Tags attached to the rule, in declaration order.
	Tags []string `json:"tags,omitempty"`

	// Namespace label, empty for the default namespace.
	Namespace string `json:"namespace,omitempty"`

	// Meta holds the metadata entries in declaration order.
	Meta []Meta `json:"meta,omitempty"`

	// Strings holds the patterns referenced by the rule's condition, in
	// first-seen order; identifiers are unique within a rule.
	Strings []*StringDescriptor `json:"strings,omitempty"`

	// Code is the rule's condition program, in discovery order, starting
	// with its OP_INIT_RULE.
	Code []*Instruction `json:"code,omitempty"`
}

// addString inserts a pattern into the rule's ordered string set. The first
// occurrence of an identifier wins.
func (r *Rule) addString(s *StringDescriptor) {
	for _, existing := range r.Strings {
		if existing.Identifier == s.Identifier {
			return
		}
	}
	r.Strings = append(r.Strings, s)
}

// ParseRule decodes the rule record at the given image offset.
func (yr *File) ParseRule(address uint64) (*Rule, error) {
	flags, err := yr.ReadUint32(address + ruleFlagsOffset)
	if err != nil {
		return nil, err
	}

	rule := &Rule{Flags: RuleFlag(flags)}

	identPtr, err := yr.ReadUint32(address + ruleIdentOffset)
	if err != nil {
		return nil, err
	}
	if identPtr != 0 {
		rule.Identifier, err = yr.getCString(uint64(identPtr))
		if err != nil {
			return nil, err
		}
	} else {
		yr.logger.Warnf("rule record at 0x%x has no identifier", address)
	}

	tagsPtr, err := yr.ReadUint32(address + ruleTagsOffset)
	if err != nil {
		return nil, err
	}
	if tagsPtr != 0 {
		rule.Tags, err = yr.parseTags(uint64(tagsPtr))
		if err != nil {
			return nil, err
		}
	}

	metaPtr, err := yr.ReadUint32(address + ruleMetadataOffset)
	if err != nil {
		return nil, err
	}
	if metaPtr != 0 {
		rule.Meta, err = yr.ParseMetadata(uint64(metaPtr))
		if err != nil {
			return nil, err
		}
	}

	nsPtr, err := yr.ReadUint32(address + ruleNamespaceOffset)
	if err != nil {
		return nil, err
	}
	if nsPtr != 0 {
		rule.Namespace, err = yr.parseNamespace(uint64(nsPtr))
		if err != nil {
			return nil, err
		}
	}

	return rule, nil
}

// parseNamespace reads the namespace label out of the namespace record.
func (yr *File) parseNamespace(address uint64) (string, error) {
	namePtr, err := yr.ReadUint32(address + nsNameOffset)
	if err != nil {
		return "", err
	}
	if namePtr == 0 {
		return "", nil
	}
	return yr.getCString(uint64(namePtr))
}

// parseTags decodes the rule's tag blob: a run of NUL-terminated names
// ended by an empty name.
func (yr *File) parseTags(address uint64) ([]string, error) {
	var tags []string

	for {
		tag, err := yr.getCString(address)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			return tags, nil
		}
		tags = append(tags, tag)
		address += uint64(len(tag)) + 1
	}
}
