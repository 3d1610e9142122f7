// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// The condition bytecode is not swept linearly. Starting at CodeStart, only
// addresses reachable through the successor relation are decoded, so data
// interleaved with code never confuses the walker. The work structure is a
// stack: for conditional branches the taken target is pushed first, then
// the fall-through, which makes the fall-through pop (and record) first.
// Downstream consumers rely on that discovery order.

// Arg is a decoded instruction operand: either a raw 64-bit immediate or a
// reference to a string pattern descriptor.
type Arg interface {
	isArg()
}

// IntImm is a 64-bit immediate operand.
type IntImm uint64

func (IntImm) isArg() {}

func (*StringDescriptor) isArg() {}

// Instruction is a single decoded bytecode instruction.
type Instruction struct {
	// Address of the opcode byte within the image.
	Address uint64 `json:"address"`

	// Opcode identifies the operation.
	Opcode Opcode `json:"opcode"`

	// Args holds the decoded operands, if any.
	Args []Arg `json:"args,omitempty"`

	// Successors lists the addresses control may transfer to: none for
	// OP_HALT, one for straight-line instructions, two for conditional
	// branches (taken target first, fall-through second).
	Successors []uint64 `json:"successors,omitempty"`
}

// CodeMap is an address-keyed instruction map preserving the order in which
// addresses were first recorded by the reachability traversal.
type CodeMap struct {
	insns map[uint64]*Instruction
	order []uint64
}

func newCodeMap() *CodeMap {
	return &CodeMap{insns: make(map[uint64]*Instruction)}
}

// At returns the instruction recorded at the given address.
func (c *CodeMap) At(address uint64) (*Instruction, bool) {
	ins, ok := c.insns[address]
	return ins, ok
}

// Len returns the number of recorded instructions.
func (c *CodeMap) Len() int {
	return len(c.insns)
}

// Addresses returns the recorded addresses in discovery order.
func (c *CodeMap) Addresses() []uint64 {
	addrs := make([]uint64, len(c.order))
	copy(addrs, c.order)
	return addrs
}

func (c *CodeMap) record(ins *Instruction) {
	c.insns[ins.Address] = ins
	c.order = append(c.order, ins.Address)
}

// decodeInstruction decodes the single instruction at the given address.
func (yr *File) decodeInstruction(address uint64) (*Instruction, error) {
	b, err := yr.ReadUint8(address)
	if err != nil {
		return nil, err
	}

	opcode := Opcode(b)
	if !opcode.IsValid() {
		return nil, ErrBadOpcode
	}

	ins := &Instruction{Address: address, Opcode: opcode}

	switch {
	case opcode == OpHalt:
		// No successors.

	case immOpcodes[opcode]:
		imm, err := yr.ReadUint64(address + 1)
		if err != nil {
			return nil, err
		}
		ins.Args = []Arg{IntImm(imm)}
		ins.Successors = []uint64{address + 9}

	case branchOpcodes[opcode]:
		target, err := yr.ReadUint64(address + 1)
		if err != nil {
			return nil, err
		}
		// The successor list carries the target; no argument is recorded.
		ins.Successors = []uint64{target, address + 9}

	case opcode == OpPush:
		imm, err := yr.ReadUint64(address + 1)
		if err != nil {
			return nil, err
		}
		// The immediate may be a pointer to a string descriptor. The
		// lookup is speculative: anything that does not decode into a
		// present descriptor keeps the raw integer.
		if s := yr.stringAt(imm); s != nil {
			ins.Args = []Arg{s}
		} else {
			ins.Args = []Arg{IntImm(imm)}
		}
		ins.Successors = []uint64{address + 9}

	default:
		ins.Successors = []uint64{address + 1}
	}

	return ins, nil
}

// ParseCode performs the reachability traversal of the condition bytecode,
// populating the instruction map.
func (yr *File) ParseCode() error {
	todo := []uint64{uint64(yr.Header.CodeStart)}

	for len(todo) > 0 {
		ip := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		if _, ok := yr.Code.At(ip); ok {
			continue
		}

		ins, err := yr.decodeInstruction(ip)
		if err != nil {
			return err
		}

		for _, successor := range ins.Successors {
			if successor >= uint64(yr.size) {
				return ErrOutsideBoundary
			}
		}

		yr.Code.record(ins)
		todo = append(todo, ins.Successors...)
	}

	return nil
}
