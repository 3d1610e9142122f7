// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// AssembleRules slices the linearized instruction map into per-rule
// programs. Every OP_INIT_RULE opens a new rule from the record its operand
// points at; OP_HALT ends the program; each instruction, the OP_INIT_RULE
// and the final OP_HALT included, belongs to the rule open at that point.
// Patterns are attached as they surface in PUSH operands. The in-progress
// rule is addressed by its index in the rule table.
func (yr *File) AssembleRules() error {
	cur := -1

	for _, address := range yr.Code.order {
		ins := yr.Code.insns[address]

		if ins.Opcode == OpInitRule {
			ruleAddr := uint64(ins.Args[0].(IntImm))
			rule, err := yr.ParseRule(ruleAddr)
			if err != nil {
				return err
			}
			yr.Rules = append(yr.Rules, rule)
			cur = len(yr.Rules) - 1
		} else if cur < 0 {
			if ins.Opcode == OpHalt {
				// A rule-less image is just an empty program.
				return nil
			}
			return ErrInstructionBeforeRule
		}

		if ins.Opcode == OpPush {
			if s, ok := ins.Args[0].(*StringDescriptor); ok {
				yr.Rules[cur].addString(s)
			}
		}

		yr.Rules[cur].Code = append(yr.Rules[cur].Code, ins)

		if ins.Opcode == OpHalt {
			return nil
		}
	}

	return nil
}
