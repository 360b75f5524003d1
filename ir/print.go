// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package ir

import (
	"fmt"
	"strings"
)

// operandString renders an instruction's operands for the textual dump.
func operandString(inst Instruction) string {
	switch inst.Op {
	case OpLdi, OpAlloca, OpAllocg, OpArg:
		return fmt.Sprintf("%d", inst.Data.ImmI)
	case OpLdc:
		return fmt.Sprintf("%q", inst.Data.ImmC)
	case OpLd, OpNeg, OpMov, OpRetr, OpPrint, OpBranch:
		s := inst.Data.Reg.String()
		if inst.Op == OpBranch {
			return fmt.Sprintf("%s, %d, %d", s, inst.Data.BranchTrue, inst.Data.BranchFalse)
		}
		return s
	case OpSt:
		return fmt.Sprintf("%s, %s", inst.Data.RegA, inst.Data.RegB)
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShr, OpShl,
		OpAnd, OpOr, OpXor, OpLt, OpLe, OpGt, OpGe, OpEql:
		return fmt.Sprintf("%s, %s", inst.Data.RegA, inst.Data.RegB)
	case OpCpy, OpGep:
		return fmt.Sprintf("%s, %s, %d", inst.Data.RegA, inst.Data.RegB, inst.Data.Imm)
	case OpCallDirect:
		return fmt.Sprintf("%s(%s)", inst.Data.Sym, joinRegs(inst.Data.Regs))
	case OpSysCall:
		return fmt.Sprintf("%d(%s)", inst.Data.ImmI, joinRegs(inst.Data.Regs))
	case OpCall:
		return joinRegs(inst.Data.Regs)
	case OpPhi:
		return joinRegs(inst.Data.Regs)
	case OpJmp:
		return fmt.Sprintf("%d", inst.Data.JumpTarget)
	case OpRet, OpExit:
		return ""
	default:
		return ""
	}
}

func joinRegs(regs []Register) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// String renders one instruction as `g(b,i) : ty = opcode operands`.
func (inst Instruction) String() string {
	operands := operandString(inst)
	if operands == "" {
		return fmt.Sprintf("%s : %s = %s", inst.ID, inst.Type, inst.Op)
	}
	return fmt.Sprintf("%s : %s = %s %s", inst.ID, inst.Type, inst.Op, operands)
}

// String renders a whole function as `BBk:` headers followed by its
// instructions, one per line.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s(%d) -> %s\n", f.Name, f.ArgCount, f.RetType)
	for i, bb := range f.Blocks {
		fmt.Fprintf(&sb, "BB%d:\n", i)
		for _, inst := range bb.Instructions {
			fmt.Fprintf(&sb, "  %s\n", inst.String())
		}
	}
	return sb.String()
}

// String renders the whole program: the global function first, then every
// user function in lexicographic name order, keeping every ordered walk
// over Funcs deterministic.
func (p *IrProgram) String() string {
	var sb strings.Builder
	sb.WriteString(p.Glob.String())
	for _, name := range p.SortedFuncNames() {
		fn := p.Funcs[name]
		sb.WriteString(fn.String())
	}
	return sb.String()
}
