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

package codegen

import "github.com/vanta-lang/riscvc/ir"

// maxArgRegs is the number of argument registers a0..a7 available for a
// direct call; CallDirect with more arguments than this is a LoweringError
// rather than silently spilling to the stack.
const maxArgRegs = 8

// selectInstruction lowers one IR instruction into machine IR, appending to
// builder's current block. It returns a LoweringError for opcodes this
// back-end does not implement instead of panicking, so a caller can surface
// the failure through the compile pipeline's error taxonomy.
func selectInstruction(inst ir.Instruction, b *funcBuilder) error {
	reg := inst.ID
	switch inst.Op {
	case ir.OpLdi:
		b.emit(AsmInstruction{Op: OpAddi, Rd: IrReg(reg), Rs1: Zero, Imm: inst.Data.ImmI})

	case ir.OpLd:
		b.emit(AsmInstruction{Op: OpLd, Rd: IrReg(reg), Rs1: IrReg(inst.Data.Reg), Imm: 0})

	case ir.OpSt:
		b.emit(AsmInstruction{Op: OpSd, Rs1: IrReg(inst.Data.RegB), Rs2: IrReg(inst.Data.RegA), Imm: 0})
		b.releaseTemps()

	case ir.OpAlloca:
		// The stack offset is assigned by the register allocator; nothing
		// to select here.

	case ir.OpMov:
		b.emit(AsmInstruction{Op: OpAddi, Rd: IrReg(reg), Rs1: IrReg(inst.Data.Reg), Imm: 0})

	case ir.OpAdd:
		b.emit(AsmInstruction{Op: OpAdd, Rd: IrReg(reg), Rs1: IrReg(inst.Data.RegA), Rs2: IrReg(inst.Data.RegB)})

	case ir.OpSub:
		b.emit(AsmInstruction{Op: OpSub, Rd: IrReg(reg), Rs1: IrReg(inst.Data.RegA), Rs2: IrReg(inst.Data.RegB)})

	case ir.OpMul:
		b.emit(AsmInstruction{Op: OpMul, Rd: IrReg(reg), Rs1: IrReg(inst.Data.RegA), Rs2: IrReg(inst.Data.RegB)})

	case ir.OpLe:
		// a <= b  <=>  !(b+1 <= a) is not what's used; instead synthesize
		// (b+1) and test a < b+1 through a scratch architectural register,
		// avoiding a second pseudo-register definition.
		b.emit(AsmInstruction{Op: OpAddi, Rd: Arch(31), Rs1: IrReg(inst.Data.RegB), Imm: 1})
		b.emit(AsmInstruction{Op: OpSlt, Rd: IrReg(reg), Rs1: IrReg(inst.Data.RegA), Rs2: Arch(31)})

	case ir.OpLt:
		b.emit(AsmInstruction{Op: OpSlt, Rd: IrReg(reg), Rs1: IrReg(inst.Data.RegA), Rs2: IrReg(inst.Data.RegB)})

	case ir.OpCallDirect:
		return selectCallDirect(inst, b)

	case ir.OpSysCall:
		return selectSysCall(inst, b)

	case ir.OpArg:
		b.emit(AsmInstruction{Op: OpAddi, Rd: IrReg(reg), Rs1: ArgReg(int(inst.Data.ImmI)), Imm: 0})

	case ir.OpRet:
		b.emit(AsmInstruction{Op: OpRet})

	case ir.OpExit:
		// Lowered by the pipeline's final ecall sequence, not per-instruction.

	case ir.OpRetr:
		b.emit(AsmInstruction{Op: OpAddi, Rd: ArgReg(0), Rs1: IrReg(inst.Data.Reg), Imm: 0})
		b.emit(AsmInstruction{Op: OpRet})

	case ir.OpJmp:
		b.emit(AsmInstruction{Op: OpJal, Rd: Zero, Imm: int64(inst.Data.JumpTarget), Label: b.name})

	case ir.OpBranch:
		b.emit(AsmInstruction{Op: OpBeq, Rs1: IrReg(inst.Data.Reg), Rs2: Zero, Imm: int64(inst.Data.BranchFalse), Label: b.name})
		b.releaseTemps()

	default:
		return &LoweringError{Kind: UnsupportedOpcode, Inst: reg, Op: inst.Op}
	}
	return nil
}

func selectCallDirect(inst ir.Instruction, b *funcBuilder) error {
	if len(inst.Data.Regs) > maxArgRegs {
		return &LoweringError{Kind: TooManyCallArgs, Inst: inst.ID}
	}
	for i, arg := range inst.Data.Regs {
		b.emit(AsmInstruction{Op: OpAddi, Rd: ArgReg(i), Rs1: IrReg(arg), Imm: 0})
	}
	offset := b.forceStore(Ra)
	b.emit(AsmInstruction{Op: OpCall, Sym: inst.Data.Sym, CallSite: inst.ID})
	b.emit(AsmInstruction{Op: OpLd, Rd: Ra, Rs1: Sp, Imm: offset})
	b.emit(AsmInstruction{Op: OpAddi, Rd: IrReg(inst.ID), Rs1: ArgReg(0), Imm: 0})
	return nil
}

// selectSysCall lowers a syscall instruction: move the syscall number into
// a7, the arguments into a0.., issue ecall, then move a0 (the kernel's
// return value) into the destination register. There is no IR precedent
// for a syscall with a return value beyond Exit (which never returns), but
// the lowering follows the same a0-is-the-result convention CallDirect
// uses.
func selectSysCall(inst ir.Instruction, b *funcBuilder) error {
	b.emit(AsmInstruction{Op: OpAddi, Rd: ArgReg(7), Rs1: Zero, Imm: inst.Data.ImmI})
	for i, arg := range inst.Data.Regs {
		b.emit(AsmInstruction{Op: OpAddi, Rd: ArgReg(i), Rs1: IrReg(arg), Imm: 0})
	}
	b.emit(AsmInstruction{Op: OpEcall})
	if inst.Type != ir.Void {
		b.emit(AsmInstruction{Op: OpAddi, Rd: IrReg(inst.ID), Rs1: ArgReg(0), Imm: 0})
	}
	return nil
}
