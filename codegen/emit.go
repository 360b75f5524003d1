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

import (
	"fmt"
	"strings"
)

// String renders one machine instruction in GNU RV64 assembler syntax.
func (inst AsmInstruction) String() string {
	switch inst.Op {
	case OpJal:
		return fmt.Sprintf("jal %s, %s+%d", inst.Rd, inst.Label, inst.Imm)
	case OpJalr:
		return fmt.Sprintf("jalr %s, %s, %d", inst.Rd, inst.Rs1, inst.Imm)
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		return fmt.Sprintf("%s %s, %s, %s+%d", inst.Op, inst.Rs1, inst.Rs2, inst.Label, inst.Imm)
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu:
		return fmt.Sprintf("%s %s, %d(%s)", inst.Op, inst.Rd, inst.Imm, inst.Rs1)
	case OpSb, OpSh, OpSw, OpSd:
		return fmt.Sprintf("%s %s, %d(%s)", inst.Op, inst.Rs1, inst.Imm, inst.Rs2)
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		return fmt.Sprintf("%s %s, %s, %d", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
	case OpAdd, OpMul, OpSub, OpSll, OpSrl, OpSlt, OpSltu, OpXor, OpOr, OpAnd, OpSra:
		return fmt.Sprintf("%s %s, %s, %s", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
	case OpCall:
		return fmt.Sprintf("call %s", inst.Sym)
	case OpRet:
		return "ret"
	case OpEcall:
		return "ecall"
	default:
		return fmt.Sprintf("; unknown %s", inst.Op)
	}
}

// Emit renders program as a complete textual RV64IM assembly file: a
// _start that runs the prologue, calls main, then exits via ecall, followed
// by every compiled function's label and body.
func Emit(program AsmProgram) string {
	var lines []string
	lines = append(lines, ".global _start", "_start:")
	lines = append(lines, emitBlock(program.Prologue)...)
	lines = append(lines, "    call main")
	lines = append(lines, "    addi a7, zero, 93")
	lines = append(lines, "    ecall")

	for _, fn := range program.Funcs {
		lines = append(lines, emitFunction(fn)...)
	}
	return strings.Join(lines, "\n") + "\n"
}

func emitFunction(fn AsmFunction) []string {
	lines := []string{fn.Name + ":"}
	for _, bb := range fn.Blocks {
		lines = append(lines, emitBlock(bb)...)
	}
	return lines
}

func emitBlock(bb AsmBasicBlock) []string {
	lines := make([]string, 0, len(bb.Instructions))
	for _, inst := range bb.Instructions {
		lines = append(lines, "    "+inst.String())
	}
	return lines
}
