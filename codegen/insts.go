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

// Package codegen is the back-end: instruction selection lowering IR into a
// pseudo-register RV64IM machine IR, a peephole rewriter, linear-scan
// register allocation, post-allocation materialization (pseudo-register
// patching, caller-save insertion, prologue/epilogue, branch offset
// patching), and textual assembly emission.
package codegen

import (
	"fmt"

	"github.com/vanta-lang/riscvc/ir"
)

// RdKind distinguishes the operand variants a Rd can hold.
type RdKind int

const (
	RdIr RdKind = iota
	RdArgReg
	RdZero
	RdSp
	RdRa
	RdArch
)

// Rd is an instruction operand: a pseudo-register identified by an IR
// register id, an argument register a0..a7, a named special register
// (zero/sp/ra), or an architectural register by index. Comparable, so it
// can key a set (peephole's dead-write sweep keys on Rd).
type Rd struct {
	Kind RdKind
	Ir   ir.Register // valid when Kind == RdIr
	Num  int         // argument index (RdArgReg) or architectural index (RdArch)
}

var (
	Zero = Rd{Kind: RdZero}
	Sp   = Rd{Kind: RdSp}
	Ra   = Rd{Kind: RdRa}
)

// IrReg wraps an IR register as a pseudo-register operand.
func IrReg(r ir.Register) Rd { return Rd{Kind: RdIr, Ir: r} }

// ArgReg returns the operand for argument register a<idx>.
func ArgReg(idx int) Rd { return Rd{Kind: RdArgReg, Num: idx} }

// Arch returns the operand for architectural register x<idx>.
func Arch(idx int) Rd { return Rd{Kind: RdArch, Num: idx} }

func (r Rd) String() string {
	switch r.Kind {
	case RdIr:
		return fmt.Sprintf("ir=(%s)", r.Ir)
	case RdArgReg:
		return fmt.Sprintf("a%d", r.Num)
	case RdZero:
		return "zero"
	case RdSp:
		return "sp"
	case RdRa:
		return "ra"
	case RdArch:
		return fmt.Sprintf("x%d", r.Num)
	default:
		return "?"
	}
}

// Op is the closed set of RV64IM instructions (plus the pseudo Call/Ret/Ecall
// forms) the lowering emits.
type Op int

const (
	OpLui Op = iota
	OpAuipc

	OpJal
	OpJalr

	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu

	OpSb
	OpSh
	OpSw
	OpSd

	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai

	OpAdd
	OpMul
	OpSub
	OpSll
	OpSrl
	OpSlt
	OpSltu
	OpXor
	OpOr
	OpAnd
	OpSra

	// pseudo instructions
	OpCall
	OpRet
	OpEcall
)

var opNames = [...]string{
	"lui", "auipc",
	"jal", "jalr",
	"beq", "bne", "blt", "bge", "bltu", "bgeu",
	"lb", "lh", "lw", "ld", "lbu", "lhu",
	"sb", "sh", "sw", "sd",
	"addi", "slti", "sltiu", "xori", "ori", "andi", "slli", "srli", "srai",
	"add", "mul", "sub", "sll", "srl", "slt", "sltu", "xor", "or", "and", "sra",
	"call", "ret", "ecall",
}

func (op Op) String() string {
	if int(op) < 0 || int(op) >= len(opNames) {
		return "?"
	}
	return opNames[op]
}

// AsmInstruction is one machine-IR instruction: an opcode plus up to three
// register operands, an immediate/offset, and the extra fields only certain
// opcodes use (Jal/branches carry the target's enclosing function name for
// textual "label+offset" emission and, until patched, a block index in Imm;
// Call carries the callee symbol and the IR instruction id that produced it,
// used to look up its caller-save set at patch time).
type AsmInstruction struct {
	Op       Op
	Rd       Rd
	Rs1, Rs2 Rd
	Imm      int64
	Label    string
	Sym      string
	CallSite ir.Register
}

// GetReads returns the operands inst reads.
func (inst AsmInstruction) GetReads() []Rd {
	switch inst.Op {
	case OpJalr:
		return []Rd{inst.Rs1}
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		return []Rd{inst.Rs1, inst.Rs2}
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu:
		return []Rd{inst.Rs1}
	case OpSb, OpSh, OpSw, OpSd:
		return []Rd{inst.Rs1, inst.Rs2}
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		return []Rd{inst.Rs1}
	case OpAdd, OpMul, OpSub, OpSll, OpSrl, OpSlt, OpSltu, OpXor, OpOr, OpAnd, OpSra:
		return []Rd{inst.Rs1, inst.Rs2}
	default:
		return nil
	}
}

// GetWrite returns the operand inst writes, or ok=false if it writes nothing.
func (inst AsmInstruction) GetWrite() (Rd, bool) {
	switch inst.Op {
	case OpLui, OpAuipc:
		return inst.Rd, true
	case OpJal, OpJalr:
		return inst.Rd, true
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu:
		return inst.Rd, true
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		return inst.Rd, true
	case OpAdd, OpMul, OpSub, OpSll, OpSrl, OpSlt, OpSltu, OpXor, OpOr, OpAnd, OpSra:
		return inst.Rd, true
	default:
		return Rd{}, false
	}
}

// IsTerminator reports whether inst ends a basic block (the last instruction
// selection emits for a terminator IR instruction).
func (inst AsmInstruction) IsTerminator() bool {
	switch inst.Op {
	case OpJal, OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu, OpRet:
		return true
	default:
		return false
	}
}
