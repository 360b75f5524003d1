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

// Package ir defines the typed three-address IR: registers, instructions,
// basic blocks, functions and programs. The IR is SSA by construction —
// every non-void instruction defines exactly one register, its own
// identifier.
package ir

import "fmt"

// Register identifies an instruction, and by extension the value it
// defines. Global is true when the instruction belongs to the program's
// global initialization function rather than a user function; Block and
// Index locate it within that function's basic block list.
type Register struct {
	Global bool
	Block  int
	Index  int
}

func (r Register) String() string {
	if r.Global {
		return fmt.Sprintf("g(%d,%d)", r.Block, r.Index)
	}
	return fmt.Sprintf("(%d,%d)", r.Block, r.Index)
}

// Less gives a total order over registers: locals before globals, then by
// block, then by index.
func (r Register) Less(o Register) bool {
	if r.Global != o.Global {
		return o.Global
	}
	if r.Block != o.Block {
		return r.Block < o.Block
	}
	return r.Index < o.Index
}

// RegType is the result type of an instruction.
type RegType int

const (
	Void RegType = iota
	Int
	Char
)

func (t RegType) String() string {
	switch t {
	case Void:
		return "void"
	case Int:
		return "int"
	case Char:
		return "char"
	default:
		return "?"
	}
}

// Symbol names a callable function.
type Symbol = string

// BBIndex is the index of a basic block within a function's block list.
type BBIndex = int

// Opcode is the closed set of instruction variants.
type Opcode int

const (
	OpLdi Opcode = iota
	OpLdc
	OpLd
	OpSt
	OpAlloca
	OpAllocg
	OpCpy
	OpGep
	OpMov
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShr
	OpShl
	OpAnd
	OpOr
	OpXor
	OpNeg
	OpLt
	OpLe
	OpGt
	OpGe
	OpEql
	OpCall
	OpCallDirect
	OpSysCall
	OpArg
	OpRet
	OpRetr
	OpJmp
	OpBranch
	OpPrint
	OpPhi
	OpExit
)

var opcodeNames = [...]string{
	"ldi", "ldc", "ld", "st", "alloca", "allocg", "cpy", "gep", "mov",
	"add", "sub", "mul", "div", "mod", "shr", "shl",
	"and", "or", "xor", "neg",
	"lt", "le", "gt", "ge", "eql",
	"call", "calldirect", "syscall", "arg",
	"ret", "retr", "jmp", "branch",
	"print", "phi", "exit",
}

func (op Opcode) String() string {
	if int(op) < 0 || int(op) >= len(opcodeNames) {
		return "?"
	}
	return opcodeNames[op]
}

// Terminator reports whether op ends a basic block.
func (op Opcode) Terminator() bool {
	switch op {
	case OpRet, OpRetr, OpJmp, OpBranch, OpExit:
		return true
	default:
		return false
	}
}

// Data carries an instruction's operands. Exactly the fields relevant to
// Op are populated; the rest are left zero. This mirrors the Rust
// original's per-opcode tuple-struct operands (ImmI, Reg, RegReg, ...)
// collapsed into one Go struct for simplicity, matching how instruction
// selection and the analyses only ever switch on Op before touching
// fields.
type Data struct {
	ImmI int64  // Ldi, Alloca, Allocg, Arg, SysCall number
	ImmC rune   // Ldc
	Sym  Symbol // CallDirect, SysCall symbol (unused for SysCall today)

	Reg  Register   // Ld, Mov, Neg, Retr, Print, Branch condition
	Regs []Register // CallDirect/Call/SysCall/Phi argument list

	RegA, RegB Register // St(addr,val); binary ops; Cpy/Gep base+index
	Imm        int64    // Cpy/Gep byte offset

	JumpTarget             BBIndex // Jmp
	BranchTrue, BranchFalse BBIndex // Branch
}

// Instruction is one IR instruction: an identity, a result type, optional
// AST provenance, and an opcode-tagged operand payload.
type Instruction struct {
	ID      Register
	Type    RegType
	AstData any // opaque provenance from the (out-of-scope) front-end
	Op      Opcode
	Data    Data
}

// BasicBlock is a straight-line instruction sequence with an explicit
// predecessor list (filled in by the builder, not inferred).
type BasicBlock struct {
	Predecessors []BBIndex
	Instructions []Instruction
}

// AddPredecessor records pred as a predecessor of b.
func (b *BasicBlock) AddPredecessor(pred BBIndex) {
	b.Predecessors = append(b.Predecessors, pred)
}

// Successors returns the block indices this block's terminator can
// transfer control to, or nil if the block is empty or not terminated.
func (b *BasicBlock) Successors() []BBIndex {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	switch last.Op {
	case OpJmp:
		return []BBIndex{last.Data.JumpTarget}
	case OpBranch:
		return []BBIndex{last.Data.BranchTrue, last.Data.BranchFalse}
	default:
		return nil
	}
}

// Terminated reports whether b's last instruction is a terminator.
func (b *BasicBlock) Terminated() bool {
	if len(b.Instructions) == 0 {
		return false
	}
	return b.Instructions[len(b.Instructions)-1].Op.Terminator()
}

// UsedRegisters returns every register read by any instruction in b, in
// block order (duplicates allowed — callers that need a set build one).
func (b *BasicBlock) UsedRegisters() []Register {
	var out []Register
	for _, inst := range b.Instructions {
		out = append(out, ReadRegisters(inst)...)
	}
	return out
}

// Function is a named sequence of basic blocks.
type Function struct {
	Name     string
	ArgCount int
	RetType  RegType
	Blocks   []BasicBlock
}

// Start returns the entry block.
func (f *Function) Start() *BasicBlock {
	return &f.Blocks[0]
}

// UsedRegisters returns every register read anywhere in f.
func (f *Function) UsedRegisters() []Register {
	var out []Register
	for i := range f.Blocks {
		out = append(out, f.Blocks[i].UsedRegisters()...)
	}
	return out
}

// IrProgram is the whole compilation unit: a global initialization
// function plus every user function, keyed by name.
type IrProgram struct {
	Glob  Function
	Funcs map[string]Function
}

// SortedFuncNames returns Funcs's keys in lexicographic order, which the
// emitter and every other deterministic-iteration consumer must use to
// keep output stable across runs.
func (p *IrProgram) SortedFuncNames() []string {
	names := make([]string, 0, len(p.Funcs))
	for name := range p.Funcs {
		names = append(names, name)
	}
	// insertion sort is fine: function counts are small and this keeps
	// the dependency surface on the standard library minimal here.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

// ReadRegisters returns the registers read by inst — the shared helper
// used by liveness, the cubic-solver constraint emitters, and dead-code
// elimination.
func ReadRegisters(inst Instruction) []Register {
	switch inst.Op {
	case OpLd, OpNeg, OpMov, OpRetr, OpPrint:
		return []Register{inst.Data.Reg}
	case OpSt:
		return []Register{inst.Data.RegA, inst.Data.RegB}
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShr, OpShl,
		OpAnd, OpOr, OpXor, OpLt, OpLe, OpGt, OpGe, OpEql:
		return []Register{inst.Data.RegA, inst.Data.RegB}
	case OpCpy, OpGep:
		return []Register{inst.Data.RegA, inst.Data.RegB}
	case OpCallDirect, OpSysCall, OpCall, OpPhi:
		return append([]Register{}, inst.Data.Regs...)
	case OpBranch:
		return []Register{inst.Data.Reg}
	default:
		return nil
	}
}
