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
	"github.com/vanta-lang/riscvc/ir"
	"github.com/vanta-lang/riscvc/utils"
)

// Offset is a byte offset into a function's stack frame.
type Offset = int64

// funcBuilder accumulates one function's machine basic blocks during
// instruction selection, then drives peephole rewriting, register
// allocation and post-allocation materialization to produce the final
// AsmFunction.
type funcBuilder struct {
	name      string
	stacksize int64
	blocks    []AsmBasicBlock
	freetemp  []int
	irFunc    *ir.Function
}

func newFuncBuilder(name string, fn *ir.Function) *funcBuilder {
	return &funcBuilder{
		name:     name,
		freetemp: append([]int{}, TempPool...),
		irFunc:   fn,
	}
}

func (b *funcBuilder) createBlock() int {
	b.blocks = append(b.blocks, AsmBasicBlock{})
	return len(b.blocks) - 1
}

func (b *funcBuilder) emit(inst AsmInstruction) {
	last := &b.blocks[len(b.blocks)-1]
	last.Instructions = append(last.Instructions, inst)
}

// forceStore spills reg to a freshly allocated stack slot unconditionally
// (used to save ra across a call, since the allocator never assigns ra a
// cell of its own).
func (b *funcBuilder) forceStore(reg Rd) Offset {
	offset := b.stacksize
	b.stacksize += 8
	b.emit(AsmInstruction{Op: OpSd, Rs1: reg, Rs2: Sp, Imm: offset})
	return offset
}

func (b *funcBuilder) releaseTemps() {
	b.freetemp = append([]int{}, TempPool...)
}

// selectFunction runs instruction selection over every IR instruction of fn
// in program order, materializing one machine block per IR block. Blocks
// are created and filled one at a time so b.emit — which always appends to
// the most recently created block — lands each instruction in the right
// place.
func selectFunction(name string, fn *ir.Function) (*funcBuilder, error) {
	b := newFuncBuilder(name, fn)
	for bi := range fn.Blocks {
		b.createBlock()
		for _, inst := range fn.Blocks[bi].Instructions {
			if err := selectInstruction(inst, b); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func runPeephole(blocks []AsmBasicBlock, ph *PeepHoler) []AsmBasicBlock {
	for {
		changed := false
		for i := range blocks {
			changed = ph.PassBasicBlock(&blocks[i], 2) || changed
		}
		changed = removeUnused(blocks) || changed
		if !changed {
			break
		}
	}
	return blocks
}

func usedOperands(blocks []AsmBasicBlock) map[Rd]bool {
	used := make(map[Rd]bool)
	for _, bb := range blocks {
		for _, inst := range bb.Instructions {
			for _, r := range inst.GetReads() {
				used[r] = true
			}
		}
	}
	return used
}

func removeUnused(blocks []AsmBasicBlock) bool {
	changed := false
	for {
		used := usedOperands(blocks)
		again := false
		for bi := range blocks {
			bb := &blocks[bi]
			kept := bb.Instructions[:0]
			for _, inst := range bb.Instructions {
				if wr, ok := inst.GetWrite(); ok && wr.Kind == RdIr && !used[wr] {
					again = true
					continue
				}
				kept = append(kept, inst)
			}
			bb.Instructions = kept
		}
		changed = changed || again
		if !again {
			break
		}
	}
	return changed
}

// replaceOperand resolves an Rd into its final architectural-register form,
// returning instructions to run before (to load a spilled value) and after
// (to store a spilled result) the instruction that uses it.
func replaceOperand(alloc RegAllocator, r Rd, load bool, temps *[]int) (before []AsmInstruction, resolved Rd, after []AsmInstruction) {
	if r.Kind != RdIr {
		return nil, r, nil
	}
	cell := alloc.GetLocation(r.Ir)
	switch cell.Kind {
	case CellRegister:
		return nil, Arch(cell.Phys), nil
	case CellStackOffset:
		target := (*temps)[len(*temps)-1]
		*temps = (*temps)[:len(*temps)-1]
		if load {
			return []AsmInstruction{{Op: OpLd, Rd: Arch(target), Rs1: Sp, Imm: cell.Value}}, Arch(target), nil
		}
		return nil, Arch(target), []AsmInstruction{{Op: OpSd, Rs1: Arch(target), Rs2: Sp, Imm: cell.Value}}
	case CellValue:
		if !load {
			panic("codegen: write to a Value cell")
		}
		target := (*temps)[len(*temps)-1]
		*temps = (*temps)[:len(*temps)-1]
		return []AsmInstruction{{Op: OpAddi, Rd: Arch(target), Rs1: Sp, Imm: cell.Value}}, Arch(target), nil
	}
	panic("codegen: unreachable ValueCell kind")
}

// patchInstruction rewrites inst's pseudo-register operands into
// architectural registers (or temp-mediated loads/stores around it),
// inserts caller-save spills around Call sites into the fixed scratch
// region starting at stacksize, and appends the result to block.
func patchInstruction(alloc RegAllocator, inst AsmInstruction, block *[]AsmInstruction, stacksize Offset) {
	temps := append([]int{}, TempPool...)

	if isMemOp(inst.Op) {
		base := &inst.Rs1
		switch inst.Op {
		case OpSb, OpSh, OpSw, OpSd:
			base = &inst.Rs2
		}
		if base.Kind == RdIr {
			if cell := alloc.GetLocation(base.Ir); cell.Kind == CellValue {
				*base = Sp
				inst.Imm += cell.Value
			}
		}
	}

	var before, after []AsmInstruction
	var loadRegs []Rd
	for _, r := range inst.GetReads() {
		b, resolved, a := replaceOperand(alloc, r, true, &temps)
		before = append(before, b...)
		after = append(after, a...)
		loadRegs = append(loadRegs, resolved)
	}
	var writeRegs []Rd
	if wr, ok := inst.GetWrite(); ok {
		b, resolved, a := replaceOperand(alloc, wr, false, &temps)
		before = append(before, b...)
		after = append(a, after...)
		writeRegs = append(writeRegs, resolved)
	}

	switch inst.Op {
	case OpJal:
		inst.Rd = pick(writeRegs, 0, Zero)
	case OpJalr:
		inst.Rd = pick(writeRegs, 0, Zero)
		inst.Rs1 = pick(loadRegs, 0, Zero)
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		inst.Rs1 = pick(loadRegs, 0, Zero)
		inst.Rs2 = pick(loadRegs, 1, Zero)
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		inst.Rd = pick(writeRegs, 0, Zero)
		inst.Rs1 = pick(loadRegs, 0, Zero)
	case OpAdd, OpMul, OpSub, OpSll, OpSrl, OpSlt, OpSltu, OpXor, OpOr, OpAnd, OpSra:
		inst.Rd = pick(writeRegs, 0, Zero)
		inst.Rs1 = pick(loadRegs, 0, Zero)
		inst.Rs2 = pick(loadRegs, 1, Zero)
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu:
		inst.Rd = pick(writeRegs, 0, Zero)
		inst.Rs1 = pick(loadRegs, 0, Zero)
	case OpSb, OpSh, OpSw, OpSd:
		inst.Rs1 = pick(loadRegs, 0, Zero)
		inst.Rs2 = pick(loadRegs, 1, Zero)
	}

	if inst.Op == OpCall {
		var spillOffset Offset
		for _, phys := range alloc.GetUsed(inst.CallSite) {
			before = append(before, AsmInstruction{Op: OpSd, Rs1: Arch(phys), Rs2: Sp, Imm: stacksize + spillOffset})
			after = append([]AsmInstruction{{Op: OpLd, Rd: Arch(phys), Rs1: Sp, Imm: stacksize + spillOffset}}, after...)
			spillOffset += 8
		}
	}

	*block = append(*block, before...)
	*block = append(*block, inst)
	*block = append(*block, after...)
}

func pick(regs []Rd, i int, fallback Rd) Rd {
	if i < len(regs) {
		return regs[i]
	}
	return fallback
}

func isMemOp(op Op) bool {
	switch op {
	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu, OpSb, OpSh, OpSw, OpSd:
		return true
	default:
		return false
	}
}

func patchRegisters(alloc RegAllocator, block AsmBasicBlock, stacksize Offset) AsmBasicBlock {
	var result []AsmInstruction
	for _, inst := range block.Instructions {
		patchInstruction(alloc, inst, &result, stacksize)
	}
	return AsmBasicBlock{Instructions: result}
}

// callerSaveScratchSize computes the fixed scratch region every Call site's
// caller-save sequence shares: the largest caller-save set seen at any
// single Call site, times 8 bytes. A pre-pass over Call sites sizes this
// once, rather than patching registers first and growing the frame to fit
// afterward — the two approaches agree on every individual call (only one
// call executes at a time in a basic block, so sites can share the region),
// but sizing it up front avoids a second stack-layout pass.
func callerSaveScratchSize(alloc RegAllocator, blocks []AsmBasicBlock) Offset {
	var maxUsed int
	for _, bb := range blocks {
		for _, inst := range bb.Instructions {
			if inst.Op != OpCall {
				continue
			}
			if n := len(alloc.GetUsed(inst.CallSite)); n > maxUsed {
				maxUsed = n
			}
		}
	}
	return Offset(maxUsed) * 8
}

func addEpilogue(block AsmBasicBlock, stacksize int64) AsmBasicBlock {
	n := len(block.Instructions)
	if n > 0 && block.Instructions[n-1].Op == OpRet {
		block.Instructions = block.Instructions[:n-1]
		block.Instructions = append(block.Instructions,
			AsmInstruction{Op: OpAddi, Rd: Sp, Rs1: Sp, Imm: stacksize},
			AsmInstruction{Op: OpRet},
		)
	}
	return block
}

func bbSize(block AsmBasicBlock) int {
	return len(block.Instructions) * 4
}

// isBranchLike reports whether inst carries a not-yet-patched block index
// in Imm that patchJumps must rewrite to a byte offset.
func isBranchLike(op Op) bool {
	switch op {
	case OpJal, OpJalr, OpBeq, OpBlt, OpBge, OpBne, OpBltu, OpBgeu:
		return true
	default:
		return false
	}
}

// patchJumps rewrites every branch/jump's block-index operand into the
// byte offset of that block's first instruction, measured from the start
// of the function. This mirrors the reference compiler's patch step
// exactly: the encoded value is the target's absolute start offset, not a
// delta from the branch's own position — textual emission later composes
// it with the function label (`name+offset`), and the assembler resolves
// the final PC-relative encoding.
func patchJumps(offsets []int, block AsmBasicBlock) AsmBasicBlock {
	n := len(block.Instructions)
	if n == 0 {
		return block
	}
	last := &block.Instructions[n-1]
	if isBranchLike(last.Op) {
		last.Imm = int64(offsets[int(last.Imm)])
	}
	return block
}

// Build runs the full post-selection pipeline and produces the final
// AsmFunction: peephole to fixed point, linear-scan allocation, operand
// patching, epilogues, a prologue, and branch offset patching.
func (b *funcBuilder) Build(ph *PeepHoler) AsmFunction {
	blocks := runPeephole(b.blocks, ph)

	alloc := NewLinearAllocator(b.irFunc, b.stacksize)
	scratchBase := alloc.GetStackSize()
	stacksize := Offset(utils.AlignTo(int(scratchBase+callerSaveScratchSize(alloc, blocks)), StackAlign))

	patched := make([]AsmBasicBlock, len(blocks))
	for i, blk := range blocks {
		patched[i] = patchRegisters(alloc, blk, scratchBase)
	}

	for i := range patched {
		patched[i] = addEpilogue(patched[i], stacksize)
	}

	if len(patched) > 0 {
		first := &patched[0]
		first.Instructions = utils.InsertAt(first.Instructions, 0, AsmInstruction{Op: OpAddi, Rd: Sp, Rs1: Sp, Imm: -stacksize})
	}

	offsets := make([]int, len(patched))
	acc := 0
	for i, blk := range patched {
		offsets[i] = acc
		acc += bbSize(blk)
	}

	for i := range patched {
		patched[i] = patchJumps(offsets, patched[i])
	}

	return AsmFunction{Name: b.name, Blocks: patched}
}

// CompileFunction runs instruction selection and the full post-selection
// pipeline for one IR function, producing its final machine form.
func CompileFunction(name string, fn *ir.Function) (AsmFunction, error) {
	b, err := selectFunction(name, fn)
	if err != nil {
		return AsmFunction{}, err
	}
	return b.Build(NewPeepHoler(MockDatabase{})), nil
}
