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
	"github.com/vanta-lang/riscvc/ir/analysis"
)

// ValueCellKind distinguishes the allocator's three possible decisions for a
// register.
type ValueCellKind int

const (
	CellRegister ValueCellKind = iota
	CellStackOffset
	CellValue
)

// ValueCell is the allocator's decision for one register: a physical
// register, a stack slot (read/written through a temp), or a compile-time
// constant offset (the "address of this stack slot" case for Alloca).
type ValueCell struct {
	Kind  ValueCellKind
	Phys  int   // CellRegister
	Value int64 // CellStackOffset or CellValue
}

// RegAllocator looks up where a register lives, which physical registers
// were in use (for caller-save) at a given instruction, and the final frame
// size.
type RegAllocator interface {
	GetLocation(r ir.Register) ValueCell
	GetUsed(instID ir.Register) []int
	GetStackSize() int64
}

// naiveAllocator is a first-fit-no-release allocator
// (original_source/backend/src/register_alloc.rs's NaiveAllocator): it
// binds every register to a physical register or stack slot for its entire
// lifetime once assigned, never releasing a physical register back to the
// pool. Kept here as documentation of the design space the LinearAllocator
// improves on; the pipeline never constructs one since registers must be
// released back to the pool once their liveness ends, which this type never
// does.
type naiveAllocator struct {
	freeowned []int
	registers map[ir.Register]ValueCell
	stackSize int64
}

// LinearAllocator is a single forward walk over program order that binds
// each non-void register to a physical register (while the pool has one free),
// a stack slot (once the pool is exhausted), or — for Alloca — a
// compile-time stack offset; physical registers are returned to the pool as
// soon as liveness analysis says the bound register is no longer live.
type LinearAllocator struct {
	fn        *ir.Function
	liveness  analysis.FunctionState[analysis.RegisterSet]
	freeowned []int
	used      []int // currently-held physical registers, in pop/push order

	registers map[ir.Register]ValueCell
	release   [][][]ir.Register // [block][inst] -> registers to free after this inst
	usedAt    map[ir.Register][]int
	stackSize int64
}

// NewLinearAllocator runs the allocator over fn, grounded on
// original_source/backend/src/register_alloc.rs's LinearAllocator.
// baseOffset is the first free byte in the frame: instruction selection
// may already have reserved stack space below it (saving ra across a call),
// so alloca and spill slots are laid out starting there rather than at 0.
func NewLinearAllocator(fn *ir.Function, baseOffset int64) *LinearAllocator {
	live := analysis.NewLiveRegisterAnalysis(fn).Analyze()

	release := make([][][]ir.Register, len(fn.Blocks))
	for bi, bb := range fn.Blocks {
		release[bi] = make([][]ir.Register, len(bb.Instructions))
	}

	a := &LinearAllocator{
		fn:        fn,
		liveness:  live,
		freeowned: append([]int{}, RegisterPool...),
		registers: make(map[ir.Register]ValueCell),
		release:   release,
		usedAt:    make(map[ir.Register][]int),
		stackSize: baseOffset,
	}
	a.allocate()
	return a
}

func (a *LinearAllocator) allocate() {
	for bi := range a.fn.Blocks {
		bb := &a.fn.Blocks[bi]
		for ii := range bb.Instructions {
			inst := &bb.Instructions[ii]
			switch inst.Op {
			case ir.OpAlloca, ir.OpAllocg:
				a.registers[inst.ID] = ValueCell{Kind: CellValue, Value: a.stackSize}
				a.stackSize += inst.Data.ImmI
			default:
				if inst.Type != ir.Void {
					a.allocateReg(inst.ID, bi, ii)
				}
			}
			a.release_(bi, ii)
		}
	}
}

func (a *LinearAllocator) allocateReg(reg ir.Register, bi, ii int) {
	if len(a.freeowned) == 0 {
		a.registers[reg] = ValueCell{Kind: CellStackOffset, Value: a.stackSize}
		a.stackSize += 8
		return
	}
	p := a.freeowned[len(a.freeowned)-1]
	a.freeowned = a.freeowned[:len(a.freeowned)-1]
	a.used = append(a.used, p)
	a.registers[reg] = ValueCell{Kind: CellRegister, Phys: p}
	a.usedAt[reg] = append([]int{}, a.used...)
	a.createRelease(reg, bi, ii)
}

// createRelease finds the last program point, scanning forward from reg's
// own definition, whose live-in set still contains reg, and
// schedules the release there. If reg is never live past its own
// definition, it releases immediately.
func (a *LinearAllocator) createRelease(reg ir.Register, bi, ii int) {
	place := [2]int{bi, ii}
	for b := bi; b < len(a.fn.Blocks); b++ {
		start := 0
		if b == bi {
			start = ii
		}
		for i := start; i < len(a.fn.Blocks[b].Instructions); i++ {
			if a.liveness[b][i].Contains(reg) {
				place = [2]int{b, i}
			}
		}
	}
	a.release[place[0]][place[1]] = append(a.release[place[0]][place[1]], reg)
}

func (a *LinearAllocator) release_(bi, ii int) {
	for _, reg := range a.release[bi][ii] {
		cell := a.GetLocation(reg)
		if cell.Kind != CellRegister {
			continue
		}
		for i, p := range a.used {
			if p == cell.Phys {
				a.used = append(a.used[:i], a.used[i+1:]...)
				break
			}
		}
		a.freeowned = append(a.freeowned, cell.Phys)
	}
}

func (a *LinearAllocator) GetLocation(r ir.Register) ValueCell { return a.registers[r] }

func (a *LinearAllocator) GetUsed(instID ir.Register) []int { return a.usedAt[instID] }

func (a *LinearAllocator) GetStackSize() int64 { return a.stackSize }
