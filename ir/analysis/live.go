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

package analysis

import (
	"github.com/vanta-lang/riscvc/ir"
	"github.com/vanta-lang/riscvc/utils"
)

// RegisterSet is a dense bitmap-backed set of registers over the fixed
// universe every register defined in one function forms. It plays the role
// the generic map-based Set[E] plays for other analyses, but register
// liveness is queried at every instruction of every block, so the dense
// utils.BitMap representation (fixed-size, word-parallel Unite) is worth
// the extra bookkeeping of an index table.
type RegisterSet struct {
	bm    *utils.BitMap
	index map[ir.Register]int
}

func (s RegisterSet) add(r ir.Register) {
	if i, ok := s.index[r]; ok {
		s.bm.Set(i)
	}
}

func (s RegisterSet) remove(r ir.Register) {
	if i, ok := s.index[r]; ok {
		s.bm.Reset(i)
	}
}

// Contains reports whether r is live in s.
func (s RegisterSet) Contains(r ir.Register) bool {
	i, ok := s.index[r]
	return ok && s.bm.IsSet(i)
}

func (s RegisterSet) clone() RegisterSet {
	return RegisterSet{bm: s.bm.Copy(), index: s.index}
}

func bitmapEqual(a, b *utils.BitMap) bool {
	if a.Size() != b.Size() {
		return false
	}
	for i := 0; i < a.Size(); i++ {
		if a.IsSet(i) != b.IsSet(i) {
			return false
		}
	}
	return true
}

// registerSetLattice is the Lattice[RegisterSet] implementation: bot is the
// empty bitmap, lub is bitwise union.
type registerSetLattice struct {
	index map[ir.Register]int
	size  int
}

func (l registerSetLattice) Bot() RegisterSet {
	return RegisterSet{bm: utils.NewBitMap(l.size), index: l.index}
}

func (l registerSetLattice) Top() RegisterSet {
	bm := utils.NewBitMap(l.size)
	for i := 0; i < l.size; i++ {
		bm.Set(i)
	}
	return RegisterSet{bm: bm, index: l.index}
}

func (registerSetLattice) Lub(a, b RegisterSet) RegisterSet {
	out := a.clone()
	out.bm.Unite(b.bm)
	return out
}

func (registerSetLattice) Equal(a, b RegisterSet) bool {
	return bitmapEqual(a.bm, b.bm)
}

// LiveRegisterAnalysis computes, at every instruction, the set of
// registers live immediately before it (its transfer applied to the set
// live after it). Direction Backward, universe is
// every register defined in the function.
type LiveRegisterAnalysis struct {
	fn      *ir.Function
	lattice registerSetLattice
}

// NewLiveRegisterAnalysis builds the analysis over fn.
func NewLiveRegisterAnalysis(fn *ir.Function) *LiveRegisterAnalysis {
	index := make(map[ir.Register]int)
	for bi, bb := range fn.Blocks {
		for ii, inst := range bb.Instructions {
			if inst.Type != ir.Void {
				index[ir.Register{Global: inst.ID.Global, Block: bi, Index: ii}] = len(index)
			}
		}
	}
	return &LiveRegisterAnalysis{fn: fn, lattice: registerSetLattice{index: index, size: len(index)}}
}

func (a *LiveRegisterAnalysis) Function() *ir.Function     { return a.fn }
func (a *LiveRegisterAnalysis) Inner() Lattice[RegisterSet] { return a.lattice }
func (a *LiveRegisterAnalysis) Dir() Direction              { return Backward }

// Transfer implements: Ret/Exit -> bot; Retr(r) -> {r}; otherwise
// (in \ {defined register}) U reads(inst).
func (a *LiveRegisterAnalysis) Transfer(inst ir.Instruction, in RegisterSet) RegisterSet {
	switch inst.Op {
	case ir.OpRet, ir.OpExit:
		return a.lattice.Bot()
	case ir.OpRetr:
		out := a.lattice.Bot()
		out.add(inst.Data.Reg)
		return out
	default:
		out := in.clone()
		if inst.Type != ir.Void {
			out.remove(inst.ID)
		}
		for _, r := range ir.ReadRegisters(inst) {
			out.add(r)
		}
		return out
	}
}

// Analyze runs the fixed point and returns the live-in set at every
// instruction position, shaped [block][instruction].
func (a *LiveRegisterAnalysis) Analyze() FunctionState[RegisterSet] {
	return Analyze[RegisterSet](a)
}
