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

import "github.com/vanta-lang/riscvc/ir"

// MemoryPlace is a register holding an address, used as a key into the
// constant-memory analysis' map lattice.
type MemoryPlace = ir.Register

// ConstMemState maps every tracked memory place to a FlatElem naming the
// register whose value was last known to be stored there.
type ConstMemState = MapState[MemoryPlace, FlatElem[ir.Register]]

// ConstantMemoryAnalysis tracks, per program point, which memory places
// are known to currently hold the value last written by some specific
// register (direction Forward).
type ConstantMemoryAnalysis struct {
	fn      *ir.Function
	places  []MemoryPlace
	lattice MapLattice[MemoryPlace, FlatElem[ir.Register]]
}

// NewConstantMemoryAnalysis builds the analysis over fn. The tracked
// places are the address registers of every Ld and St in fn; a call
// invalidates every argument register that is also a tracked place.
func NewConstantMemoryAnalysis(fn *ir.Function) *ConstantMemoryAnalysis {
	seen := map[MemoryPlace]struct{}{}
	var places []MemoryPlace
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			var p MemoryPlace
			switch inst.Op {
			case ir.OpLd:
				p = inst.Data.Reg
			case ir.OpSt:
				p = inst.Data.RegA
			default:
				continue
			}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				places = append(places, p)
			}
		}
	}
	inner := FlatLattice[ir.Register]{}
	return &ConstantMemoryAnalysis{
		fn:      fn,
		places:  places,
		lattice: MapLattice[MemoryPlace, FlatElem[ir.Register]]{Keys: places, Inner: inner},
	}
}

func (a *ConstantMemoryAnalysis) Function() *ir.Function                       { return a.fn }
func (a *ConstantMemoryAnalysis) Inner() Lattice[ConstMemState]                { return a.lattice }
func (a *ConstantMemoryAnalysis) Dir() Direction                               { return Forward }

func (a *ConstantMemoryAnalysis) isEntryFirst(inst ir.Instruction) bool {
	return inst.ID.Block == 0 && inst.ID.Index == 0
}

// Transfer: St(addr,val) writes Value(val) at addr
// and conservatively invalidates every other tracked place to Top (no
// alias information is available at this layer); CallDirect and SysCall
// invalidate every argument register that is itself a tracked place; the entry
// block's first instruction resets to bot; otherwise the state is
// unchanged.
func (a *ConstantMemoryAnalysis) Transfer(inst ir.Instruction, in ConstMemState) ConstMemState {
	if a.isEntryFirst(inst) {
		return a.lattice.Bot()
	}

	switch inst.Op {
	case ir.OpSt:
		out := make(ConstMemState, len(in))
		for _, p := range a.places {
			if p == inst.Data.RegA {
				out[p] = Val(inst.Data.RegB)
			} else {
				out[p] = Top[ir.Register]()
			}
		}
		return out
	case ir.OpCallDirect, ir.OpSysCall:
		out := make(ConstMemState, len(in))
		invalid := make(map[MemoryPlace]struct{}, len(inst.Data.Regs))
		for _, r := range inst.Data.Regs {
			invalid[r] = struct{}{}
		}
		for _, p := range a.places {
			if _, ok := invalid[p]; ok {
				out[p] = Top[ir.Register]()
			} else {
				out[p] = in[p]
			}
		}
		return out
	default:
		return in
	}
}

// Analyze runs the fixed point.
func (a *ConstantMemoryAnalysis) Analyze() FunctionState[ConstMemState] {
	return Analyze[ConstMemState](a)
}
