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

// Cell is an abstract memory location, identified by the program point of
// the Alloca/Allocg that produced it, or the distinguished Volatile
// sentinel used for imprecise (indirect, escaped, or unknown) memory.
type Cell struct {
	volatile bool
	point    ir.Register
}

// CellOf returns the cell allocated at program point p.
func CellOf(p ir.Register) Cell { return Cell{point: p} }

// VolatileCell is the sentinel cell standing in for "any memory this
// analysis cannot precisely track".
var VolatileCell = Cell{volatile: true}

// IsVolatile reports whether c is the volatile sentinel.
func (c Cell) IsVolatile() bool { return c.volatile }

// Point returns the allocating instruction's register (meaningless if
// IsVolatile is true).
func (c Cell) Point() ir.Register { return c.point }

// variable is the CubicSolver's "location" type: either a register
// (sol(reg) = the set of cells the register may point to) or the
// synthetic "contents of cell c" location (sol(cellVar(c)) = the set of
// cells any pointer stored into c may point to).
type variable struct {
	isCell bool
	reg    ir.Register
	cell   Cell
}

func regVar(r ir.Register) variable   { return variable{reg: r} }
func cellVar(c Cell) variable          { return variable{isCell: true, cell: c} }

// AndersenAnalysis computes, for every register, the set of Cells it may
// point to, via a cubic set-constraint solver.
type AndersenAnalysis struct {
	fn     *ir.Function
	solver *CubicSolver[Cell, variable]
	cells  []Cell
}

// NewAndersenAnalysis builds and runs Andersen's analysis over fn.
func NewAndersenAnalysis(fn *ir.Function) *AndersenAnalysis {
	a := &AndersenAnalysis{fn: fn, solver: NewCubicSolver[Cell, variable]()}
	a.collectCells()
	// The volatile cell's contents are, conservatively, volatile too: any
	// load through a volatile pointer yields another volatile pointer.
	a.solver.AddToken(VolatileCell, cellVar(VolatileCell))
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			a.constrain(inst)
		}
	}
	a.solver.Propagate()
	return a
}

func (a *AndersenAnalysis) collectCells() {
	a.cells = append(a.cells, VolatileCell)
	for _, bb := range a.fn.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpAlloca || inst.Op == ir.OpAllocg {
				a.cells = append(a.cells, CellOf(inst.ID))
			}
		}
	}
}

func (a *AndersenAnalysis) constrain(inst ir.Instruction) {
	switch inst.Op {
	case ir.OpAlloca, ir.OpAllocg:
		a.solver.AddToken(CellOf(inst.ID), regVar(inst.ID))
	case ir.OpMov:
		a.solver.AddEdge(regVar(inst.Data.Reg), regVar(inst.ID))
	case ir.OpLd:
		addr := inst.Data.Reg
		for _, c := range a.cells {
			a.solver.AddCondition(c, regVar(addr), cellVar(c), regVar(inst.ID))
		}
	case ir.OpSt:
		addr, val := inst.Data.RegA, inst.Data.RegB
		for _, c := range a.cells {
			a.solver.AddCondition(c, regVar(addr), regVar(val), cellVar(c))
		}
	case ir.OpCallDirect, ir.OpSysCall, ir.OpCall:
		// A callee may write an unknown pointer through any address it
		// is handed: every cell any argument may point to becomes
		// volatile.
		volatileSource := variable{reg: ir.Register{Block: -1, Index: -1}}
		a.solver.AddToken(VolatileCell, volatileSource)
		for _, arg := range inst.Data.Regs {
			for _, c := range a.cells {
				a.solver.AddCondition(c, regVar(arg), volatileSource, cellVar(c))
			}
		}
	}
}

// PointsTo returns the set of cells r may point to.
func (a *AndersenAnalysis) PointsTo(r ir.Register) *utils.Set[Cell] {
	return a.solver.Solution(regVar(r))
}

// Disjoint reports whether x and y's points-to sets share no cell and
// neither contains the volatile sentinel. The store/load pass does not call
// it; its dead-store step checks a store's points-to set against the cells
// loads read (storeIsDead).
func (a *AndersenAnalysis) Disjoint(x, y ir.Register) bool {
	px, py := a.PointsTo(x), a.PointsTo(y)
	if px.Contains(VolatileCell) || py.Contains(VolatileCell) {
		return false
	}
	disjoint := true
	px.ForEach(func(c Cell) {
		if py.Contains(c) {
			disjoint = false
		}
	})
	return disjoint
}
