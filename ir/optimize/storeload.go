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

// Package optimize implements the store/load elimination pass: load
// rewriting via constant-memory analysis, dead-store removal via Andersen
// points-to, move collapsing, and dead-definition removal. Run drives one
// iteration; callers (ir.FunctionBuilder.Create) loop it to a fixed point.
package optimize

import (
	"github.com/vanta-lang/riscvc/ir"
	"github.com/vanta-lang/riscvc/ir/analysis"
)

func init() {
	ir.RegisterStoreLoadPass(Run)
}

// Run performs one pass of the four store/load elimination steps over fn
// and reports whether anything changed.
func Run(fn *ir.Function) bool {
	changed := false
	if rewriteLoads(fn) {
		changed = true
	}
	if removeDeadStores(fn) {
		changed = true
	}
	if collapseMoves(fn) {
		changed = true
	}
	if removeDeadDefs(fn) {
		changed = true
	}
	return changed
}

// rewriteLoads replaces Ld(addr) with Mov(v) wherever the constant-memory
// analysis can prove addr currently holds the value last written by
// register v.
func rewriteLoads(fn *ir.Function) bool {
	cm := analysis.NewConstantMemoryAnalysis(fn)
	state := cm.Analyze()
	changed := false
	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instructions {
			inst := &fn.Blocks[bi].Instructions[ii]
			if inst.Op != ir.OpLd {
				continue
			}
			if v, ok := state[bi][ii][inst.Data.Reg].IsValue(); ok {
				inst.Op = ir.OpMov
				inst.Data = ir.Data{Reg: v}
				changed = true
			}
		}
	}
	return changed
}

// removeDeadStores drops St(a,_) instructions whose target cannot alias
// any cell a surviving Ld might read and is not itself volatile (
// §4.5 step 2).
func removeDeadStores(fn *ir.Function) bool {
	an := analysis.NewAndersenAnalysis(fn)

	readCells := map[analysis.Cell]struct{}{}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpLd {
				an.PointsTo(inst.Data.Reg).ForEach(func(c analysis.Cell) {
					readCells[c] = struct{}{}
				})
			}
		}
	}

	changed := false
	for bi := range fn.Blocks {
		kept := fn.Blocks[bi].Instructions[:0]
		for _, inst := range fn.Blocks[bi].Instructions {
			if inst.Op == ir.OpSt && storeIsDead(an, inst, readCells) {
				changed = true
				continue
			}
			kept = append(kept, inst)
		}
		fn.Blocks[bi].Instructions = kept
	}
	return changed
}

func storeIsDead(an *analysis.AndersenAnalysis, inst ir.Instruction, readCells map[analysis.Cell]struct{}) bool {
	pts := an.PointsTo(inst.Data.RegA)
	if pts.Contains(analysis.VolatileCell) {
		return false
	}
	dead := true
	pts.ForEach(func(c analysis.Cell) {
		if _, ok := readCells[c]; ok {
			dead = false
		}
	})
	return dead
}

// collapseMoves deletes every Mov dst=src instruction and substitutes dst
// with src (resolved through any chain of Movs) in every remaining
// instruction's operands.
func collapseMoves(fn *ir.Function) bool {
	rename := map[ir.Register]ir.Register{}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpMov {
				rename[inst.ID] = inst.Data.Reg
			}
		}
	}
	if len(rename) == 0 {
		return false
	}

	resolve := func(r ir.Register) ir.Register {
		visited := map[ir.Register]bool{}
		for {
			if visited[r] {
				return r
			}
			visited[r] = true
			next, ok := rename[r]
			if !ok {
				return r
			}
			r = next
		}
	}

	for bi := range fn.Blocks {
		kept := fn.Blocks[bi].Instructions[:0]
		for _, inst := range fn.Blocks[bi].Instructions {
			if inst.Op == ir.OpMov {
				continue
			}
			kept = append(kept, substituteRegisters(inst, resolve))
		}
		fn.Blocks[bi].Instructions = kept
	}
	return true
}

func substituteRegisters(inst ir.Instruction, resolve func(ir.Register) ir.Register) ir.Instruction {
	switch inst.Op {
	case ir.OpLd, ir.OpNeg, ir.OpRetr, ir.OpPrint, ir.OpBranch:
		inst.Data.Reg = resolve(inst.Data.Reg)
	case ir.OpSt:
		inst.Data.RegA = resolve(inst.Data.RegA)
		inst.Data.RegB = resolve(inst.Data.RegB)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod, ir.OpShr, ir.OpShl,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpEql:
		inst.Data.RegA = resolve(inst.Data.RegA)
		inst.Data.RegB = resolve(inst.Data.RegB)
	case ir.OpCpy, ir.OpGep:
		inst.Data.RegA = resolve(inst.Data.RegA)
		inst.Data.RegB = resolve(inst.Data.RegB)
	case ir.OpCallDirect, ir.OpSysCall, ir.OpCall, ir.OpPhi:
		regs := make([]ir.Register, len(inst.Data.Regs))
		for i, r := range inst.Data.Regs {
			regs[i] = resolve(r)
		}
		inst.Data.Regs = regs
	}
	return inst
}

// removeDeadDefs drops any non-void, non-terminator instruction whose
// register is read nowhere in the function.
func removeDeadDefs(fn *ir.Function) bool {
	used := map[ir.Register]struct{}{}
	for _, r := range fn.UsedRegisters() {
		used[r] = struct{}{}
	}

	changed := false
	for bi := range fn.Blocks {
		kept := fn.Blocks[bi].Instructions[:0]
		for _, inst := range fn.Blocks[bi].Instructions {
			if inst.Type != ir.Void && !inst.Op.Terminator() {
				if _, ok := used[inst.ID]; !ok {
					changed = true
					continue
				}
			}
			kept = append(kept, inst)
		}
		fn.Blocks[bi].Instructions = kept
	}
	return changed
}
