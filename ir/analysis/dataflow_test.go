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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-lang/riscvc/ir"
)

// flatTestAnalysis adapts a plain transfer func into an Analysis[FlatElem[int]]
// over the flat lattice, for exercising Analyze directly.
type flatTestAnalysis struct {
	fn       *ir.Function
	dir      Direction
	transfer func(ir.Instruction, FlatElem[int]) FlatElem[int]
}

func (a *flatTestAnalysis) Function() *ir.Function       { return a.fn }
func (a *flatTestAnalysis) Inner() Lattice[FlatElem[int]] { return FlatLattice[int]{} }
func (a *flatTestAnalysis) Dir() Direction                { return a.dir }
func (a *flatTestAnalysis) Transfer(inst ir.Instruction, in FlatElem[int]) FlatElem[int] {
	return a.transfer(inst, in)
}

func TestAnalyzeForwardJoinsAtMergePoint(t *testing.T) {
	fn := &ir.Function{Blocks: []ir.BasicBlock{
		{Instructions: []ir.Instruction{{Op: ir.OpJmp, Data: ir.Data{ImmI: 1, JumpTarget: 2}}}},
		{Instructions: []ir.Instruction{{Op: ir.OpJmp, Data: ir.Data{ImmI: 2, JumpTarget: 2}}}},
		{Predecessors: []ir.BBIndex{0, 1}, Instructions: []ir.Instruction{{Op: ir.OpRet}}},
	}}

	a := &flatTestAnalysis{fn: fn, dir: Forward, transfer: func(inst ir.Instruction, in FlatElem[int]) FlatElem[int] {
		if inst.Op == ir.OpJmp {
			return Val(int(inst.Data.ImmI))
		}
		return in
	}}

	state := Analyze[FlatElem[int]](a)
	assert.Equal(t, Val(1), state[0][0])
	assert.Equal(t, Val(2), state[1][0])
	assert.True(t, state[2][0].IsTop(), "distinct predecessor values must join to top at the merge block")
}

func TestAnalyzeBackwardPropagatesFromTerminator(t *testing.T) {
	fn := &ir.Function{Blocks: []ir.BasicBlock{
		{Instructions: []ir.Instruction{{Op: ir.OpAdd}, {Op: ir.OpRet}}},
	}}

	a := &flatTestAnalysis{fn: fn, dir: Backward, transfer: func(inst ir.Instruction, in FlatElem[int]) FlatElem[int] {
		if inst.Op == ir.OpRet {
			return Val(9)
		}
		return in
	}}

	state := Analyze[FlatElem[int]](a)
	assert.Equal(t, Val(9), state[0][1])
	assert.Equal(t, Val(9), state[0][0], "a backward analysis must carry the terminator's value to every earlier instruction")
}

// neverEqualLattice always reports states as unequal, forcing Analyze's
// round-robin solver to never detect a fixed point.
type neverEqualLattice struct{}

func (neverEqualLattice) Bot() int            { return 0 }
func (neverEqualLattice) Top() int            { return 0 }
func (neverEqualLattice) Lub(a, b int) int    { return a + b }
func (neverEqualLattice) Equal(a, b int) bool { return false }

type nonConvergingAnalysis struct{ fn *ir.Function }

func (a *nonConvergingAnalysis) Function() *ir.Function { return a.fn }
func (a *nonConvergingAnalysis) Inner() Lattice[int]     { return neverEqualLattice{} }
func (a *nonConvergingAnalysis) Dir() Direction          { return Forward }
func (a *nonConvergingAnalysis) Transfer(inst ir.Instruction, in int) int {
	return in
}

func TestAnalyzePanicsOnNonConvergence(t *testing.T) {
	fn := &ir.Function{Blocks: []ir.BasicBlock{
		{Instructions: []ir.Instruction{{Op: ir.OpRet}}},
	}}
	a := &nonConvergingAnalysis{fn: fn}

	require.Panics(t, func() { Analyze[int](a) }, "a non-monotone transfer function must surface as a panic, not an infinite loop")
}
