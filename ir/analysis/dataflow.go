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
	"fmt"

	"github.com/vanta-lang/riscvc/ir"
)

// Direction is the analysis' propagation direction over the CFG.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// maxFixedPointIterations bounds the naive round-robin solver. Lattices
// here have small finite height, so this is generous headroom rather than
// a tuning knob; exceeding it indicates a non-monotone transfer function
// (a CompilerBug).
const maxFixedPointIterations = 10_000

// Analysis is a dataflow analysis over Function, with per-instruction
// state drawn from Inner and propagated in Dir.
type Analysis[A any] interface {
	Function() *ir.Function
	Inner() Lattice[A]
	Dir() Direction
	Transfer(inst ir.Instruction, in A) A
}

// before computes the value flowing into position (bi, ii) from its
// neighbors: backward analysis at a block's last
// instruction reads from the first instruction of each CFG successor;
// forward analysis at a block's first instruction reads from the last
// instruction of each predecessor; otherwise the adjacent instruction in
// the analysis' direction of travel.
func before[A any](fn *ir.Function, state FunctionState[A], inner Lattice[A], dir Direction, bi, ii int) A {
	bb := &fn.Blocks[bi]
	n := len(bb.Instructions)
	if dir == Forward {
		if ii == 0 {
			result := inner.Bot()
			for _, p := range bb.Predecessors {
				pn := len(fn.Blocks[p].Instructions)
				if pn == 0 {
					continue
				}
				result = inner.Lub(result, state[p][pn-1])
			}
			return result
		}
		return state[bi][ii-1]
	}

	if ii == n-1 {
		result := inner.Bot()
		for _, s := range bb.Successors() {
			sn := len(fn.Blocks[s].Instructions)
			if sn == 0 {
				continue
			}
			result = inner.Lub(result, state[s][0])
		}
		return result
	}
	return state[bi][ii+1]
}

// Analyze runs a's transfer function to a fixed point over a's function
// and returns the resulting per-position state, shaped [block][instruction].
func Analyze[A any](a Analysis[A]) FunctionState[A] {
	fn := a.Function()
	inner := a.Inner()
	shape := make([]int, len(fn.Blocks))
	for i, bb := range fn.Blocks {
		shape[i] = len(bb.Instructions)
	}
	fl := FunctionLattice[A]{Shape: shape, Inner: inner}
	state := fl.Bot()

	for iter := 0; ; iter++ {
		if iter > maxFixedPointIterations {
			panic(fmt.Sprintf("dataflow analysis on %q did not converge within %d iterations", fn.Name, maxFixedPointIterations))
		}
		next := fl.Bot()
		for i := range next {
			copy(next[i], state[i])
		}
		changed := false
		for bi := range fn.Blocks {
			bb := &fn.Blocks[bi]
			n := len(bb.Instructions)
			if a.Dir() == Forward {
				for ii := 0; ii < n; ii++ {
					in := before(fn, next, inner, Forward, bi, ii)
					out := a.Transfer(bb.Instructions[ii], in)
					if !inner.Equal(out, next[bi][ii]) {
						next[bi][ii] = out
						changed = true
					}
				}
			} else {
				for ii := n - 1; ii >= 0; ii-- {
					in := before(fn, next, inner, Backward, bi, ii)
					out := a.Transfer(bb.Instructions[ii], in)
					if !inner.Equal(out, next[bi][ii]) {
						next[bi][ii] = out
						changed = true
					}
				}
			}
		}
		state = next
		if !changed {
			return state
		}
	}
}
