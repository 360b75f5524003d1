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
)

func TestCubicSolverAddTokenAndIncludes(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddToken("t1", "x")

	assert.True(t, s.Includes("x", "t1"))
	assert.False(t, s.Includes("x", "t2"))
	assert.False(t, s.Includes("y", "t1"))
}

func TestCubicSolverSolutionNeverNil(t *testing.T) {
	s := NewCubicSolver[string, string]()
	sol := s.Solution("untouched")
	assert.NotNil(t, sol)
	assert.False(t, sol.Contains("anything"))
}

func TestCubicSolverAddEdgePropagatesExistingTokensImmediately(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddToken("t", "a")
	s.AddEdge("a", "b")

	assert.True(t, s.Includes("b", "t"), "AddEdge must push a's current tokens into b without a separate Propagate")
}

func TestCubicSolverPropagateDrainsWorklistAlongEdges(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddEdge("a", "b")
	s.AddToken("t", "a")

	assert.False(t, s.Includes("b", "t"), "a token queued on the worklist must not appear downstream before Propagate runs")
	s.Propagate()
	assert.True(t, s.Includes("b", "t"))
}

func TestCubicSolverAddConditionDeferredUntilTokenArrives(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddToken("u", "y")
	s.AddCondition("t", "x", "y", "z")

	assert.False(t, s.Includes("z", "u"), "the implication must not fire before its guard token is asserted")

	s.AddToken("t", "x")
	s.Propagate()
	assert.True(t, s.Includes("z", "u"), "once t enters sol(x), sol(y) must flow into sol(z)")
}

func TestCubicSolverAddConditionFiresImmediatelyWhenGuardAlreadyHolds(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddToken("t", "x")
	s.AddToken("u", "y")

	s.AddCondition("t", "x", "y", "z")
	assert.True(t, s.Includes("z", "u"), "a guard already satisfied must install the edge without waiting for Propagate")
}

func TestCubicSolverIncludesImplies(t *testing.T) {
	s := NewCubicSolver[string, string]()
	s.AddToken("t", "x")
	s.AddToken("u", "y")

	assert.True(t, s.IncludesImplies("x", "t", "y", "u"))
	assert.False(t, s.IncludesImplies("x", "v", "y", "u"))
	assert.False(t, s.IncludesImplies("x", "t", "y", "v"))
}
