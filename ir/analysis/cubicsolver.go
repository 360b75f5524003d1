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

import "github.com/vanta-lang/riscvc/utils"

// CubicSolver is a cubic-time worklist solver for set-constraint systems
// over a universe of tokens T and variables V: token inclusion (t in
// sol(x)), subset edges (sol(x) <= sol(y)), and conditional implications
// (if t in sol(x) then sol(y) <= sol(z)). It is the engine behind Andersen
// points-to analysis.
type CubicSolver[T comparable, V comparable] struct {
	sol      map[V]*utils.Set[T]
	edges    map[V]*utils.Set[V]
	conds    map[V][]condition[T, V]
	worklist []workItem[T, V]
}

type condition[T comparable, V comparable] struct {
	token T
	y, z  V
}

type workItem[T comparable, V comparable] struct {
	token T
	v     V
}

// NewCubicSolver returns an empty solver.
func NewCubicSolver[T comparable, V comparable]() *CubicSolver[T, V] {
	return &CubicSolver[T, V]{
		sol:   make(map[V]*utils.Set[T]),
		edges: make(map[V]*utils.Set[V]),
		conds: make(map[V][]condition[T, V]),
	}
}

func (s *CubicSolver[T, V]) ensure(v V) *utils.Set[T] {
	if s.sol[v] == nil {
		s.sol[v] = utils.NewSet[T]()
	}
	return s.sol[v]
}

// AddToken asserts t ∈ sol(x).
func (s *CubicSolver[T, V]) AddToken(t T, x V) {
	if !s.ensure(x).Add(t) {
		return
	}
	s.worklist = append(s.worklist, workItem[T, V]{token: t, v: x})
}

// AddEdge asserts sol(x) ⊆ sol(y): every current and future token of x
// must also belong to y.
func (s *CubicSolver[T, V]) AddEdge(x, y V) {
	if s.edges[x] == nil {
		s.edges[x] = utils.NewSet[V]()
	}
	if !s.edges[x].Add(y) {
		return
	}
	if set := s.sol[x]; set != nil {
		set.ForEach(func(t T) { s.AddToken(t, y) })
	}
}

// AddCondition asserts: if t ∈ sol(x) then sol(y) ⊆ sol(z). If t is
// already in sol(x) the edge is installed immediately; otherwise it is
// deferred until t is added to sol(x).
func (s *CubicSolver[T, V]) AddCondition(t T, x, y, z V) {
	if set := s.sol[x]; set != nil && set.Contains(t) {
		s.AddEdge(y, z)
		return
	}
	s.conds[x] = append(s.conds[x], condition[T, V]{token: t, y: y, z: z})
}

// Propagate drains the worklist, following subset edges and firing
// conditional implications until fixed point.
func (s *CubicSolver[T, V]) Propagate() {
	for len(s.worklist) > 0 {
		item := s.worklist[len(s.worklist)-1]
		s.worklist = s.worklist[:len(s.worklist)-1]

		if set := s.edges[item.v]; set != nil {
			set.ForEach(func(y V) { s.AddToken(item.token, y) })
		}
		for _, c := range s.conds[item.v] {
			if c.token == item.token {
				s.AddEdge(c.y, c.z)
			}
		}
	}
}

// Includes reports whether t ∈ sol(x).
func (s *CubicSolver[T, V]) Includes(x V, t T) bool {
	set := s.sol[x]
	return set != nil && set.Contains(t)
}

// Solution returns the full solution set of x, never nil.
func (s *CubicSolver[T, V]) Solution(x V) *utils.Set[T] {
	return s.ensure(x)
}

// IncludesImplies reports whether t ∈ sol(x) and u ∈ sol(y) both hold in
// the current solution, without mutating solver state. It does not check
// that u reached y because of t; for a t not yet in sol(x) it returns
// false.
func (s *CubicSolver[T, V]) IncludesImplies(x V, t T, y V, u T) bool {
	if !s.Includes(x, t) {
		return false
	}
	return s.Includes(y, u)
}
