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

func TestFlatLatticeLubProperties(t *testing.T) {
	l := FlatLattice[int]{}
	bot := l.Bot()
	top := l.Top()
	v1 := Val(1)
	v2 := Val(2)

	assert.True(t, l.Equal(l.Lub(bot, v1), v1), "bot must be the identity for Lub")
	assert.True(t, l.Equal(l.Lub(v1, v1), v1), "Lub must be idempotent")
	assert.True(t, l.Equal(l.Lub(v1, v2), l.Lub(v2, v1)), "Lub must be commutative")
	assert.True(t, l.Equal(l.Lub(v1, v2), top), "joining distinct values reaches top")
	assert.True(t, l.Equal(l.Lub(top, v1), top), "top absorbs everything")

	got, ok := v1.IsValue()
	assert.True(t, ok)
	assert.Equal(t, 1, got)
	assert.True(t, top.IsTop())
	assert.True(t, bot.IsBot())
}

func TestPowerSetLatticeUnionAndTop(t *testing.T) {
	l := PowerSetLattice[string]{Universe: []string{"a", "b", "c"}}
	a := NewSet("a")
	b := NewSet("b")

	union := l.Lub(a, b)
	assert.True(t, union.Contains("a"))
	assert.True(t, union.Contains("b"))
	assert.False(t, union.Contains("c"))
	assert.True(t, l.Equal(l.Lub(a, a), a), "Lub must be idempotent")

	top := l.Top()
	assert.True(t, top.Contains("a"))
	assert.True(t, top.Contains("b"))
	assert.True(t, top.Contains("c"))

	clone := a.Clone()
	clone["z"] = struct{}{}
	assert.False(t, a.Contains("z"), "Clone must not alias the original set's backing map")
}

func TestMapLatticePointwiseOverInner(t *testing.T) {
	inner := FlatLattice[int]{}
	l := MapLattice[string, FlatElem[int]]{Keys: []string{"x", "y"}, Inner: inner}

	bot := l.Bot()
	assert.True(t, inner.Equal(bot["x"], inner.Bot()))
	assert.True(t, inner.Equal(bot["y"], inner.Bot()))

	a := MapState[string, FlatElem[int]]{"x": Val(1), "y": Val(2)}
	b := MapState[string, FlatElem[int]]{"x": Val(1), "y": Val(3)}
	joined := l.Lub(a, b)

	assert.True(t, inner.Equal(joined["x"], Val(1)), "equal values stay equal after join")
	assert.True(t, joined["y"].IsTop(), "distinct values join to top")
	assert.False(t, l.Equal(a, b))
	assert.True(t, l.Equal(a, a))
}

func TestFunctionLatticeShapeAndPointwiseJoin(t *testing.T) {
	inner := FlatLattice[int]{}
	l := FunctionLattice[FlatElem[int]]{Shape: []int{2, 1}, Inner: inner}

	bot := l.Bot()
	assert.Len(t, bot, 2)
	assert.Len(t, bot[0], 2)
	assert.Len(t, bot[1], 1)

	a := l.Bot()
	a[0][0] = Val(1)
	b := l.Bot()
	b[0][0] = Val(1)

	assert.True(t, l.Equal(a, b))
	joined := l.Lub(a, b)
	assert.True(t, inner.Equal(joined[0][0], Val(1)))

	b[0][0] = Val(2)
	assert.False(t, l.Equal(a, b))
}
