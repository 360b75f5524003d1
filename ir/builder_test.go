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

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsUniqueSSARegisters(t *testing.T) {
	b := NewFunctionBuilder(false, "f", 0, Int)
	one := b.Add(OpLdi, Data{ImmI: 1}, Int)
	two := b.Add(OpLdi, Data{ImmI: 2}, Int)

	assert.NotEqual(t, one, two, "every instruction must define a distinct register")
	assert.Equal(t, Register{Block: 0, Index: 0}, one)
	assert.Equal(t, Register{Block: 0, Index: 1}, two)
}

func TestCreateBBAssignsNewBlockWithoutSwitchingActive(t *testing.T) {
	b := NewFunctionBuilder(false, "f", 0, Void)
	before := b.ActiveBB()
	bb := b.CreateBB()

	assert.Equal(t, before, b.ActiveBB(), "CreateBB must not switch the active block")
	assert.Equal(t, 1, bb)

	b.SetBB(bb)
	assert.Equal(t, bb, b.ActiveBB())
}

func TestSetPredecessorRecordsOnTargetBlock(t *testing.T) {
	b := NewFunctionBuilder(false, "f", 0, Void)
	bb1 := b.CreateBB()
	b.SetPredecessor(bb1, 0)

	fn := b.Create()
	assert.Equal(t, []BBIndex{0}, fn.Blocks[bb1].Predecessors)
}

func TestTerminatedReflectsLastInstructionOfActiveBlock(t *testing.T) {
	b := NewFunctionBuilder(false, "f", 0, Void)
	assert.False(t, b.Terminated())

	b.Add(OpExit, Data{}, Void)
	assert.True(t, b.Terminated())
}

func TestCreateDrivesStoreLoadPassToFixedPoint(t *testing.T) {
	prev := StoreLoadPass
	defer func() { StoreLoadPass = prev }()

	calls := 0
	StoreLoadPass = func(fn *Function) bool {
		calls++
		return calls < 3
	}

	b := NewFunctionBuilder(false, "f", 0, Void)
	b.Add(OpExit, Data{}, Void)
	b.Create()

	assert.Equal(t, 3, calls, "Create must loop the registered pass until it reports no change")
}

func TestCreateToleratesUnregisteredStoreLoadPass(t *testing.T) {
	prev := StoreLoadPass
	defer func() { StoreLoadPass = prev }()
	StoreLoadPass = nil

	b := NewFunctionBuilder(false, "f", 0, Void)
	assert.NotPanics(t, func() { b.Create() })
}

func TestIrBuilderAddFunctionRejectsDuplicateNames(t *testing.T) {
	p := NewIrBuilder()
	fb := NewFunctionBuilder(false, "dup", 0, Void)
	fb.Add(OpExit, Data{}, Void)
	fn := fb.Create()

	require.True(t, p.AddFunction(fn))
	assert.False(t, p.AddFunction(fn), "a second function with the same name must be rejected")
}

func TestIrBuilderCreateSealsGlobalAndEveryFunction(t *testing.T) {
	p := NewIrBuilder()
	p.Global().Add(OpExit, Data{}, Void)

	fb := NewFunctionBuilder(false, "main", 0, Void)
	fb.Add(OpExit, Data{}, Void)
	require.True(t, p.AddFunction(fb.Create()))

	prog := p.Create()
	assert.Equal(t, "global", prog.Glob.Name)
	assert.Contains(t, prog.Funcs, "main")
}
