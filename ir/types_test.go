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
)

func TestRegisterLessOrdersGlobalThenBlockThenIndex(t *testing.T) {
	local00 := Register{Block: 0, Index: 0}
	local01 := Register{Block: 0, Index: 1}
	local10 := Register{Block: 1, Index: 0}
	global := Register{Global: true}

	assert.True(t, local00.Less(local01))
	assert.False(t, local01.Less(local00))
	assert.True(t, local10.Less(global), "a local register must order before any global one")
	assert.True(t, local01.Less(local10))
}

func TestBasicBlockSuccessorsPerTerminator(t *testing.T) {
	t.Run("Jmp", func(t *testing.T) {
		bb := BasicBlock{Instructions: []Instruction{
			{Op: OpJmp, Data: Data{JumpTarget: 2}},
		}}
		assert.Equal(t, []BBIndex{2}, bb.Successors())
	})

	t.Run("Branch", func(t *testing.T) {
		bb := BasicBlock{Instructions: []Instruction{
			{Op: OpBranch, Data: Data{BranchTrue: 1, BranchFalse: 2}},
		}}
		assert.Equal(t, []BBIndex{1, 2}, bb.Successors())
	})

	t.Run("NonTerminatingLastInstruction", func(t *testing.T) {
		bb := BasicBlock{Instructions: []Instruction{{Op: OpAdd}}}
		assert.Nil(t, bb.Successors())
	})

	t.Run("EmptyBlock", func(t *testing.T) {
		assert.Nil(t, (&BasicBlock{}).Successors())
	})
}

func TestBasicBlockTerminated(t *testing.T) {
	assert.False(t, (&BasicBlock{}).Terminated())
	assert.True(t, (&BasicBlock{Instructions: []Instruction{{Op: OpRet}}}).Terminated())
	assert.False(t, (&BasicBlock{Instructions: []Instruction{{Op: OpAdd}}}).Terminated())
}

func TestOpcodeTerminator(t *testing.T) {
	for _, op := range []Opcode{OpRet, OpRetr, OpJmp, OpBranch, OpExit} {
		assert.True(t, op.Terminator(), "%s must be a terminator", op)
	}
	for _, op := range []Opcode{OpAdd, OpLd, OpSt, OpCall, OpMov} {
		assert.False(t, op.Terminator(), "%s must not be a terminator", op)
	}
}

func TestReadRegistersPerOpcode(t *testing.T) {
	r1 := Register{Block: 0, Index: 1}
	r2 := Register{Block: 0, Index: 2}

	cases := []struct {
		name string
		inst Instruction
		want []Register
	}{
		{"Ld", Instruction{Op: OpLd, Data: Data{Reg: r1}}, []Register{r1}},
		{"St", Instruction{Op: OpSt, Data: Data{RegA: r1, RegB: r2}}, []Register{r1, r2}},
		{"Add", Instruction{Op: OpAdd, Data: Data{RegA: r1, RegB: r2}}, []Register{r1, r2}},
		{"CallDirect", Instruction{Op: OpCallDirect, Data: Data{Regs: []Register{r1, r2}}}, []Register{r1, r2}},
		{"Branch", Instruction{Op: OpBranch, Data: Data{Reg: r1}}, []Register{r1}},
		{"Ldi", Instruction{Op: OpLdi, Data: Data{ImmI: 5}}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ReadRegisters(c.inst))
		})
	}
}

func TestReadRegistersCallDirectReturnsIndependentSlice(t *testing.T) {
	r1 := Register{Block: 0, Index: 1}
	inst := Instruction{Op: OpCallDirect, Data: Data{Regs: []Register{r1}}}
	got := ReadRegisters(inst)
	got[0] = Register{Block: 9, Index: 9}
	assert.Equal(t, r1, inst.Data.Regs[0], "mutating the returned slice must not alias the instruction's operand list")
}

func TestFunctionUsedRegistersWalksEveryBlock(t *testing.T) {
	r0 := Register{Block: 0, Index: 0}
	r1 := Register{Block: 1, Index: 0}
	fn := Function{Blocks: []BasicBlock{
		{Instructions: []Instruction{{Op: OpPrint, Data: Data{Reg: r0}}}},
		{Instructions: []Instruction{{Op: OpPrint, Data: Data{Reg: r1}}}},
	}}
	assert.ElementsMatch(t, []Register{r0, r1}, fn.UsedRegisters())
}

func TestSortedFuncNamesIsLexicographic(t *testing.T) {
	p := IrProgram{Funcs: map[string]Function{
		"zeta": {}, "alpha": {}, "mu": {},
	}}
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, p.SortedFuncNames())
}
