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

package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-lang/riscvc/ir"
)

func TestReadIrProgramRoundTripsThroughString(t *testing.T) {
	prog := ir.NewIrBuilder()
	main := ir.NewFunctionBuilder(false, "main", 0, ir.Int)
	a := main.Add(ir.OpLdi, ir.Data{ImmI: 5}, ir.Int)
	c := main.Add(ir.OpLdi, ir.Data{ImmI: 7}, ir.Int)
	sum := main.Add(ir.OpAdd, ir.Data{RegA: a, RegB: c}, ir.Int)
	main.Add(ir.OpRetr, ir.Data{Reg: sum}, ir.Void)
	require.True(t, prog.AddFunction(main.Create()))
	built := prog.Create()

	dump := built.String()

	reparsed, err := ReadIrProgram(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, dump, reparsed.String())
}

func TestReadIrProgramParsesCallAndSyscallOperands(t *testing.T) {
	dump := "func global(0) -> void\n" +
		"BB0:\n" +
		"func main(0) -> int\n" +
		"BB0:\n" +
		"  (0,0) : int = ldi 1\n" +
		"  (0,1) : int = calldirect helper((0,0))\n" +
		"  (0,2) : int = syscall 93((0,1))\n" +
		"  (0,3) : void = retr (0,2)\n"

	prog, err := ReadIrProgram(strings.NewReader(dump))
	require.NoError(t, err)
	fn := prog.Funcs["main"]
	require.Len(t, fn.Blocks, 1)

	call := fn.Blocks[0].Instructions[1]
	assert.Equal(t, ir.OpCallDirect, call.Op)
	assert.Equal(t, "helper", call.Data.Sym)
	require.Len(t, call.Data.Regs, 1)
	assert.Equal(t, ir.Register{Block: 0, Index: 0}, call.Data.Regs[0])

	sys := fn.Blocks[0].Instructions[2]
	assert.Equal(t, ir.OpSysCall, sys.Op)
	assert.Equal(t, int64(93), sys.Data.ImmI)
}

func TestReadIrProgramRejectsUnsupportedOpcode(t *testing.T) {
	dump := "func main(0) -> int\n" +
		"BB0:\n" +
		"  (0,0) : int = phi (0,0)\n"
	_, err := ReadIrProgram(strings.NewReader(dump))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported opcode")
}

func TestReadIrProgramRejectsMalformedHeader(t *testing.T) {
	_, err := ReadIrProgram(strings.NewReader("func main(0) int\n"))
	require.Error(t, err)
}

func TestReadIrProgramRejectsEmptyInput(t *testing.T) {
	_, err := ReadIrProgram(strings.NewReader(""))
	require.Error(t, err)
}
