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
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-lang/riscvc/codegen"
	"github.com/vanta-lang/riscvc/ir"
)

func buildProgram(t *testing.T) *ir.IrProgram {
	t.Helper()
	prog := ir.NewIrBuilder()

	main := ir.NewFunctionBuilder(false, "main", 0, ir.Int)
	a := main.Add(ir.OpLdi, ir.Data{ImmI: 1}, ir.Int)
	c := main.Add(ir.OpLdi, ir.Data{ImmI: 2}, ir.Int)
	sum := main.Add(ir.OpAdd, ir.Data{RegA: a, RegB: c}, ir.Int)
	main.Add(ir.OpRetr, ir.Data{Reg: sum}, ir.Void)
	require.True(t, prog.AddFunction(main.Create()))

	built := prog.Create()
	return &built
}

func TestPipelineRunEmitsAssemblyForEveryFunction(t *testing.T) {
	p := NewPipeline(logrus.WarnLevel)
	asm, err := p.Run(buildProgram(t))
	require.NoError(t, err)
	assert.Contains(t, asm, "_start:")
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "call main")
}

func TestPipelineRunWrapsLoweringErrorsWithStageAndFunc(t *testing.T) {
	prog := ir.NewIrBuilder()
	bad := ir.NewFunctionBuilder(false, "bad", 0, ir.Void)
	r := bad.Add(ir.OpLdi, ir.Data{ImmI: 1}, ir.Int)
	bad.Add(ir.OpPrint, ir.Data{Reg: r}, ir.Void)
	bad.Add(ir.OpRet, ir.Data{}, ir.Void)
	require.True(t, prog.AddFunction(bad.Create()))
	built := prog.Create()

	p := NewPipeline(logrus.WarnLevel)
	_, err := p.Run(&built)
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageSelect, cerr.Stage)
	assert.Equal(t, KindLowering, cerr.Kind)
	assert.Equal(t, "bad", cerr.Func)

	var lerr *codegen.LoweringError
	require.ErrorAs(t, err, &lerr)
}
