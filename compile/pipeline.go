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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vanta-lang/riscvc/codegen"
	"github.com/vanta-lang/riscvc/ir"
)

// globalFuncName is the symbol the compiled global initialization
// function is traced under; it is never emitted as a label (its body is
// inlined straight into _start), so the name only ever appears in logs and
// CompileError.Func.
const globalFuncName = "<global-init>"

// Pipeline drives the optimize → select → allocate → emit stages over one
// already-built ir.IrProgram. Construction runs the store/load fixed point
// at ir.FunctionBuilder.Create() time, so by the time a Function reaches
// Pipeline.Run it has already been optimized; Run itself covers
// instruction selection onward.
type Pipeline struct {
	Log *logrus.Logger
}

// NewPipeline returns a Pipeline whose logger is set to level. The CLI
// passes logrus.WarnLevel by default and logrus.InfoLevel or
// logrus.DebugLevel for -v/-vv.
func NewPipeline(level logrus.Level) *Pipeline {
	log := logrus.New()
	log.SetLevel(level)
	return &Pipeline{Log: log}
}

// Run compiles every function in prog, in lexicographic order, plus the
// global initialization function as the program's prologue, and emits the
// resulting textual assembly.
func (p *Pipeline) Run(prog *ir.IrProgram) (string, error) {
	p.Log.WithField("stage", StageSelect).Debug("compiling global initializer")
	globalFn, err := p.compileSafely(globalFuncName, &prog.Glob)
	if err != nil {
		return "", err
	}

	var asm codegen.AsmProgram
	for _, blk := range globalFn.Blocks {
		asm.Prologue.Instructions = append(asm.Prologue.Instructions, blk.Instructions...)
	}

	for _, name := range prog.SortedFuncNames() {
		fn := prog.Funcs[name]
		p.Log.WithField("stage", StageSelect).WithField("func", name).Debug("compiling function")
		compiled, err := p.compileSafely(name, &fn)
		if err != nil {
			return "", err
		}
		asm.Funcs = append(asm.Funcs, compiled)
	}

	p.Log.WithField("stage", StageEmit).Debug("emitting assembly")
	return codegen.Emit(asm), nil
}

// compileSafely runs codegen.CompileFunction and converts both its returned
// error and any recovered panic into a stage-tagged CompileError. A handful
// of invariant checks deep in register allocation (fn_builder.go's
// ValueCell-kind switch) and dataflow convergence (analysis.Analyze's
// iteration cap) report CompilerBug violations by panicking rather than
// returning an error, mirroring the teacher's own Assert/ShouldNotReachHere
// idiom; this is the one place that panic is turned back into the typed
// error path the CLI reports through instead of a raw crash.
func (p *Pipeline) compileSafely(name string, fn *ir.Function) (compiled codegen.AsmFunction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newCompileError(StageSelect, KindCompilerBug, name, fmt.Errorf("%v", r))
		}
	}()
	compiled, cerr := codegen.CompileFunction(name, fn)
	if cerr != nil {
		return compiled, p.wrap(StageSelect, name, cerr)
	}
	return compiled, nil
}

func (p *Pipeline) wrap(stage Stage, fn string, err error) error {
	if _, ok := err.(*codegen.LoweringError); ok {
		return newCompileError(stage, KindLowering, fn, err)
	}
	return newCompileError(stage, KindCompilerBug, fn, err)
}
