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

// Package compile wires the optimize/select/allocate/emit stages into one
// driving loop over an already-built ir.IrProgram, reporting failures as a
// typed, stage-tagged error instead of a bare panic.
package compile

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage identifies which pipeline step produced an error.
type Stage int

const (
	StageOptimize Stage = iota
	StageSelect
	StageAllocate
	StageEmit
)

func (s Stage) String() string {
	switch s {
	case StageOptimize:
		return "optimize"
	case StageSelect:
		return "select"
	case StageAllocate:
		return "allocate"
	case StageEmit:
		return "emit"
	default:
		return "?"
	}
}

// Kind is the taxonomy of failures the pipeline can surface, independent of
// which stage raised them.
type Kind int

const (
	KindLowering Kind = iota
	KindCompilerBug
)

func (k Kind) String() string {
	switch k {
	case KindLowering:
		return "LoweringError"
	case KindCompilerBug:
		return "CompilerBug"
	default:
		return "?"
	}
}

// CompileError reports a stage-tagged pipeline failure. Cause is wrapped
// with github.com/pkg/errors so %+v on a CompileError prints a stack trace
// back to the frame that first returned it.
type CompileError struct {
	Stage Stage
	Kind  Kind
	Func  string
	cause error
}

func newCompileError(stage Stage, kind Kind, fn string, cause error) *CompileError {
	return &CompileError{Stage: stage, Kind: kind, Func: fn, cause: errors.WithStack(cause)}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: in %s: %s", e.Stage, e.Kind, e.Func, e.cause)
}

func (e *CompileError) Unwrap() error { return e.cause }

// Cause supports github.com/pkg/errors.Cause for callers that want the
// innermost error.
func (e *CompileError) Cause() error { return e.cause }
