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

package codegen

import (
	"fmt"

	"github.com/vanta-lang/riscvc/ir"
)

// LoweringKind is the LoweringError taxonomy.
type LoweringKind int

const (
	UnsupportedOpcode LoweringKind = iota
	TooManyCallArgs
)

func (k LoweringKind) String() string {
	switch k {
	case UnsupportedOpcode:
		return "UnsupportedOpcode"
	case TooManyCallArgs:
		return "TooManyCallArgs"
	default:
		return "?"
	}
}

// LoweringError reports that instruction selection could not lower inst.
// Opcodes this back-end leaves as future work (Div, Mod, Shr, Shl, And, Or,
// Xor, Neg, Gt, Ge, Eql, indirect Call, Cpy, Gep, Phi, Print, Ldc, Allocg)
// all surface as UnsupportedOpcode.
type LoweringError struct {
	Kind LoweringKind
	Inst ir.Register
	Op   ir.Opcode
}

func (e *LoweringError) Error() string {
	if e.Kind == TooManyCallArgs {
		return fmt.Sprintf("LoweringError: TooManyCallArgs: call at %s has more than 8 arguments", e.Inst)
	}
	return fmt.Sprintf("LoweringError: UnsupportedOpcode: %s at %s is not implemented by instruction selection", e.Op, e.Inst)
}
