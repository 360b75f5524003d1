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

// AsmBasicBlock is an ordered list of machine instructions.
type AsmBasicBlock struct {
	Instructions []AsmInstruction
}

// AsmFunction is a named sequence of machine basic blocks.
type AsmFunction struct {
	Name   string
	Blocks []AsmBasicBlock
}

// DataEntry is one label → bytes pair in the data section.
type DataEntry struct {
	Label string
	Bytes []byte
}

// AsmProgram is the whole back-end compilation unit: a data section (no
// component currently populates it; the field is kept so the shape
// round-trips), a prologue block that runs before main, and every compiled
// function.
type AsmProgram struct {
	Data     []DataEntry
	Prologue AsmBasicBlock
	Funcs    []AsmFunction
}
