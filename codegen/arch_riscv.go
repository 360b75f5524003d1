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

// Reference
// https://riscv.org/technical/specifications/ (RV64IM user-level ISA, ch. 2 "RV32I Base Integer Instruction Set")

// RegisterPool is the set of architectural registers the linear allocator
// may bind pseudo-registers to, in pop order: x5, x6, x7, x28.
var RegisterPool = []int{5, 6, 7, 28}

// TempPool is the scratch register set post-allocation materialization uses
// to round-trip stack-spilled operands through. Three suffice: no machine op
// this back-end emits reads more than two operands and writes more than one.
var TempPool = []int{29, 30, 31}

// StackAlign is the byte alignment every function's frame size is rounded up
// to. 16 matches the RV64 calling convention; a config file can widen it
// (never narrow below 16, see config.Apply) for callees that assume a
// stricter boundary.
var StackAlign = 16

// immLo and immHi bound the signed 12-bit I-type immediate range.
const (
	immLo = -2048
	immHi = 2047
)

// FitsImm12 reports whether n fits an I-type immediate without needing a
// Lui/Addi synthesis pair.
func FitsImm12(n int64) bool {
	return n >= immLo && n <= immHi
}
