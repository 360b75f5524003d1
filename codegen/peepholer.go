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

// Database answers a fixed-size window query with a rewrite, or nil if the
// window doesn't match any known pattern.
type Database interface {
	Query(window []AsmInstruction) []AsmInstruction
}

// MockDatabase is the one rule this back-end ships: folding an
// addi-then-add pair into a single addi when the addi's destination feeds
// the add's second operand and nothing else has touched it in between.
// "Mock" because a real back-end would carry dozens of these; this corpus
// carries the one pattern the selector is known to produce.
type MockDatabase struct{}

func (MockDatabase) Query(w []AsmInstruction) []AsmInstruction {
	if len(w) != 2 {
		return nil
	}
	a, b := w[0], w[1]
	if a.Op == OpAddi && a.Rs1 == Zero && b.Op == OpAdd && a.Rd == b.Rs2 {
		return []AsmInstruction{{Op: OpAddi, Rd: b.Rd, Rs1: b.Rs1, Imm: a.Imm}}
	}
	return nil
}

// PeepHoler slides a fixed-size window over a basic block, repeatedly
// replacing a match at the current position before advancing.
type PeepHoler struct {
	db Database
}

func NewPeepHoler(db Database) *PeepHoler { return &PeepHoler{db: db} }

func (p *PeepHoler) findAndReplace(block *AsmBasicBlock, index, size int) bool {
	changed := false
	for {
		if index+size > len(block.Instructions) {
			return changed
		}
		rewrite := p.db.Query(block.Instructions[index : index+size])
		if rewrite == nil {
			return changed
		}
		tail := append([]AsmInstruction{}, block.Instructions[index+size:]...)
		block.Instructions = append(block.Instructions[:index], append(rewrite, tail...)...)
		changed = true
	}
}

// PassBasicBlock runs every window position once and reports whether it
// rewrote anything.
func (p *PeepHoler) PassBasicBlock(block *AsmBasicBlock, size int) bool {
	changed := false
	for index := 0; index+size <= len(block.Instructions); index++ {
		changed = p.findAndReplace(block, index, size) || changed
	}
	return changed
}
