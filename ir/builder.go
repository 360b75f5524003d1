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

// StoreLoadPass rewrites a function to a fixed point. FunctionBuilder.Create
// calls it at seal time; it is set by ir/optimize (via RegisterStoreLoadPass)
// to avoid an import cycle between ir and ir/optimize.
var StoreLoadPass func(*Function) bool

// RegisterStoreLoadPass installs the store/load elimination pass used by
// FunctionBuilder.Create. Called once from ir/optimize's package init.
func RegisterStoreLoadPass(pass func(*Function) bool) {
	StoreLoadPass = pass
}

// FunctionBuilder incrementally constructs one Function, handing out
// register identities by (block, position) as instructions are appended.
// Global is true while building the program's global initialization
// function.
type FunctionBuilder struct {
	Global   bool
	name     string
	argCount int
	retType  RegType
	actBB    int
	blocks   []BasicBlock
}

// NewFunctionBuilder starts building a function named name.
func NewFunctionBuilder(global bool, name string, argCount int, retType RegType) *FunctionBuilder {
	b := &FunctionBuilder{
		Global:   global,
		name:     name,
		argCount: argCount,
		retType:  retType,
	}
	b.blocks = append(b.blocks, BasicBlock{})
	return b
}

// CreateBB creates a new, empty basic block and returns its index. It does
// not switch the active block.
func (b *FunctionBuilder) CreateBB() BBIndex {
	b.blocks = append(b.blocks, BasicBlock{})
	return len(b.blocks) - 1
}

// SetBB switches the active block that Add appends to.
func (b *FunctionBuilder) SetBB(bb BBIndex) {
	b.actBB = bb
}

// ActiveBB returns the currently active block index.
func (b *FunctionBuilder) ActiveBB() BBIndex {
	return b.actBB
}

// SetPredecessor records pred as a predecessor of bb.
func (b *FunctionBuilder) SetPredecessor(bb BBIndex, pred BBIndex) {
	b.blocks[bb].AddPredecessor(pred)
}

// Terminated reports whether the active block already ends in a terminator.
func (b *FunctionBuilder) Terminated() bool {
	return b.blocks[b.actBB].Terminated()
}

// nextID returns the identity the next instruction appended to the active
// block would receive.
func (b *FunctionBuilder) nextID() Register {
	return Register{
		Global: b.Global,
		Block:  b.actBB,
		Index:  len(b.blocks[b.actBB].Instructions),
	}
}

// Add appends an instruction to the active block and returns its register
// (its own identity — every non-void instruction is its own definition).
func (b *FunctionBuilder) Add(op Opcode, data Data, regType RegType) Register {
	id := b.nextID()
	inst := Instruction{ID: id, Type: regType, Op: op, Data: data}
	b.blocks[b.actBB].Instructions = append(b.blocks[b.actBB].Instructions, inst)
	return id
}

// Create seals the function: it runs the store/load elimination pass to a
// fixed point (if registered) and returns the finished Function, mirroring
// original_source/middleend/src/builder.rs's
// `while remove_store_load(&mut result) {}` at seal time.
func (b *FunctionBuilder) Create() Function {
	fn := Function{
		Name:     b.name,
		ArgCount: b.argCount,
		RetType:  b.retType,
		Blocks:   b.blocks,
	}
	if StoreLoadPass != nil {
		for StoreLoadPass(&fn) {
		}
	}
	return fn
}

// IrBuilder constructs a whole IrProgram: one global function plus every
// named user function.
type IrBuilder struct {
	glob  *FunctionBuilder
	funcs map[string]Function
}

// NewIrBuilder starts a new program, with an initially empty global
// function.
func NewIrBuilder() *IrBuilder {
	return &IrBuilder{
		glob:  NewFunctionBuilder(true, "global", 0, Void),
		funcs: make(map[string]Function),
	}
}

// Global returns the builder for the program's global initialization
// function.
func (p *IrBuilder) Global() *FunctionBuilder {
	return p.glob
}

// AddFunction seals fn (already built via its own FunctionBuilder) into the
// program under its own name. Returns false if the name is already taken
// (FunctionRedefinition).
func (p *IrBuilder) AddFunction(fn Function) bool {
	if _, exists := p.funcs[fn.Name]; exists {
		return false
	}
	p.funcs[fn.Name] = fn
	return true
}

// Create seals the program.
func (p *IrBuilder) Create() IrProgram {
	return IrProgram{
		Glob:  p.glob.Create(),
		Funcs: p.funcs,
	}
}
