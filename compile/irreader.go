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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vanta-lang/riscvc/ir"
)

// ReadIrProgram parses the textual IR dump format ir.IrProgram.String()
// produces back into an ir.IrProgram. It exists because the front end
// (lexer, parser, AST lowering) is an external collaborator this module
// does not implement; the dump format is the only textual input this
// core can consume on its own, used by the CLI's `compile` subcommand and
// by tests that exercise the pipeline against a fixture file rather than a
// hand-built ir.IrProgram.
//
// The reader is line-oriented and accepts ldi, alloca, allocg, arg, ld,
// mov, st, the binary arithmetic/logic/comparison opcodes, calldirect and
// syscall, plus ret/retr/jmp/branch/exit terminators; any other opcode is
// an error. This is wider than what instruction selection lowers: allocg,
// div, mod, shr, shl, and, or, xor, gt, ge and eql parse here but fail in
// codegen.
func ReadIrProgram(r io.Reader) (*ir.IrProgram, error) {
	sc := bufio.NewScanner(r)
	var funcs []*funcSrc
	var cur *funcSrc

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "func "):
			f, err := parseFuncHeader(line)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, f)
			cur = f
		case strings.HasPrefix(line, "BB"):
			if cur == nil {
				return nil, fmt.Errorf("compile: block header before any func line: %q", line)
			}
			cur.blocks = append(cur.blocks, nil)
		default:
			if cur == nil || len(cur.blocks) == 0 {
				return nil, fmt.Errorf("compile: instruction before any block header: %q", line)
			}
			last := len(cur.blocks) - 1
			cur.blocks[last] = append(cur.blocks[last], line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(funcs) == 0 {
		return nil, fmt.Errorf("compile: empty IR fixture")
	}

	prog := &ir.IrProgram{Funcs: make(map[string]ir.Function)}
	globSrc := funcs[0]
	glob, err := buildFunction(globSrc, true)
	if err != nil {
		return nil, err
	}
	prog.Glob = *glob

	for _, f := range funcs[1:] {
		fn, err := buildFunction(f, false)
		if err != nil {
			return nil, err
		}
		prog.Funcs[f.name] = *fn
	}
	return prog, nil
}

type funcSrc struct {
	name     string
	argCount int
	retType  ir.RegType
	blocks   [][]string
}

func parseFuncHeader(line string) (*funcSrc, error) {
	// func name(argCount) -> retType
	rest := strings.TrimPrefix(line, "func ")
	open := strings.IndexByte(rest, '(')
	close := strings.IndexByte(rest, ')')
	arrow := strings.Index(rest, "->")
	if open < 0 || close < open || arrow < close {
		return nil, fmt.Errorf("compile: malformed func header: %q", line)
	}
	name := rest[:open]
	argCount, err := strconv.Atoi(strings.TrimSpace(rest[open+1 : close]))
	if err != nil {
		return nil, fmt.Errorf("compile: malformed arg count in %q: %w", line, err)
	}
	retType, err := parseRegType(strings.TrimSpace(rest[arrow+2:]))
	if err != nil {
		return nil, err
	}
	return &funcSrc{name: name, argCount: argCount, retType: retType}, nil
}

func parseRegType(s string) (ir.RegType, error) {
	switch s {
	case "void":
		return ir.Void, nil
	case "int":
		return ir.Int, nil
	case "char":
		return ir.Char, nil
	default:
		return 0, fmt.Errorf("compile: unknown type %q", s)
	}
}

func buildFunction(src *funcSrc, global bool) (*ir.Function, error) {
	fn := &ir.Function{Name: src.name, ArgCount: src.argCount, RetType: src.retType}
	fn.Blocks = make([]ir.BasicBlock, len(src.blocks))
	for bi, lines := range src.blocks {
		for _, line := range lines {
			inst, err := parseInstruction(line, global, bi)
			if err != nil {
				return nil, err
			}
			fn.Blocks[bi].Instructions = append(fn.Blocks[bi].Instructions, inst)
		}
	}
	// A fixture built straight from its operand list never goes through
	// ir.FunctionBuilder.Create(), so the store/load fixed point that
	// normally runs at seal time has to be driven here instead.
	if ir.StoreLoadPass != nil {
		for ir.StoreLoadPass(fn) {
		}
	}
	return fn, nil
}

// parseInstruction parses one line of the form
// "g(b,i) : ty = opcode operands" (the "g" prefix absent for non-global
// registers), reconstructing the Register and opcode-tagged Data.
func parseInstruction(line string, global bool, bi int) (ir.Instruction, error) {
	idPart, rest, ok := strings.Cut(line, ":")
	if !ok {
		return ir.Instruction{}, fmt.Errorf("compile: malformed instruction line: %q", line)
	}
	reg, err := parseRegister(strings.TrimSpace(idPart))
	if err != nil {
		return ir.Instruction{}, err
	}

	tyPart, rhs, ok := strings.Cut(rest, "=")
	if !ok {
		return ir.Instruction{}, fmt.Errorf("compile: malformed instruction line: %q", line)
	}
	ty, err := parseRegType(strings.TrimSpace(tyPart))
	if err != nil {
		return ir.Instruction{}, err
	}

	fields := strings.Fields(strings.TrimSpace(rhs))
	if len(fields) == 0 {
		return ir.Instruction{}, fmt.Errorf("compile: missing opcode: %q", line)
	}
	opName := fields[0]
	operands := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rhs), opName))

	inst := ir.Instruction{ID: reg, Type: ty}
	if err := parseOpcodeAndOperands(opName, operands, &inst); err != nil {
		return ir.Instruction{}, fmt.Errorf("compile: %s at %s: %w", opName, reg, err)
	}
	return inst, nil
}

func parseOpcodeAndOperands(op, operands string, inst *ir.Instruction) error {
	parts := splitCommaArgs(operands)
	switch op {
	case "ldi":
		inst.Op = ir.OpLdi
		return parseImmI(parts, inst)
	case "alloca":
		inst.Op = ir.OpAlloca
		return parseImmI(parts, inst)
	case "allocg":
		inst.Op = ir.OpAllocg
		return parseImmI(parts, inst)
	case "arg":
		inst.Op = ir.OpArg
		return parseImmI(parts, inst)
	case "ld", "mov":
		if op == "ld" {
			inst.Op = ir.OpLd
		} else {
			inst.Op = ir.OpMov
		}
		reg, err := requireReg(parts, 0)
		if err != nil {
			return err
		}
		inst.Data.Reg = reg
		return nil
	case "st":
		a, b, err := requireRegReg(parts)
		if err != nil {
			return err
		}
		inst.Op = ir.OpSt
		inst.Data.RegA, inst.Data.RegB = a, b
		return nil
	case "add", "sub", "mul", "div", "mod", "shr", "shl", "and", "or", "xor",
		"lt", "le", "gt", "ge", "eql":
		a, b, err := requireRegReg(parts)
		if err != nil {
			return err
		}
		inst.Op = binOpcode(op)
		inst.Data.RegA, inst.Data.RegB = a, b
		return nil
	case "calldirect":
		sym, regs, err := parseSymRegs(operands)
		if err != nil {
			return err
		}
		inst.Op = ir.OpCallDirect
		inst.Data.Sym = sym
		inst.Data.Regs = regs
		return nil
	case "syscall":
		num, regs, err := parseImmRegs(operands)
		if err != nil {
			return err
		}
		inst.Op = ir.OpSysCall
		inst.Data.ImmI = num
		inst.Data.Regs = regs
		return nil
	case "ret":
		inst.Op = ir.OpRet
		return nil
	case "retr":
		reg, err := requireReg(parts, 0)
		if err != nil {
			return err
		}
		inst.Op = ir.OpRetr
		inst.Data.Reg = reg
		return nil
	case "jmp":
		target, err := strconv.Atoi(strings.TrimSpace(operands))
		if err != nil {
			return fmt.Errorf("malformed jump target: %w", err)
		}
		inst.Op = ir.OpJmp
		inst.Data.JumpTarget = target
		return nil
	case "branch":
		if len(parts) != 3 {
			return fmt.Errorf("branch wants 3 operands, got %d", len(parts))
		}
		reg, err := parseRegister(parts[0])
		if err != nil {
			return err
		}
		trueBB, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}
		falseBB, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return err
		}
		inst.Op = ir.OpBranch
		inst.Data.Reg = reg
		inst.Data.BranchTrue = trueBB
		inst.Data.BranchFalse = falseBB
		return nil
	case "exit":
		inst.Op = ir.OpExit
		return nil
	default:
		return fmt.Errorf("unsupported opcode in IR fixture: %q", op)
	}
}

func binOpcode(op string) ir.Opcode {
	switch op {
	case "add":
		return ir.OpAdd
	case "sub":
		return ir.OpSub
	case "mul":
		return ir.OpMul
	case "div":
		return ir.OpDiv
	case "mod":
		return ir.OpMod
	case "shr":
		return ir.OpShr
	case "shl":
		return ir.OpShl
	case "and":
		return ir.OpAnd
	case "or":
		return ir.OpOr
	case "xor":
		return ir.OpXor
	case "lt":
		return ir.OpLt
	case "le":
		return ir.OpLe
	case "gt":
		return ir.OpGt
	case "ge":
		return ir.OpGe
	case "eql":
		return ir.OpEql
	default:
		return -1
	}
}

func parseImmI(parts []string, inst *ir.Instruction) error {
	if len(parts) != 1 {
		return fmt.Errorf("wants 1 immediate operand, got %d", len(parts))
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return err
	}
	inst.Data.ImmI = n
	return nil
}

func requireReg(parts []string, i int) (ir.Register, error) {
	if i >= len(parts) {
		return ir.Register{}, fmt.Errorf("missing register operand %d", i)
	}
	return parseRegister(parts[i])
}

func requireRegReg(parts []string) (ir.Register, ir.Register, error) {
	if len(parts) != 2 {
		return ir.Register{}, ir.Register{}, fmt.Errorf("wants 2 register operands, got %d", len(parts))
	}
	a, err := parseRegister(parts[0])
	if err != nil {
		return ir.Register{}, ir.Register{}, err
	}
	b, err := parseRegister(parts[1])
	if err != nil {
		return ir.Register{}, ir.Register{}, err
	}
	return a, b, nil
}

// parseRegister parses "g(b,i)" or "(b,i)".
func parseRegister(s string) (ir.Register, error) {
	s = strings.TrimSpace(s)
	global := strings.HasPrefix(s, "g")
	if global {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ir.Register{}, fmt.Errorf("malformed register %q", s)
	}
	block, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ir.Register{}, err
	}
	index, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ir.Register{}, err
	}
	return ir.Register{Global: global, Block: block, Index: index}, nil
}

// parseSymRegs parses "sym(r1, r2, ...)".
func parseSymRegs(operands string) (string, []ir.Register, error) {
	open := strings.IndexByte(operands, '(')
	close := strings.LastIndexByte(operands, ')')
	if open < 0 || close < open {
		return "", nil, fmt.Errorf("malformed call operands: %q", operands)
	}
	sym := strings.TrimSpace(operands[:open])
	regs, err := parseRegList(operands[open+1 : close])
	return sym, regs, err
}

// parseImmRegs parses "num(r1, r2, ...)".
func parseImmRegs(operands string) (int64, []ir.Register, error) {
	open := strings.IndexByte(operands, '(')
	close := strings.LastIndexByte(operands, ')')
	if open < 0 || close < open {
		return 0, nil, fmt.Errorf("malformed syscall operands: %q", operands)
	}
	num, err := strconv.ParseInt(strings.TrimSpace(operands[:open]), 10, 64)
	if err != nil {
		return 0, nil, err
	}
	regs, err := parseRegList(operands[open+1 : close])
	return num, regs, err
}

func parseRegList(s string) ([]ir.Register, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := splitCommaArgs(s)
	regs := make([]ir.Register, len(parts))
	for i, p := range parts {
		r, err := parseRegister(p)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}

// splitCommaArgs splits a top-level comma list, skipping commas nested
// inside a register's own "(b,i)" parens — a Regs list such as
// "(0,0), (1,2)" must split into two register operands, not four.
func splitCommaArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
