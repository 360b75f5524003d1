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

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vanta-lang/riscvc/compile"
)

var compileCmd = &cobra.Command{
	Use:   "compile <ir-fixture>",
	Short: "Compile a textual IR fixture to RV64IM assembly",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		color.Red("read: %s", err)
		return err
	}
	defer f.Close()

	prog, err := compile.ReadIrProgram(f)
	if err != nil {
		color.Red("parse: %s", err)
		return err
	}

	fmt.Print(prog.String())

	pipeline := compile.NewPipeline(logLevel())
	asm, err := pipeline.Run(prog)
	if err != nil {
		color.Red("%s", err)
		return err
	}

	fmt.Print(asm)
	return nil
}
