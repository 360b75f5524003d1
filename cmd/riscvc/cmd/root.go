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

// Package cmd wires the cobra CLI surface for riscvc: a root command with
// a default "compile" action plus a "dump-ir" debugging subcommand.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vanta-lang/riscvc/config"

	// blank import: registers the store/load elimination pass with
	// ir.FunctionBuilder via its package init, breaking the ir/ir-optimize
	// import cycle that would otherwise exist if ir called into it directly.
	_ "github.com/vanta-lang/riscvc/ir/optimize"
)

var verbosity int
var configPath string

var rootCmd = &cobra.Command{
	Use:   "riscvc",
	Short: "riscvc compiles a textual IR fixture to RV64IM assembly",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Apply()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase stage-trace verbosity")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "riscvc.yaml", "register-pool/stack-alignment override file")
	rootCmd.AddCommand(compileCmd, dumpIrCmd)
}

func logLevel() logrus.Level {
	switch verbosity {
	case 0:
		return logrus.WarnLevel
	case 1:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
