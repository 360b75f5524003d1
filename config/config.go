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

// Package config loads an optional riscvc.yaml overriding the back-end's
// register pool and stack alignment. Absence of the file is not an error:
// every field falls back to codegen's own built-in defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vanta-lang/riscvc/codegen"
)

// Allocator carries the subset of codegen's architectural choices a user
// may want to override for a non-default ABI or calling convention.
type Allocator struct {
	RegisterPool []int `yaml:"register_pool"`
	TempPool     []int `yaml:"temp_pool"`
	StackAlign   int   `yaml:"stack_align"`
}

// Config is the top-level riscvc.yaml shape.
type Config struct {
	Allocator Allocator `yaml:"allocator"`
}

// Load reads and parses path. A missing file is not an error: it returns a
// zero-value Config, whose Apply is a no-op.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Apply overrides codegen's package-level register pools and stack
// alignment with any value cfg sets, leaving codegen's built-in defaults in
// place for everything cfg leaves zero. A stack alignment below 16 is
// ignored, so the frame is never aligned more loosely than 16 bytes.
func (c *Config) Apply() {
	if c == nil {
		return
	}
	if len(c.Allocator.RegisterPool) > 0 {
		codegen.RegisterPool = append([]int{}, c.Allocator.RegisterPool...)
	}
	if len(c.Allocator.TempPool) > 0 {
		codegen.TempPool = append([]int{}, c.Allocator.TempPool...)
	}
	if c.Allocator.StackAlign >= 16 {
		codegen.StackAlign = c.Allocator.StackAlign
	}
}
