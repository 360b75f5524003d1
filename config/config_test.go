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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-lang/riscvc/codegen"
)

func TestLoadParsesValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riscvc.yaml")
	require.NoError(t, writeFile(path, `
allocator:
  register_pool: [5, 6]
  temp_pool: [29]
  stack_align: 32
`))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, cfg.Allocator.RegisterPool)
	assert.Equal(t, []int{29}, cfg.Allocator.TempPool)
	assert.Equal(t, 32, cfg.Allocator.StackAlign)
}

func TestLoadFallsBackToZeroValueWhenFileAbsent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Allocator.RegisterPool)
	assert.Empty(t, cfg.Allocator.TempPool)
	assert.Zero(t, cfg.Allocator.StackAlign)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riscvc.yaml")
	require.NoError(t, writeFile(path, "allocator: [this is not a mapping"))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyOverridesOnlyNonZeroFields(t *testing.T) {
	origPool, origTemp, origAlign := codegen.RegisterPool, codegen.TempPool, codegen.StackAlign
	defer func() {
		codegen.RegisterPool, codegen.TempPool, codegen.StackAlign = origPool, origTemp, origAlign
	}()

	cfg := &Config{Allocator: Allocator{StackAlign: 64}}
	cfg.Apply()

	assert.Equal(t, origPool, codegen.RegisterPool, "unset register pool must not be touched")
	assert.Equal(t, origTemp, codegen.TempPool, "unset temp pool must not be touched")
	assert.Equal(t, 64, codegen.StackAlign)
}

func TestApplyOnNilConfigIsNoop(t *testing.T) {
	origAlign := codegen.StackAlign
	defer func() { codegen.StackAlign = origAlign }()

	var cfg *Config
	assert.NotPanics(t, func() { cfg.Apply() })
	assert.Equal(t, origAlign, codegen.StackAlign)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
