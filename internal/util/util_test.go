package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	exists, err := FileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "nope.json"))
	require.NoError(t, err)
	assert.False(t, exists)

	// a directory is not a file
	_, err = FileExists(dir)
	assert.Error(t, err)
}

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()

	exists, err := DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = DirectoryExists(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.False(t, exists)

	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	_, err = DirectoryExists(path)
	assert.Error(t, err)
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home, ExpandUser("~"))
	assert.Equal(t, filepath.Join(home, "data"), ExpandUser("~/data"))
	assert.Equal(t, "/tmp/data", ExpandUser("/tmp/data"))
}
