package mapfile

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySuffix(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		suffix   Suffix
		wantErr  bool
	}{
		{name: "core", fileName: "/GenuineIntel/Skylake_core_V42.json", suffix: SuffixCore},
		{name: "uncore", fileName: "/GenuineIntel/Skylake_uncore_V42.json", suffix: SuffixUncore},
		{name: "matrix", fileName: "/GenuineIntel/Haswell_matrix_V25.json", suffix: SuffixMatrix},
		{name: "fparith upper", fileName: "/GenuineIntel/Skylake_FP_ARITH_INST_V42.json", suffix: SuffixFPArith},
		{name: "fparith lower", fileName: "/GenuineIntel/Skylake_fp_arith_inst_V42.json", suffix: SuffixFPArith},
		{name: "unknown", fileName: "/GenuineIntel/Skylake_offcore_V42.json", wantErr: true},
		{name: "empty", fileName: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suffix, err := ClassifySuffix(tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownFileSuffix))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestArchVariable(t *testing.T) {
	tests := []struct {
		fileName string
		variable string
		wantErr  bool
	}{
		{fileName: "/GenuineIntel/Skylake_core_V42.json", variable: "SKYLAKE"},
		{fileName: "/GenuineIntel/Skylake-X_core_V42.json", variable: "SKYLAKE_X"},
		{fileName: "/GenuineIntel/WestmereEP-SP_uncore_V2.json", variable: "WESTMEREEP_SP"},
		{fileName: "haswellx_uncore_v20.json", variable: "HASWELLX"},
		{fileName: "/GenuineIntel/Skylake_matrix_V42.json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			variable, err := ArchVariable(tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variable, variable)
		})
	}
}

func writeMapfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapfile.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeMapfile(t, `Family-model,Version,Filename,EventType
GenuineIntel-6-94,V42,/GenuineIntel/Skylake_core_V42.json,core
GenuineIntel-6-78,V42,/GenuineIntel/Skylake_core_V42.json,core
GenuineIntel-6-94,V42,/GenuineIntel/Skylake_uncore_V42.json,uncore
GenuineIntel-6-94,V42,/GenuineIntel/Skylake_matrix_V42.json,offcore
GenuineIntel-6-94,V42,/GenuineIntel/Skylake_FP_ARITH_INST_V42.json,fp_arith_inst
`)

	groups, err := Load(path)
	require.NoError(t, err)
	// matrix and fparith rows are dropped, the rest grouped per file in
	// first-appearance order
	require.Len(t, groups, 2)
	assert.Equal(t, "/GenuineIntel/Skylake_core_V42.json", groups[0].FileName)
	assert.Equal(t, SuffixCore, groups[0].Suffix)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "GenuineIntel-6-94", groups[0].Rows[0].FamilyModel)
	assert.Equal(t, "GenuineIntel-6-78", groups[0].Rows[1].FamilyModel)
	assert.Equal(t, SuffixUncore, groups[1].Suffix)
	require.Len(t, groups[1].Rows, 1)
	assert.Equal(t, "uncore", groups[1].Rows[0].EventType)
}

func TestLoadMalformedRow(t *testing.T) {
	path := writeMapfile(t, `Family-model,Version,Filename,EventType
GenuineIntel-6-94,V42
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestLoadUnknownSuffix(t *testing.T) {
	path := writeMapfile(t, `Family-model,Version,Filename,EventType
GenuineIntel-6-94,V42,/GenuineIntel/Skylake_V42.json,core
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFileSuffix))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
