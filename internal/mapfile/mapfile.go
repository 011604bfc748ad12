// Package mapfile parses the perfmon dataset's mapfile.csv, which binds CPU
// architecture signatures to the per-architecture event data files.
package mapfile

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedRow      = errors.New("malformed mapfile row")
	ErrUnknownFileSuffix = errors.New("unknown data file suffix")
)

// Suffix is the category of a perfmon data file, derived from fixed markers
// in the file name.
type Suffix string

const (
	SuffixCore    Suffix = "core"
	SuffixUncore  Suffix = "uncore"
	SuffixMatrix  Suffix = "matrix"
	SuffixFPArith Suffix = "fparith"
)

// Row is one mapfile.csv record: signature, dataset version, data file name,
// and event-type tag, in that column order. The column order is a fixed wire
// contract with the vendor dataset.
type Row struct {
	FamilyModel string
	Version     string
	FileName    string
	EventType   string
}

// FileGroup collects the mapfile rows that reference one data file. Several
// signatures typically share a file.
type FileGroup struct {
	FileName string
	Suffix   Suffix
	Rows     []Row
}

// ClassifySuffix categorizes a data file name. A name matching none of the
// fixed markers is an ErrUnknownFileSuffix; there is no default category.
func ClassifySuffix(fileName string) (Suffix, error) {
	switch {
	case strings.Contains(fileName, "_core_"):
		return SuffixCore, nil
	case strings.Contains(fileName, "_uncore_"):
		return SuffixUncore, nil
	case strings.Contains(fileName, "_matrix_"):
		return SuffixMatrix, nil
	case strings.Contains(fileName, "_FP_ARITH_INST_"), strings.Contains(fileName, "_fp_arith_inst_"):
		return SuffixFPArith, nil
	}
	return "", errors.Wrap(ErrUnknownFileSuffix, fileName)
}

// ArchVariable derives the architecture variable name from a data file name:
// the stem cut at the trailing "_core"/"_uncore" segment, upper-cased, with
// hyphens replaced by underscores, e.g., "/GenuineIntel/Skylake-X_core_V42.json"
// becomes "SKYLAKE_X".
func ArchVariable(fileName string) (string, error) {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	cut := strings.Index(stem, "_core")
	if cut < 0 {
		cut = strings.Index(stem, "_uncore")
	}
	if cut < 0 {
		return "", errors.Wrapf(ErrUnknownFileSuffix, "no _core or _uncore segment in %q", fileName)
	}
	return strings.ReplaceAll(strings.ToUpper(stem[:cut]), "-", "_"), nil
}

// Load parses mapfile.csv and groups the surviving rows by data file name,
// preserving first-appearance order. Rows referencing matrix or FP-arith
// files are dropped; those categories are unsupported, not malformed. A row
// with missing columns aborts the load with ErrMalformedRow.
func Load(path string) ([]FileGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mapfile")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // column count is validated per row below
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRow, "%s: %v", path, err)
	}

	var groups []FileGroup
	index := make(map[string]int)
	for i, record := range records {
		if i == 0 {
			continue // header row
		}
		if len(record) < 4 {
			return nil, errors.Wrapf(ErrMalformedRow, "%s line %d: %d columns, want 4", path, i+1, len(record))
		}
		row := Row{
			FamilyModel: record[0],
			Version:     record[1],
			FileName:    record[2],
			EventType:   record[3],
		}
		suffix, err := ClassifySuffix(row.FileName)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+1)
		}
		if suffix != SuffixCore && suffix != SuffixUncore {
			continue
		}
		gi, ok := index[row.FileName]
		if !ok {
			gi = len(groups)
			index[row.FileName] = gi
			groups = append(groups, FileGroup{FileName: row.FileName, Suffix: suffix})
		}
		groups[gi].Rows = append(groups[gi].Rows, row)
	}
	return groups, nil
}
