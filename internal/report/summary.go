// Package report renders a human-reviewable summary of a compiled event
// database as an xlsx workbook: one sheet for the architecture tables with
// merge diagnostics, one for the signature bindings.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"pmudb/internal/compile"
)

const (
	SheetArchitectures = "Architectures"
	SheetSignatures    = "Signatures"
)

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

// WriteSummary writes the workbook to path, replacing any existing file.
func WriteSummary(res *compile.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})

	if err := f.SetSheetName("Sheet1", SheetArchitectures); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	row := 1
	for col, header := range []string{"Architecture", "Events", "Overwritten Events"} {
		_ = f.SetCellValue(SheetArchitectures, cellName(col+1, row), header)
		_ = f.SetCellStyle(SheetArchitectures, cellName(col+1, row), cellName(col+1, row), headerStyle)
	}
	row++
	for _, variable := range res.Architectures() {
		_ = f.SetCellValue(SheetArchitectures, cellName(1, row), variable)
		_ = f.SetCellValue(SheetArchitectures, cellName(2, row), res.Stats.EventCounts[variable])
		_ = f.SetCellValue(SheetArchitectures, cellName(3, row), res.Stats.OverwrittenEvents[variable])
		row++
	}
	row++
	_ = f.SetCellValue(SheetArchitectures, cellName(1, row), "Files Parsed")
	_ = f.SetCellValue(SheetArchitectures, cellName(2, row), res.Stats.FilesParsed)
	row++
	_ = f.SetCellValue(SheetArchitectures, cellName(1, row), "Records Decoded")
	_ = f.SetCellValue(SheetArchitectures, cellName(2, row), res.Stats.RecordsDecoded)
	row++
	_ = f.SetCellValue(SheetArchitectures, cellName(1, row), "Skipped Signatures")
	_ = f.SetCellValue(SheetArchitectures, cellName(2, row), res.Stats.SkippedSignatures)
	row++
	_ = f.SetCellValue(SheetArchitectures, cellName(1, row), "Event Types")
	_ = f.SetCellValue(SheetArchitectures, cellName(2, row), strings.Join(res.Stats.EventTypes, ", "))

	if _, err := f.NewSheet(SheetSignatures); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}
	row = 1
	for col, header := range []string{"Signature", "Architecture"} {
		_ = f.SetCellValue(SheetSignatures, cellName(col+1, row), header)
		_ = f.SetCellStyle(SheetSignatures, cellName(col+1, row), cellName(col+1, row), headerStyle)
	}
	row++
	db := res.Database()
	for _, signature := range db.Signatures() {
		_ = f.SetCellValue(SheetSignatures, cellName(1, row), signature)
		_ = f.SetCellValue(SheetSignatures, cellName(2, row), res.Signatures[signature])
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving summary workbook: %w", err)
	}
	return nil
}
