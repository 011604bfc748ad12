// Package inspect is a subcommand of the root command. It runs the compile
// pass without emitting the database file and prints what would be compiled.
package inspect

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pmudb/internal/common"
	compiler "pmudb/internal/compile"
	"pmudb/internal/report"
	"pmudb/internal/util"
)

const cmdName = "inspect"

var examples = []string{
	fmt.Sprintf("  Inspect a dataset:             $ %s %s --dataset ./x86data/perfmon_data", common.AppName, cmdName),
	fmt.Sprintf("  Inspect one architecture:      $ %s %s --arch skylake", common.AppName, cmdName),
	fmt.Sprintf("  Write the xlsx summary:        $ %s %s --summary", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Show what a perfmon dataset compiles to, without emitting",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagDataset string
	flagMapfile string
	flagArchs   []string
	flagSummary bool
)

const (
	flagDatasetName = "dataset"
	flagMapfileName = "mapfile"
	flagArchsName   = "arch"
	flagSummaryName = "summary"
)

func init() {
	Cmd.Flags().StringVar(&flagDataset, flagDatasetName, ".", "root directory of the perfmon dataset")
	Cmd.Flags().StringVar(&flagMapfile, flagMapfileName, "mapfile.csv", "mapfile path, relative to the dataset root unless absolute")
	Cmd.Flags().StringSliceVar(&flagArchs, flagArchsName, nil, "limit inspection to these architectures")
	Cmd.Flags().BoolVar(&flagSummary, flagSummaryName, false, "also write an xlsx summary of the database")
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := cmd.Parent().Context().Value(common.AppContext{}).(common.AppContext)

	dataset, err := util.AbsPath(flagDataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	res, err := compiler.Run(compiler.Options{
		DatasetDir: dataset,
		Mapfile:    flagMapfile,
		Archs:      flagArchs,
	})
	if err != nil {
		slog.Error("compile pass failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	db := res.Database()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARCHITECTURE\tEVENTS\tOVERWRITTEN")
	for _, variable := range res.Architectures() {
		fmt.Fprintf(w, "%s\t%d\t%d\n", variable, res.Stats.EventCounts[variable], res.Stats.OverwrittenEvents[variable])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SIGNATURE\tARCHITECTURE")
	for _, signature := range db.Signatures() {
		fmt.Fprintf(w, "%s\t%s\n", signature, res.Signatures[signature])
	}
	w.Flush()
	fmt.Printf("\n%d files parsed, %d records decoded, %d signatures skipped by first-wins binding\n",
		res.Stats.FilesParsed, res.Stats.RecordsDecoded, res.Stats.SkippedSignatures)

	if flagSummary {
		summaryPath := filepath.Join(appContext.OutputDir, "summary.xlsx")
		if err := report.WriteSummary(res, summaryPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		fmt.Printf("Summary written to %s\n", summaryPath)
	}
	return nil
}
