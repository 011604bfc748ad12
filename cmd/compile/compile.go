// Package compile is a subcommand of the root command. It runs the offline
// compile pass over a perfmon dataset and emits the generated database file.
package compile

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"pmudb/internal/common"
	compiler "pmudb/internal/compile"
	"pmudb/internal/gen"
	"pmudb/internal/report"
	"pmudb/internal/util"
)

const cmdName = "compile"

var examples = []string{
	fmt.Sprintf("  Compile a dataset:              $ %s %s --dataset ./x86data/perfmon_data", common.AppName, cmdName),
	fmt.Sprintf("  Select architectures:           $ %s %s --arch skylake,haswellx", common.AppName, cmdName),
	fmt.Sprintf("  Write an xlsx summary as well:  $ %s %s --summary", common.AppName, cmdName),
	fmt.Sprintf("  Use a config file:              $ %s %s --config compile.yaml", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Compile a perfmon dataset into a generated Go database file",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

// flag vars
var (
	flagDataset string
	flagMapfile string
	flagOut     string
	flagPkg     string
	flagArchs   []string
	flagSummary bool
	flagConfig  string
)

// flag names
const (
	flagDatasetName = "dataset"
	flagMapfileName = "mapfile"
	flagOutName     = "out"
	flagPkgName     = "pkg"
	flagArchsName   = "arch"
	flagSummaryName = "summary"
	flagConfigName  = "config"
)

func init() {
	Cmd.Flags().StringVar(&flagDataset, flagDatasetName, ".", "root directory of the perfmon dataset")
	Cmd.Flags().StringVar(&flagMapfile, flagMapfileName, "mapfile.csv", "mapfile path, relative to the dataset root unless absolute")
	Cmd.Flags().StringVar(&flagOut, flagOutName, "counters.go", "generated file path, relative to the output directory unless absolute")
	Cmd.Flags().StringVar(&flagPkg, flagPkgName, "counters", "package name of the generated file")
	Cmd.Flags().StringSliceVar(&flagArchs, flagArchsName, nil, "limit compilation to these architectures")
	Cmd.Flags().BoolVar(&flagSummary, flagSummaryName, false, "also write an xlsx summary of the compiled database")
	Cmd.Flags().StringVar(&flagConfig, flagConfigName, "", "YAML file providing the flag values above; explicit flags win")
}

// configFile mirrors the --config YAML schema.
type configFile struct {
	Dataset string   `yaml:"dataset"`
	Mapfile string   `yaml:"mapfile"`
	Out     string   `yaml:"out"`
	Pkg     string   `yaml:"pkg"`
	Archs   []string `yaml:"archs"`
	Summary bool     `yaml:"summary"`
}

// applyConfig overlays config file values onto flags the user did not set
// explicitly on the command line.
func applyConfig(cmd *cobra.Command, path string) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg configFile
	if err := yaml.UnmarshalStrict(yamlFile, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Dataset != "" && !cmd.Flags().Changed(flagDatasetName) {
		flagDataset = cfg.Dataset
	}
	if cfg.Mapfile != "" && !cmd.Flags().Changed(flagMapfileName) {
		flagMapfile = cfg.Mapfile
	}
	if cfg.Out != "" && !cmd.Flags().Changed(flagOutName) {
		flagOut = cfg.Out
	}
	if cfg.Pkg != "" && !cmd.Flags().Changed(flagPkgName) {
		flagPkg = cfg.Pkg
	}
	if len(cfg.Archs) > 0 && !cmd.Flags().Changed(flagArchsName) {
		flagArchs = cfg.Archs
	}
	if cfg.Summary && !cmd.Flags().Changed(flagSummaryName) {
		flagSummary = cfg.Summary
	}
	return nil
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		exists, err := util.FileExists(flagConfig)
		if err != nil || !exists {
			err := fmt.Errorf("config file %s not found", flagConfig)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
	}
	if flagPkg == "" {
		err := fmt.Errorf("--%s must not be empty", flagPkgName)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := cmd.Parent().Context().Value(common.AppContext{}).(common.AppContext)
	if flagConfig != "" {
		if err := applyConfig(cmd, flagConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		slog.Debug("flag set on command line", slog.String("name", f.Name), slog.String("value", f.Value.String()))
	})

	dataset, err := util.AbsPath(flagDataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	exists, err := util.DirectoryExists(dataset)
	if err != nil || !exists {
		err := fmt.Errorf("dataset directory %s not found", dataset)
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

	out := flagOut
	if !filepath.IsAbs(out) {
		out = filepath.Join(appContext.OutputDir, out)
	}
	if err := gen.Emit(res, gen.Options{Package: flagPkg, Out: out}); err != nil {
		slog.Error("emission failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Printf("Compiled %d architectures, %d signatures, %d events to %s\n",
		len(res.Tables), len(res.Signatures), res.Stats.RecordsDecoded, out)

	if flagSummary {
		summaryPath := filepath.Join(appContext.OutputDir, "summary.xlsx")
		if err := report.WriteSummary(res, summaryPath); err != nil {
			slog.Error("summary rendering failed", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		fmt.Printf("Summary written to %s\n", summaryPath)
	}
	return nil
}
