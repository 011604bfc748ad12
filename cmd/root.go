// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pmudb/cmd/compile"
	"pmudb/cmd/inspect"
	"pmudb/internal/common"
	"pmudb/internal/util"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten by ldflags in Makefile

// LongAppName is the name of the application
const LongAppName = "PMU Event Database Compiler"

var examples = []string{
	fmt.Sprintf("  Compile the perfmon dataset:            $ %s compile --dataset ./x86data/perfmon_data", common.AppName),
	fmt.Sprintf("  Compile selected architectures:         $ %s compile --dataset ./x86data/perfmon_data --arch skylake,haswell", common.AppName),
	fmt.Sprintf("  Inspect a dataset without emitting:     $ %s inspect --dataset ./x86data/perfmon_data", common.AppName),
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:                common.AppName,
	Short:              common.AppName,
	Long:               fmt.Sprintf(`%s (%s) compiles vendor PMU event catalogs into a static, read-only lookup database.`, LongAppName, common.AppName),
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication,
	PersistentPostRunE: terminateApplication,
	Version:            gVersion,
}

var (
	// logging
	flagDebug     bool
	flagLogStdOut bool
	// output
	flagOutputDir string
)

const (
	flagDebugName     = "debug"
	flagLogStdOutName = "log-stdout"
	flagOutputDirName = "output"
)

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddGroup([]*cobra.Group{{ID: "primary", Title: "Commands:"}}...)
	rootCmd.AddCommand(compile.Cmd)
	rootCmd.AddCommand(inspect.Cmd)
	// Global (persistent) flags
	rootCmd.PersistentFlags().BoolVar(&flagDebug, flagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, flagLogStdOutName, false, "write logs to stdout")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, flagOutputDirName, "", "override the output directory")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	err := rootCmd.Execute()
	if err != nil {
		terminateErr := terminateApplication(rootCmd, os.Args)
		if terminateErr != nil {
			slog.Error("Error terminating application", slog.String("error", terminateErr.Error()))
			fmt.Printf("Error: %v\n", terminateErr)
		}
		os.Exit(1)
	}
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	// verify requested output directory exists, default to the working directory
	outputDir := flagOutputDir
	if outputDir != "" {
		var err error
		outputDir, err = util.AbsPath(outputDir)
		if err != nil {
			fmt.Printf("Error: failed to expand output dir: %v\n", err)
			os.Exit(1)
		}
		exists, err := util.DirectoryExists(outputDir)
		if err != nil {
			fmt.Printf("Error: failed to determine if output dir exists: %v\n", err)
			os.Exit(1)
		}
		if !exists {
			fmt.Printf("Error: requested output dir, %s, does not exist\n", outputDir)
			os.Exit(1)
		}
	} else {
		var err error
		outputDir, err = os.Getwd()
		if err != nil {
			fmt.Printf("Error: failed to determine working directory: %v\n", err)
			os.Exit(1)
		}
	}
	// configure logging
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
		logOpts.AddSource = false
	}
	if flagLogStdOut {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &logOpts)))
	} else { // log to file in current directory
		var err error
		gLogFile, err = os.OpenFile(common.AppName+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			fmt.Printf("Error: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	}
	slog.Info("Starting up", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	// set app context
	cmd.Parent().SetContext(
		context.WithValue(
			context.Background(),
			common.AppContext{},
			common.AppContext{
				OutputDir: outputDir,
				Version:   gVersion,
				Debug:     flagDebug},
		),
	)
	return nil
}

func terminateApplication(cmd *cobra.Command, args []string) error {
	slog.Info("Shutting down", slog.String("app", common.AppName))
	if gLogFile != nil {
		gLogFile.Close()
		gLogFile = nil
	}
	return nil
}
