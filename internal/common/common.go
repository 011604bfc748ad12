// Package common defines data structures shared by the application commands,
// e.g., compile and inspect.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
)

var AppName = filepath.Base(os.Args[0])

// AppContext represents the application context that can be accessed from all commands.
type AppContext struct {
	OutputDir string // OutputDir is the directory where the application writes output files.
	Version   string // Version is the version of the application.
	Debug     bool   // Debug indicates whether debug logging is enabled.
}

type Flag struct {
	Name string
	Help string
}

type FlagGroup struct {
	GroupName string
	Flags     []Flag
}
