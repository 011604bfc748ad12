// Package compile runs the offline pass that turns the perfmon dataset into
// an in-memory two-level event database, ready for emission. The pass is
// strictly sequential and all-or-nothing: the first parse failure aborts it.
package compile

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"pmudb/eventdb"
	"pmudb/internal/mapfile"
	"pmudb/internal/perfmon"
)

// Options configure a compile pass.
type Options struct {
	DatasetDir string   // root of the perfmon dataset
	Mapfile    string   // mapfile path; joined to DatasetDir when relative
	Archs      []string // optional filter on architecture variable names
}

// Stats summarizes a compile pass for diagnostics and the summary report.
type Stats struct {
	FilesParsed       int
	RecordsDecoded    int
	EventCounts       map[string]int // architecture variable -> table size
	OverwrittenEvents map[string]int // architecture variable -> names replaced by the last-write-wins merge
	SkippedSignatures int            // signatures whose later file-groups were ignored by the first-wins rule
	EventTypes        []string       // distinct event-type tags seen in the mapfile
}

// Result is the compiled database: the signature binding, one event table
// per architecture variable, and the pass statistics.
type Result struct {
	Signatures map[string]string             // signature -> architecture variable
	Tables     map[string]eventdb.EventTable // architecture variable -> events
	Stats      Stats
}

// Database assembles the two-level lookup structure from the result.
func (r *Result) Database() eventdb.Database {
	tables := make(map[string]*eventdb.EventTable, len(r.Tables))
	for variable := range r.Tables {
		table := r.Tables[variable]
		tables[variable] = &table
	}
	db := make(eventdb.Database, len(r.Signatures))
	for signature, variable := range r.Signatures {
		db[signature] = tables[variable]
	}
	return db
}

// Architectures returns the compiled architecture variable names, sorted.
func (r *Result) Architectures() []string {
	archs := make([]string, 0, len(r.Tables))
	for variable := range r.Tables {
		archs = append(archs, variable)
	}
	slices.Sort(archs)
	return archs
}

func (o Options) mapfilePath() string {
	if filepath.IsAbs(o.Mapfile) {
		return o.Mapfile
	}
	return filepath.Join(o.DatasetDir, o.Mapfile)
}

// Run executes the compile pass: load and group the mapfile, parse every
// in-scope data file, and accumulate the per-architecture tables. Signature
// binding is first-group-wins; event names within one architecture merge
// last-write-wins, with both behaviors counted in Stats.
func Run(opts Options) (*Result, error) {
	groups, err := mapfile.Load(opts.mapfilePath())
	if err != nil {
		return nil, err
	}

	archFilter := mapset.NewSet[string]()
	for _, arch := range opts.Archs {
		archFilter.Add(strings.ToUpper(arch))
	}

	res := &Result{
		Signatures: make(map[string]string),
		Tables:     make(map[string]eventdb.EventTable),
	}
	res.Stats.EventCounts = make(map[string]int)
	res.Stats.OverwrittenEvents = make(map[string]int)

	seenSignatures := mapset.NewSet[string]()
	eventTypes := mapset.NewSet[string]()

	for _, group := range groups {
		variable, err := mapfile.ArchVariable(group.FileName)
		if err != nil {
			return nil, err
		}
		for _, row := range group.Rows {
			eventTypes.Add(row.EventType)
		}
		if !archFilter.IsEmpty() && !archFilter.Contains(variable) {
			slog.Debug("architecture filtered out", slog.String("arch", variable), slog.String("file", group.FileName))
			continue
		}

		for _, row := range group.Rows {
			if seenSignatures.Contains(row.FamilyModel) {
				if bound := res.Signatures[row.FamilyModel]; bound != variable {
					// first file-group wins; later groups are not merged in
					res.Stats.SkippedSignatures++
					slog.Warn("signature already bound, skipping later file-group",
						slog.String("signature", row.FamilyModel),
						slog.String("bound", bound),
						slog.String("skipped", variable))
				}
				continue
			}
			seenSignatures.Add(row.FamilyModel)
			res.Signatures[row.FamilyModel] = variable
		}

		path := filepath.Join(opts.DatasetDir, group.FileName)
		events, err := perfmon.ReadFile(path, group.Suffix == mapfile.SuffixUncore)
		if err != nil {
			return nil, err
		}
		res.Stats.FilesParsed++
		res.Stats.RecordsDecoded += len(events)

		table := res.Tables[variable]
		if table == nil {
			table = make(eventdb.EventTable)
			res.Tables[variable] = table
		}
		for _, ev := range events {
			if _, exists := table[ev.EventName]; exists {
				res.Stats.OverwrittenEvents[variable]++
				slog.Debug("event overwritten by later record",
					slog.String("arch", variable),
					slog.String("event", ev.EventName),
					slog.String("file", group.FileName))
			}
			table[ev.EventName] = ev
		}
	}

	for variable, table := range res.Tables {
		res.Stats.EventCounts[variable] = len(table)
	}
	res.Stats.EventTypes = eventTypes.ToSlice()
	slices.Sort(res.Stats.EventTypes)

	slog.Info("compile pass complete",
		slog.Int("files", res.Stats.FilesParsed),
		slog.Int("records", res.Stats.RecordsDecoded),
		slog.Int("architectures", len(res.Tables)),
		slog.Int("signatures", len(res.Signatures)),
		slog.Int("skippedSignatures", res.Stats.SkippedSignatures))
	for variable, count := range res.Stats.OverwrittenEvents {
		slog.Info("events overwritten during merge", slog.String("arch", variable), slog.Int("count", count))
	}

	if len(res.Tables) == 0 {
		return nil, fmt.Errorf("no architectures compiled from %s", opts.mapfilePath())
	}
	return res, nil
}
