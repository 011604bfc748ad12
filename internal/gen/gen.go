// Package gen emits the compiled event database as a generated Go source
// file: one event-table variable per architecture plus the top-level
// signature map, all plain composite literals so the consuming process pays
// no parsing or allocation cost at lookup time.
package gen

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"pmudb/eventdb"
	"pmudb/internal/compile"
)

// Options configure the emitted file.
type Options struct {
	Package string // package clause of the generated file
	Out     string // output path
}

// Emit renders the database and writes it to Options.Out. The write is
// atomic: the rendered source must format cleanly before the output file is
// replaced, so a failing pass never leaves a partial artifact.
func Emit(res *compile.Result, opts Options) error {
	src, err := Render(res, opts.Package)
	if err != nil {
		return err
	}
	return writeAtomic(opts.Out, src)
}

// Render produces the gofmt-formatted source of the generated file.
func Render(res *compile.Result, pkg string) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by pmudb. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "import \"pmudb/eventdb\"\n\n")

	for _, variable := range res.Architectures() {
		table := res.Tables[variable]
		fmt.Fprintf(&b, "// %s holds %d events.\n", variable, len(table))
		fmt.Fprintf(&b, "var %s = eventdb.EventTable{\n", variable)
		for _, name := range table.EventNames() {
			ev := table[name]
			fmt.Fprintf(&b, "\t%q: %s,\n", name, descriptorLiteral(ev))
		}
		fmt.Fprintf(&b, "}\n\n")
	}

	fmt.Fprintf(&b, "// CounterMap maps architecture signature to event table.\n")
	fmt.Fprintf(&b, "var CounterMap = eventdb.Database{\n")
	for _, signature := range sortedKeys(res.Signatures) {
		fmt.Fprintf(&b, "\t%q: &%s,\n", signature, res.Signatures[signature])
	}
	fmt.Fprintf(&b, "}\n")

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return src, nil
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// descriptorLiteral renders one descriptor as a composite literal, omitting
// zero-valued fields to keep the generated file reviewable.
func descriptorLiteral(ev eventdb.EventDescriptor) string {
	var fields []string
	add := func(f string, args ...any) {
		fields = append(fields, fmt.Sprintf(f, args...))
	}

	add("EventName: %q", ev.EventName)
	if ev.EventCode != (eventdb.MultiHex{}) {
		add("EventCode: %s", multiHexLiteral(ev.EventCode))
	}
	if ev.UMask != (eventdb.MultiHex{}) {
		add("UMask: %s", multiHexLiteral(ev.UMask))
	}
	if ev.BriefDescription != "" {
		add("BriefDescription: %q", ev.BriefDescription)
	}
	if ev.PublicDescription != "" {
		add("PublicDescription: %q", ev.PublicDescription)
	}
	if ev.Counter != (eventdb.Counter{}) {
		add("Counter: %s", counterLiteral(ev.Counter))
	}
	if ev.CounterHTOff.Valid {
		add("CounterHTOff: eventdb.NullableU8{Value: %#b, Valid: true}", ev.CounterHTOff.Value)
	}
	if ev.PEBSCounters.Valid {
		add("PEBSCounters: eventdb.NullableU8{Value: %#b, Valid: true}", ev.PEBSCounters.Value)
	}
	if ev.SampleAfterValue != 0 {
		add("SampleAfterValue: %d", ev.SampleAfterValue)
	}
	if ev.MSRIndex != (eventdb.MultiHex{}) {
		add("MSRIndex: %s", multiHexLiteral(ev.MSRIndex))
	}
	if ev.MSRValue != 0 {
		add("MSRValue: %#x", ev.MSRValue)
	}
	if ev.TakenAlone {
		add("TakenAlone: true")
	}
	if ev.CounterMask != 0 {
		add("CounterMask: %d", ev.CounterMask)
	}
	if ev.Invert {
		add("Invert: true")
	}
	if ev.AnyThread {
		add("AnyThread: true")
	}
	if ev.EdgeDetect {
		add("EdgeDetect: true")
	}
	if ev.PEBS != eventdb.PebsRegular {
		add("PEBS: eventdb.%s", pebsName(ev.PEBS))
	}
	if ev.PreciseStore {
		add("PreciseStore: true")
	}
	if ev.DataLA {
		add("DataLA: true")
	}
	if ev.L1HitIndication {
		add("L1HitIndication: true")
	}
	if ev.Errata != "" {
		add("Errata: %q", ev.Errata)
	}
	if ev.Offcore {
		add("Offcore: true")
	}
	if ev.Unit != "" {
		add("Unit: %q", ev.Unit)
	}
	if ev.Filter != "" {
		add("Filter: %q", ev.Filter)
	}
	if ev.ExtSel {
		add("ExtSel: true")
	}
	if ev.CollectPEBSRecord.Valid {
		add("CollectPEBSRecord: eventdb.NullableU64{Value: %d, Valid: true}", ev.CollectPEBSRecord.Value)
	}
	if ev.ELLC != "" {
		add("ELLC: %q", ev.ELLC)
	}
	if ev.EvenStatus != 0 {
		add("EvenStatus: %d", ev.EvenStatus)
	}
	if ev.PDIRCounter != "" {
		add("PDIRCounter: %q", ev.PDIRCounter)
	}
	if ev.Deprecated {
		add("Deprecated: true")
	}
	if ev.FCMask != 0 {
		add("FCMask: %#x", ev.FCMask)
	}
	if ev.FilterValue != 0 {
		add("FilterValue: %#x", ev.FilterValue)
	}
	if ev.PortMask != 0 {
		add("PortMask: %#x", ev.PortMask)
	}
	if ev.UMaskExt != 0 {
		add("UMaskExt: %#x", ev.UMaskExt)
	}
	if ev.CounterType != "" {
		add("CounterType: %q", ev.CounterType)
	}
	if ev.Uncore {
		add("Uncore: true")
	}

	return "{" + strings.Join(fields, ", ") + "}"
}

func multiHexLiteral(m eventdb.MultiHex) string {
	if m.Paired {
		return fmt.Sprintf("eventdb.MultiHex{First: %#x, Second: %#x, Paired: true}", m.First, m.Second)
	}
	return fmt.Sprintf("eventdb.MultiHex{First: %#x}", m.First)
}

func counterLiteral(c eventdb.Counter) string {
	if c.Kind == eventdb.CounterFixed {
		return fmt.Sprintf("eventdb.Counter{Kind: eventdb.CounterFixed, Mask: %#b}", c.Mask)
	}
	return fmt.Sprintf("eventdb.Counter{Mask: %#b}", c.Mask)
}

func pebsName(p eventdb.PebsType) string {
	switch p {
	case eventdb.PebsOrRegular:
		return "PebsOrRegular"
	case eventdb.PebsOnly:
		return "PebsOnly"
	default:
		return "PebsRegular"
	}
}

// writeAtomic writes src to a temp file in the destination directory and
// renames it into place.
func writeAtomic(out string, src []byte) error {
	dir := filepath.Dir(out)
	tmp, err := os.CreateTemp(dir, filepath.Base(out)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return fmt.Errorf("writing generated source: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return fmt.Errorf("replacing %s: %w", out, err)
	}
	return nil
}
