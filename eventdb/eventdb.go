/*
Package eventdb defines the types that make up a compiled performance event
database: per-architecture event tables keyed by event name, and a top-level
map from CPU architecture signature (e.g., "GenuineIntel-6-94") to table.
Generated database files import this package; all lookups are plain map
indexing, so the query path performs no parsing and no allocation.
*/
package eventdb

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// MultiHex holds a numeric field that arrives with one or two comma-separated
// components, e.g., an event code of "0x03" or "0x03,0x04". Paired is set
// when the second component is present.
type MultiHex struct {
	First  uint64
	Second uint64
	Paired bool
}

func (m MultiHex) String() string {
	if m.Paired {
		return fmt.Sprintf("%#x,%#x", m.First, m.Second)
	}
	return fmt.Sprintf("%#x", m.First)
}

// CounterKind distinguishes fixed-function counters from general-purpose
// programmable counters.
type CounterKind int

const (
	CounterProgrammable CounterKind = iota
	CounterFixed
)

func (k CounterKind) String() string {
	if k == CounterFixed {
		return "Fixed"
	}
	return "Programmable"
}

// Counter describes which hardware counters an event may be scheduled on.
// Mask holds one bit per eligible counter index.
type Counter struct {
	Kind CounterKind
	Mask uint8
}

func (c Counter) String() string {
	return fmt.Sprintf("%s(%#b)", c.Kind, c.Mask)
}

// PebsType indicates whether an event supports precise event-based sampling.
type PebsType int

const (
	PebsRegular PebsType = iota // counting only
	PebsOrRegular
	PebsOnly
)

func (p PebsType) String() string {
	switch p {
	case PebsOrRegular:
		return "PebsOrRegular"
	case PebsOnly:
		return "PebsOnly"
	default:
		return "Regular"
	}
}

// NullableU64 is a numeric field whose source value may be the literal "null".
type NullableU64 struct {
	Value uint64
	Valid bool
}

// NullableU8 is an 8-bit bitmask field whose source value may be "null".
type NullableU8 struct {
	Value uint8
	Valid bool
}

// EventDescriptor is one performance-counter event definition. Field names
// follow the vendor dataset's record schema; string fields hold "" where the
// source carried the "null" sentinel.
type EventDescriptor struct {
	EventName         string
	EventCode         MultiHex
	UMask             MultiHex
	BriefDescription  string
	PublicDescription string
	Counter           Counter
	CounterHTOff      NullableU8
	PEBSCounters      NullableU8
	SampleAfterValue  uint64
	MSRIndex          MultiHex
	MSRValue          uint64
	TakenAlone        bool
	CounterMask       uint8
	Invert            bool
	AnyThread         bool
	EdgeDetect        bool
	PEBS              PebsType
	PreciseStore      bool
	DataLA            bool
	L1HitIndication   bool
	Errata            string
	Offcore           bool
	Unit              string
	Filter            string
	ExtSel            bool
	CollectPEBSRecord NullableU64
	ELLC              string
	EvenStatus        uint64
	PDIRCounter       string
	Deprecated        bool
	FCMask            uint8
	FilterValue       uint64
	PortMask          uint8
	UMaskExt          uint8
	CounterType       string
	Uncore            bool
}

// EventTable maps event name to descriptor for one architecture.
type EventTable map[string]EventDescriptor

// FindEvent returns the descriptor for the named event. The second return
// value is false when the event is not in the table; the descriptor is never
// defaulted.
func (t EventTable) FindEvent(name string) (EventDescriptor, bool) {
	ev, ok := t[name]
	return ev, ok
}

// EventNames returns the table's event names in sorted order.
func (t EventTable) EventNames() []string {
	names := maps.Keys(t)
	slices.Sort(names)
	return names
}

// Database maps architecture signature to event table. Multiple signatures
// may share one table.
type Database map[string]*EventTable

// FindEvents returns the event table for the given architecture signature.
func (db Database) FindEvents(signature string) (*EventTable, bool) {
	t, ok := db[signature]
	return t, ok
}

// FindEvent looks up one event in the table bound to the given signature.
func (db Database) FindEvent(signature string, name string) (EventDescriptor, bool) {
	t, ok := db[signature]
	if !ok {
		return EventDescriptor{}, false
	}
	return t.FindEvent(name)
}

// Signatures returns the database's architecture signatures in sorted order.
func (db Database) Signatures() []string {
	sigs := maps.Keys(db)
	slices.Sort(sigs)
	return sigs
}
