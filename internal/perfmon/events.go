// Package perfmon decodes the per-architecture event data files of the
// perfmon dataset into typed event descriptors. Every record field arrives
// string-encoded; each semantic field type (numeral, boolean, bit-list,
// enum, nullable) has its own decoder, and any violation is fatal for the
// whole compile pass.
package perfmon

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/json"
	"fmt"
	"os"

	"pmudb/eventdb"
)

// RawEvent mirrors one record of a data file. The all-lowercase field names
// are a fixed wire contract with the vendor dataset; files omit fields that
// do not apply to their category (core vs. uncore).
type RawEvent struct {
	EventName         string `json:"eventname"`
	EventCode         string `json:"eventcode"`
	UMask             string `json:"umask"`
	BriefDescription  string `json:"briefdescription"`
	PublicDescription string `json:"publicdescription"`
	Counter           string `json:"counter"`
	CounterHTOff      string `json:"counterhtoff"`
	PEBSCounters      string `json:"pebscounters"`
	SampleAfterValue  string `json:"sampleafter_value"`
	MSRIndex          string `json:"msrindex"`
	MSRValue          string `json:"msrvalue"`
	TakenAlone        string `json:"takenalone"`
	CounterMask       string `json:"countermask"`
	Invert            string `json:"invert"`
	AnyThread         string `json:"any_thread"`
	EdgeDetect        string `json:"edgedetect"`
	PEBS              string `json:"pebs"`
	PreciseStore      string `json:"precisestore"`
	DataLA            string `json:"data_la"`
	L1HitIndication   string `json:"l1_hit_indication"`
	Errata            string `json:"errata"`
	Offcore           string `json:"offcore"`
	Unit              string `json:"unit"`
	Filter            string `json:"filter"`
	ExtSel            string `json:"xxt_sel"`
	CollectPEBSRecord string `json:"collect_pebsrecord"`
	ELLC              string `json:"ellc"`
	EvenStatus        string `json:"even_status"`
	PDIRCounter       string `json:"pdir_counter"`
	Deprecated        string `json:"deprecated"`
	FCMask            string `json:"fcmask"`
	FilterValue       string `json:"filter_value"`
	PortMask          string `json:"port_mask"`
	UMaskExt          string `json:"umask_ext"`
	CounterType       string `json:"counter_type"`
}

// fieldDecoder applies the per-field decoders with a sticky error, so Decode
// reads as a flat descriptor literal. The first failing field wins; absent
// (empty) fields take the descriptor zero value, present fields must decode
// exactly.
type fieldDecoder struct {
	err error
}

func (d *fieldDecoder) fail(field string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("field %s: %w", field, err)
	}
}

func (d *fieldDecoder) number(field, s string) uint64 {
	if d.err != nil || s == "" {
		return 0
	}
	v, err := parseNumber(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) u8(field, s string) uint8 {
	if d.err != nil || s == "" {
		return 0
	}
	v, err := parseU8(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) boolean(field, s string) bool {
	if d.err != nil || s == "" {
		return false
	}
	v, err := parseBool(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) multiHex(field, s string) eventdb.MultiHex {
	if d.err != nil || s == "" {
		return eventdb.MultiHex{}
	}
	v, err := parseMultiHex(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) counter(field, s string) eventdb.Counter {
	if d.err != nil {
		return eventdb.Counter{}
	}
	v, err := parseCounter(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) pebs(field, s string) eventdb.PebsType {
	if d.err != nil || s == "" {
		return eventdb.PebsRegular
	}
	v, err := parsePebs(s)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) nullableNumber(field, s string) eventdb.NullableU64 {
	if d.err != nil || s == "" || s == "null" {
		return eventdb.NullableU64{}
	}
	v, err := parseNumber(s)
	if err != nil {
		d.fail(field, err)
	}
	return eventdb.NullableU64{Value: v, Valid: true}
}

func (d *fieldDecoder) nullableMask(field, s string) eventdb.NullableU8 {
	if d.err != nil || s == "" || s == "null" {
		return eventdb.NullableU8{}
	}
	v, err := parseCounterMask(s)
	if err != nil {
		d.fail(field, err)
	}
	return eventdb.NullableU8{Value: v, Valid: true}
}

// Decode converts a raw record into a typed descriptor. uncore marks
// descriptors that originate from an _uncore_ data file.
func (r *RawEvent) Decode(uncore bool) (eventdb.EventDescriptor, error) {
	if r.EventName == "" {
		return eventdb.EventDescriptor{}, fmt.Errorf("%w: record has no eventname", ErrMalformedRecordSchema)
	}
	d := &fieldDecoder{}
	ev := eventdb.EventDescriptor{
		EventName:         r.EventName,
		EventCode:         d.multiHex("eventcode", r.EventCode),
		UMask:             d.multiHex("umask", r.UMask),
		BriefDescription:  r.BriefDescription,
		PublicDescription: r.PublicDescription,
		Counter:           d.counter("counter", r.Counter),
		CounterHTOff:      d.nullableMask("counterhtoff", r.CounterHTOff),
		PEBSCounters:      d.nullableMask("pebscounters", r.PEBSCounters),
		SampleAfterValue:  d.number("sampleafter_value", r.SampleAfterValue),
		MSRIndex:          d.multiHex("msrindex", r.MSRIndex),
		MSRValue:          d.number("msrvalue", r.MSRValue),
		TakenAlone:        d.boolean("takenalone", r.TakenAlone),
		CounterMask:       d.u8("countermask", r.CounterMask),
		Invert:            d.boolean("invert", r.Invert),
		AnyThread:         d.boolean("any_thread", r.AnyThread),
		EdgeDetect:        d.boolean("edgedetect", r.EdgeDetect),
		PEBS:              d.pebs("pebs", r.PEBS),
		PreciseStore:      d.boolean("precisestore", r.PreciseStore),
		DataLA:            d.boolean("data_la", r.DataLA),
		L1HitIndication:   d.boolean("l1_hit_indication", r.L1HitIndication),
		Errata:            nullString(r.Errata),
		Offcore:           d.boolean("offcore", r.Offcore),
		Unit:              nullString(r.Unit),
		Filter:            nullString(r.Filter),
		ExtSel:            d.boolean("xxt_sel", r.ExtSel),
		CollectPEBSRecord: d.nullableNumber("collect_pebsrecord", r.CollectPEBSRecord),
		ELLC:              nullString(r.ELLC),
		EvenStatus:        d.number("even_status", r.EvenStatus),
		PDIRCounter:       nullString(r.PDIRCounter),
		Deprecated:        d.boolean("deprecated", r.Deprecated),
		FCMask:            d.u8("fcmask", r.FCMask),
		FilterValue:       d.number("filter_value", r.FilterValue),
		PortMask:          d.u8("port_mask", r.PortMask),
		UMaskExt:          d.u8("umask_ext", r.UMaskExt),
		CounterType:       nullString(r.CounterType),
		Uncore:            uncore,
	}
	if d.err != nil {
		return eventdb.EventDescriptor{}, d.err
	}
	return ev, nil
}

// ReadFile parses one data file into typed descriptors. The file is read
// whole; the handle does not outlive the call. Any record failure aborts
// with the offending file, field, and raw value in the error.
func ReadFile(path string, uncore bool) ([]eventdb.EventDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, path, err)
	}
	var raw []RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecordSchema, path, err)
	}
	events := make([]eventdb.EventDescriptor, 0, len(raw))
	for i := range raw {
		ev, err := raw[i].Decode(uncore)
		if err != nil {
			return nil, fmt.Errorf("%s: event %q: %w", path, raw[i].EventName, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
