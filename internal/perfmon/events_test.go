package perfmon

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmudb/eventdb"
)

func TestDecodeCoreEvent(t *testing.T) {
	raw := RawEvent{
		EventName:         "MEM_TRANS_RETIRED.LOAD_LATENCY_GT_4",
		EventCode:         "0xcd",
		UMask:             "0x1",
		BriefDescription:  "Randomly selected loads with latency value being above 4.",
		PublicDescription: "Counts randomly selected loads when the latency from first dispatch to completion is greater than 4 cycles.",
		Counter:           "0,1,2,3",
		CounterHTOff:      "0,1,2,3",
		PEBSCounters:      "null",
		SampleAfterValue:  "100003",
		MSRIndex:          "0x3F6",
		MSRValue:          "0x4",
		TakenAlone:        "1",
		CounterMask:       "0",
		Invert:            "0",
		AnyThread:         "0",
		EdgeDetect:        "0",
		PEBS:              "2",
		PreciseStore:      "0",
		DataLA:            "1",
		L1HitIndication:   "0",
		Errata:            "SKL057",
		Offcore:           "0",
		Unit:              "null",
		Filter:            "null",
	}

	ev, err := raw.Decode(false)
	require.NoError(t, err)
	assert.Equal(t, "MEM_TRANS_RETIRED.LOAD_LATENCY_GT_4", ev.EventName)
	assert.Equal(t, eventdb.MultiHex{First: 0xcd}, ev.EventCode)
	assert.Equal(t, eventdb.MultiHex{First: 0x1}, ev.UMask)
	assert.Equal(t, eventdb.Counter{Kind: eventdb.CounterProgrammable, Mask: 0b1111}, ev.Counter)
	assert.Equal(t, eventdb.NullableU8{Value: 0b1111, Valid: true}, ev.CounterHTOff)
	assert.False(t, ev.PEBSCounters.Valid)
	assert.Equal(t, uint64(100003), ev.SampleAfterValue)
	assert.Equal(t, eventdb.MultiHex{First: 0x3f6}, ev.MSRIndex)
	assert.Equal(t, uint64(0x4), ev.MSRValue)
	assert.True(t, ev.TakenAlone)
	assert.False(t, ev.Invert)
	assert.Equal(t, eventdb.PebsOnly, ev.PEBS)
	assert.True(t, ev.DataLA)
	assert.Equal(t, "SKL057", ev.Errata)
	assert.Equal(t, "", ev.Unit)
	assert.Equal(t, "", ev.Filter)
	assert.False(t, ev.Uncore)
}

func TestDecodeUncoreEvent(t *testing.T) {
	// uncore records omit most core fields; absent fields take zero values
	raw := RawEvent{
		EventName:        "UNC_CHA_CLOCKTICKS",
		EventCode:        "0x0",
		UMask:            "0x0",
		BriefDescription: "Clockticks of the uncore caching and home agent (CHA)",
		Counter:          "0,1,2,3",
		Unit:             "CHA",
		Filter:           "null",
		FCMask:           "0x00",
		PortMask:         "0x00",
		UMaskExt:         "0x0",
		CounterType:      "PGMABLE",
	}

	ev, err := raw.Decode(true)
	require.NoError(t, err)
	assert.True(t, ev.Uncore)
	assert.Equal(t, "CHA", ev.Unit)
	assert.Equal(t, "PGMABLE", ev.CounterType)
	assert.Equal(t, uint64(0), ev.SampleAfterValue)
	assert.Equal(t, eventdb.PebsRegular, ev.PEBS)
	assert.False(t, ev.TakenAlone)
	assert.False(t, ev.CounterHTOff.Valid)
}

func TestDecodePairedEventCode(t *testing.T) {
	raw := RawEvent{
		EventName: "OFFCORE_RESPONSE",
		EventCode: "0xb7, 0xbb",
		UMask:     "0x1",
		Counter:   "0,1,2,3",
		MSRIndex:  "0x1a6,0x1a7",
	}
	ev, err := raw.Decode(false)
	require.NoError(t, err)
	assert.Equal(t, eventdb.MultiHex{First: 0xb7, Second: 0xbb, Paired: true}, ev.EventCode)
	assert.Equal(t, eventdb.MultiHex{First: 0x1a6, Second: 0x1a7, Paired: true}, ev.MSRIndex)
}

func TestDecodeFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawEvent)
		wantErr error
	}{
		{name: "bad boolean", mutate: func(r *RawEvent) { r.Invert = "yes" }, wantErr: ErrInvalidBoolean},
		{name: "bad numeral", mutate: func(r *RawEvent) { r.SampleAfterValue = "lots" }, wantErr: ErrMalformedNumeral},
		{name: "bad pebs", mutate: func(r *RawEvent) { r.PEBS = "7" }, wantErr: ErrInvalidPebsType},
		{name: "oversized counter list", mutate: func(r *RawEvent) { r.Counter = "0,9" }, wantErr: ErrOversizedBitmask},
		{name: "too many code components", mutate: func(r *RawEvent) { r.EventCode = "0x1,0x2,0x3" }, wantErr: ErrMalformedRecordSchema},
		{name: "no event name", mutate: func(r *RawEvent) { r.EventName = "" }, wantErr: ErrMalformedRecordSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawEvent{
				EventName: "INST_RETIRED.ANY",
				EventCode: "0x00",
				UMask:     "0x1",
				Counter:   "Fixed counter 0",
			}
			tt.mutate(&raw)
			_, err := raw.Decode(false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

const coreEventsJSON = `[
  {
    "eventname": "INST_RETIRED.ANY",
    "eventcode": "0x00",
    "umask": "0x1",
    "briefdescription": "Instructions retired from execution.",
    "counter": "Fixed counter 0",
    "sampleafter_value": "2000003",
    "msrindex": "0",
    "msrvalue": "0",
    "takenalone": "0",
    "countermask": "0",
    "invert": "0",
    "edgedetect": "0",
    "pebs": "1",
    "errata": "null"
  },
  {
    "eventname": "CPU_CLK_UNHALTED.THREAD",
    "eventcode": "0x3C",
    "umask": "0x0",
    "briefdescription": "Core cycles when the thread is not in halt state",
    "counter": "Fixed counter 1",
    "sampleafter_value": "2000003",
    "pebs": "0"
  }
]`

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Skylake_core_V42.json")
	require.NoError(t, os.WriteFile(path, []byte(coreEventsJSON), 0644))

	events, err := ReadFile(path, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "INST_RETIRED.ANY", events[0].EventName)
	assert.Equal(t, eventdb.Counter{Kind: eventdb.CounterFixed, Mask: 0b1}, events[0].Counter)
	assert.Equal(t, eventdb.PebsOrRegular, events[0].PEBS)
	assert.Equal(t, eventdb.Counter{Kind: eventdb.CounterFixed, Mask: 0b10}, events[1].Counter)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFile))
}

func TestReadFileMalformedSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Skylake_core_V42.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"eventname": "not an array"}`), 0644))

	_, err := ReadFile(path, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecordSchema))
}

func TestReadFileBadRecordIdentifiesFileAndField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Skylake_core_V42.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"eventname": "X", "invert": "maybe"}]`), 0644))

	_, err := ReadFile(path, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBoolean))
	assert.Contains(t, err.Error(), "Skylake_core_V42.json")
	assert.Contains(t, err.Error(), "invert")
	assert.Contains(t, err.Error(), "maybe")
}
