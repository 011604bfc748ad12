package perfmon

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pmudb/eventdb"
)

var (
	ErrMalformedNumeral      = errors.New("malformed numeral")
	ErrInvalidBoolean        = errors.New("invalid boolean")
	ErrOversizedBitmask      = errors.New("bitmask exceeds 8 bits")
	ErrInvalidPebsType       = errors.New("invalid PEBS type")
	ErrMalformedRecordSchema = errors.New("malformed record schema")
	ErrMissingFile           = errors.New("missing data file")
)

// parseNumber decodes a string-encoded numeral. A "0x" prefix selects
// base-16, everything else parses base-10.
func parseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedNumeral, s)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumeral, s)
	}
	return v, nil
}

// parseBool accepts only the literal tokens "0" and "1".
func parseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidBoolean, s)
}

// parseCounterValues folds a comma-separated list of decimal counter indices
// into a bitmask, setting bit 1<<v per value. Empty tokens are skipped.
func parseCounterValues(s string) (uint64, error) {
	var mask uint64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q in %q", ErrMalformedNumeral, tok, s)
		}
		if v > 63 {
			return 0, fmt.Errorf("%w: counter index %d in %q", ErrOversizedBitmask, v, s)
		}
		mask |= 1 << v
	}
	return mask, nil
}

// parseCounterMask is parseCounterValues constrained to the 8-bit masks the
// descriptor carries.
func parseCounterMask(s string) (uint8, error) {
	mask, err := parseCounterValues(s)
	if err != nil {
		return 0, err
	}
	if mask > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %#b from %q", ErrOversizedBitmask, mask, s)
	}
	return uint8(mask), nil
}

// parseCounter decodes the counter-class field. A case-insensitive "fixed
// counter" or "fixed" prefix selects the fixed-counter class with the mask
// parsed from the remainder; any other string is a programmable-counter list.
func parseCounter(s string) (eventdb.Counter, error) {
	lower := strings.ToLower(s)
	var kind eventdb.CounterKind
	var list string
	switch {
	case strings.HasPrefix(lower, "fixed counter"):
		kind = eventdb.CounterFixed
		list = s[len("fixed counter"):]
	case strings.HasPrefix(lower, "fixed"):
		kind = eventdb.CounterFixed
		list = s[len("fixed"):]
	default:
		kind = eventdb.CounterProgrammable
		list = s
	}
	mask, err := parseCounterMask(list)
	if err != nil {
		return eventdb.Counter{}, err
	}
	return eventdb.Counter{Kind: kind, Mask: mask}, nil
}

// parsePebs maps the ordinal PEBS encoding: "0" counting only, "1" precise
// or counting, "2" precise only.
func parsePebs(s string) (eventdb.PebsType, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return eventdb.PebsRegular, nil
	case "1":
		return eventdb.PebsOrRegular, nil
	case "2":
		return eventdb.PebsOnly, nil
	}
	return eventdb.PebsRegular, fmt.Errorf("%w: %q", ErrInvalidPebsType, s)
}

// nullString resolves the "null" sentinel to an empty string; any other
// literal is the present value, used verbatim.
func nullString(s string) string {
	if s == "null" {
		return ""
	}
	return s
}

// parseMultiHex decodes a field carrying one or two comma-separated numeric
// components, e.g., event codes and MSR indices.
func parseMultiHex(s string) (eventdb.MultiHex, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return eventdb.MultiHex{}, fmt.Errorf("%w: %d components in %q, want 1 or 2", ErrMalformedRecordSchema, len(parts), s)
	}
	first, err := parseNumber(parts[0])
	if err != nil {
		return eventdb.MultiHex{}, err
	}
	if len(parts) == 1 {
		return eventdb.MultiHex{First: first}, nil
	}
	second, err := parseNumber(parts[1])
	if err != nil {
		return eventdb.MultiHex{}, err
	}
	return eventdb.MultiHex{First: first, Second: second, Paired: true}, nil
}

// parseU8 decodes a numeral that must fit the descriptor's 8-bit fields.
func parseU8(s string) (uint8, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %#x out of 8-bit range", ErrMalformedNumeral, v)
	}
	return uint8(v), nil
}
