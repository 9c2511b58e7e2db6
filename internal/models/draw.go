// Package models defines the core domain entities: draws, scrape job snapshots, and analysis results.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LottoType identifies a supported lottery.
type LottoType string

const (
	LottoThai LottoType = "thai"
)

// SupportedLottoTypes lists every lottery the service can scrape.
var SupportedLottoTypes = []LottoType{LottoThai}

// ParseLottoType normalises s and reports whether it names a supported lottery.
func ParseLottoType(s string) (LottoType, error) {
	t := LottoType(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedLottoTypes {
		if t == supported {
			return t, nil
		}
	}
	names := make([]string, len(SupportedLottoTypes))
	for i, supported := range SupportedLottoTypes {
		names[i] = string(supported)
	}
	sort.Strings(names)
	return "", fmt.Errorf("unsupported lottery type %q (supported: %s)", s, strings.Join(names, ", "))
}

// Draw is one historical lottery result as emitted by a source adapter.
type Draw struct {
	LottoType     LottoType `json:"lotto_type"`
	DrawDate      string    `json:"draw_date"`
	FirstPrize    string    `json:"first_prize"`
	LastTwoDigits string    `json:"last_two_digits,omitempty"`
}

// Validate checks draw field constraints.
func (d *Draw) Validate() error {
	if d.LottoType == "" {
		return errors.New("lotto type must not be empty")
	}
	if d.DrawDate == "" {
		return errors.New("draw date must not be empty")
	}
	if d.FirstPrize == "" {
		return errors.New("first prize must not be empty")
	}
	return nil
}

// DrawField selects which number of a draw feeds the analysis.
type DrawField string

const (
	FieldFirstPrize    DrawField = "first_prize"
	FieldLastTwoDigits DrawField = "last_two_digits"
)

// ParseDrawField validates a field selector coming from a client.
func ParseDrawField(s string) (DrawField, error) {
	switch f := DrawField(strings.TrimSpace(s)); f {
	case FieldFirstPrize, FieldLastTwoDigits:
		return f, nil
	default:
		return "", fmt.Errorf("unknown draw field %q (expected %q or %q)", s, FieldFirstPrize, FieldLastTwoDigits)
	}
}

// NumbersFrom extracts the selected field from newest-first draws and returns
// the values oldest-first, the order the analysis engine expects.
// Draws without a value for the field are skipped.
func NumbersFrom(draws []Draw, field DrawField) []string {
	numbers := make([]string, 0, len(draws))
	for i := len(draws) - 1; i >= 0; i-- {
		var v string
		switch field {
		case FieldFirstPrize:
			v = draws[i].FirstPrize
		case FieldLastTwoDigits:
			v = draws[i].LastTwoDigits
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		numbers = append(numbers, v)
	}
	return numbers
}
