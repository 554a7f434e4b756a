// Package core holds the chart input model shared by the fetcher, the
// config builders and the renderers.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotObject is returned when a payload is not a single JSON object.
	ErrNotObject = errors.New("payload is not a JSON object")
	// ErrNonNumericValue is returned when a value in the object is not a JSON number.
	ErrNonNumericValue = errors.New("value is not a number")
	// ErrTrailingData is returned when bytes follow the closing brace.
	ErrTrailingData = errors.New("unexpected data after JSON object")
)

// Entry is one label/value pair of a LabeledSeries.
type Entry struct {
	Label string
	Value float64
}

// LabeledSeries is an ordered label -> value mapping. Order is the order in
// which labels first appeared in the source payload.
type LabeledSeries struct {
	entries []Entry
	index   map[string]int
}

// NewLabeledSeries builds a series from entries, keeping their order.
// A repeated label keeps its first position and takes the later value.
func NewLabeledSeries(entries ...Entry) LabeledSeries {
	var s LabeledSeries
	for _, e := range entries {
		s.set(e.Label, e.Value)
	}
	return s
}

func (s *LabeledSeries) set(label string, value float64) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[label]; ok {
		s.entries[i].Value = value
		return
	}
	s.index[label] = len(s.entries)
	s.entries = append(s.entries, Entry{Label: label, Value: value})
}

// Len returns the number of entries.
func (s LabeledSeries) Len() int { return len(s.entries) }

// Empty reports whether the series has no entries.
func (s LabeledSeries) Empty() bool { return len(s.entries) == 0 }

// Entries returns a copy of the entries in order.
func (s LabeledSeries) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Labels returns the labels in order.
func (s LabeledSeries) Labels() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Label
	}
	return out
}

// Values returns the values in label order.
func (s LabeledSeries) Values() []float64 {
	out := make([]float64, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Value
	}
	return out
}

// Value looks up the value for label.
func (s LabeledSeries) Value(label string) (float64, bool) {
	i, ok := s.index[label]
	if !ok {
		return 0, false
	}
	return s.entries[i].Value, true
}

// DecodeLabeledSeries reads exactly one JSON object of label -> number from r.
//
// Values are checked here rather than at render time: strings, booleans,
// null and nested values are rejected with ErrNonNumericValue.
func DecodeLabeledSeries(r io.Reader) (LabeledSeries, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var s LabeledSeries
	tok, err := dec.Token()
	if err != nil {
		return s, fmt.Errorf("read opening token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return s, ErrNotObject
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return LabeledSeries{}, fmt.Errorf("read key: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return LabeledSeries{}, fmt.Errorf("unexpected key token %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return LabeledSeries{}, fmt.Errorf("read value for %q: %w", label, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return LabeledSeries{}, fmt.Errorf("label %q: %w", label, ErrNonNumericValue)
		}
		v, err := num.Float64()
		if err != nil {
			return LabeledSeries{}, fmt.Errorf("label %q: %w", label, err)
		}
		s.set(label, v)
	}

	if _, err := dec.Token(); err != nil {
		return LabeledSeries{}, fmt.Errorf("read closing token: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return LabeledSeries{}, ErrTrailingData
	}
	return s, nil
}

// ParseLabeledSeries is DecodeLabeledSeries over a byte slice.
func ParseLabeledSeries(b []byte) (LabeledSeries, error) {
	return DecodeLabeledSeries(bytes.NewReader(b))
}
