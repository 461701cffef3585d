package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame holds named regressor columns aligned to a shared timestamp index.
// A cell may be absent, which is how forward-facing regressors that are not
// yet known beyond a training cutoff are represented. Absent cells are stored
// as NaN internally and are never exposed as numeric values: every accessor
// reports presence explicitly.
type Frame struct {
	timestamps []time.Time
	names      []string
	columns    map[string][]float64
}

// NewFrame creates an empty frame over the given timestamp index.
// Timestamps must be strictly increasing.
func NewFrame(timestamps []time.Time) (*Frame, error) {
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, errors.New("timestamps must be strictly increasing")
		}
	}
	ts := make([]time.Time, len(timestamps))
	copy(ts, timestamps)
	return &Frame{
		timestamps: ts,
		columns:    make(map[string][]float64),
	}, nil
}

// AddColumn adds a fully observed regressor column. NaN entries mark absent
// cells.
func (f *Frame) AddColumn(name string, values []float64) error {
	if name == "" {
		return errors.New("column name must not be empty")
	}
	if len(values) != len(f.timestamps) {
		return fmt.Errorf("column %q has %d values, index has %d timestamps", name, len(values), len(f.timestamps))
	}
	if _, ok := f.columns[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.columns[name] = col
	f.names = append(f.names, name)
	return nil
}

// AddSparse adds a regressor column from per-timestamp observations. Cells
// without an observation are absent. Observations at timestamps outside the
// index are rejected.
func (f *Frame) AddSparse(name string, obs map[time.Time]float64) error {
	values := make([]float64, len(f.timestamps))
	for i := range values {
		values[i] = math.NaN()
	}
	for t, v := range obs {
		i := f.index(t)
		if i < 0 {
			return fmt.Errorf("observation at %s is not on the frame index", t.Format(time.RFC3339))
		}
		values[i] = v
	}
	return f.AddColumn(name, values)
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

// Len returns the number of timestamps in the frame index.
func (f *Frame) Len() int {
	return len(f.timestamps)
}

// Timestamps returns a copy of the frame index.
func (f *Frame) Timestamps() []time.Time {
	ts := make([]time.Time, len(f.timestamps))
	copy(ts, f.timestamps)
	return ts
}

// Value returns the value of column name at timestamp t. The second return
// is false when the column does not exist, t is not on the index, or the
// cell is absent.
func (f *Frame) Value(name string, t time.Time) (float64, bool) {
	col, ok := f.columns[name]
	if !ok {
		return 0, false
	}
	i := f.index(t)
	if i < 0 || math.IsNaN(col[i]) {
		return 0, false
	}
	return col[i], true
}

// At returns all column values present at timestamp t. Absent cells are
// omitted from the map, never filled with a placeholder.
func (f *Frame) At(t time.Time) map[string]float64 {
	i := f.index(t)
	if i < 0 {
		return nil
	}
	out := make(map[string]float64, len(f.names))
	for _, name := range f.names {
		v := f.columns[name][i]
		if !math.IsNaN(v) {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Before returns a new frame restricted to timestamps strictly before t.
// This is the truncation the walkforward backtester uses to keep future
// regressor values away from model fitting.
func (f *Frame) Before(t time.Time) *Frame {
	cut := sort.Search(len(f.timestamps), func(i int) bool {
		return !f.timestamps[i].Before(t)
	})

	out := &Frame{
		timestamps: append([]time.Time(nil), f.timestamps[:cut]...),
		names:      append([]string(nil), f.names...),
		columns:    make(map[string][]float64, len(f.names)),
	}
	for _, name := range f.names {
		out.columns[name] = append([]float64(nil), f.columns[name][:cut]...)
	}
	return out
}

// Column returns the named column as a Series containing only the present
// observations. The second return is false when the column does not exist.
func (f *Frame) Column(name string) (*Series, bool) {
	col, ok := f.columns[name]
	if !ok {
		return nil, false
	}
	var ts []time.Time
	var vals []float64
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		ts = append(ts, f.timestamps[i])
		vals = append(vals, v)
	}
	return &Series{Timestamps: ts, Values: vals, Name: name}, true
}

// AlignedTo reports whether the frame index matches the series timestamps
// exactly.
func (f *Frame) AlignedTo(s *Series) bool {
	if len(f.timestamps) != len(s.Timestamps) {
		return false
	}
	for i := range f.timestamps {
		if !f.timestamps[i].Equal(s.Timestamps[i]) {
			return false
		}
	}
	return true
}

// index locates timestamp t on the frame index, or -1.
func (f *Frame) index(t time.Time) int {
	i := sort.Search(len(f.timestamps), func(i int) bool {
		return !f.timestamps[i].Before(t)
	})
	if i < len(f.timestamps) && f.timestamps[i].Equal(t) {
		return i
	}
	return -1
}
