package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (default: first of ds/date/Date)
	ValueColumn string // Column name for values (default: "y")
	DateFormat  string // Date format (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads a time series from an io.Reader. The input must
// have a header row naming the date and value columns.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	header, rows, err := readCSV(r, opts)
	if err != nil {
		return nil, err
	}

	dateIdx := findColumn(header, opts.DateColumn, "ds", "date", "Date")
	valueIdx := findColumn(header, opts.ValueColumn, "y", "value", "Value")
	if dateIdx < 0 {
		return nil, errors.New("date column not found in CSV header")
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("value column %q not found in CSV header", opts.ValueColumn)
	}

	var timestamps []time.Time
	var values []float64

	for _, record := range rows {
		if valueIdx >= len(record) || dateIdx >= len(record) {
			continue
		}
		v, ok := parseCell(record[valueIdx])
		if !ok || math.IsNaN(v) {
			continue
		}
		ts, err := parseDate(record[dateIdx], opts.DateFormat)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	return NewWithTimestamps(timestamps, values)
}

// LoadFrameCSV loads regressor columns from a CSV file into a Frame aligned
// to the file's date column. Empty, NA, NaN, and null cells become absent
// values. With no explicit column list, every non-date column is loaded.
func LoadFrameCSV(filename string, columns []string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFrameFromReader(file, columns, opts)
}

// LoadFrameFromReader loads regressor columns from an io.Reader.
func LoadFrameFromReader(r io.Reader, columns []string, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	header, rows, err := readCSV(r, opts)
	if err != nil {
		return nil, err
	}

	dateIdx := findColumn(header, opts.DateColumn, "ds", "date", "Date")
	if dateIdx < 0 {
		return nil, errors.New("date column not found in CSV header")
	}

	if len(columns) == 0 {
		for i, h := range header {
			if i != dateIdx {
				columns = append(columns, strings.TrimSpace(h))
			}
		}
	}

	colIdx := make([]int, len(columns))
	for i, name := range columns {
		colIdx[i] = findColumn(header, name)
		if colIdx[i] < 0 {
			return nil, fmt.Errorf("regressor column %q not found in CSV header", name)
		}
	}

	var timestamps []time.Time
	cells := make([][]float64, len(columns))

	for _, record := range rows {
		if dateIdx >= len(record) {
			continue
		}
		ts, err := parseDate(record[dateIdx], opts.DateFormat)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
		for i, idx := range colIdx {
			v := math.NaN()
			if idx < len(record) {
				if parsed, ok := parseCell(record[idx]); ok {
					v = parsed
				}
			}
			cells[i] = append(cells[i], v)
		}
	}

	if len(timestamps) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	frame, err := NewFrame(timestamps)
	if err != nil {
		return nil, err
	}
	for i, name := range columns {
		if err := frame.AddColumn(name, cells[i]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// SaveCSV saves a time series to a CSV file with ds,y columns.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	writer.WriteString("ds,y\n")
	for i, v := range series.Values {
		writer.WriteString(series.Timestamps[i].Format("2006-01-02"))
		writer.WriteString(",")
		writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		writer.WriteString("\n")
	}

	return nil
}

// readCSV reads the header row and all data rows.
func readCSV(r io.Reader, opts *CSVOptions) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, nil, err
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// findColumn returns the index of the first matching header name. The first
// non-empty candidate wins.
func findColumn(header []string, candidates ...string) int {
	for _, want := range candidates {
		if want == "" {
			continue
		}
		for i, h := range header {
			if strings.TrimSpace(strings.Trim(h, "\"")) == want {
				return i
			}
		}
	}
	return -1
}

// parseCell parses a numeric cell; empty and NA-like cells report not-ok.
func parseCell(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.Trim(raw, "\""))
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDate tries the configured format before a set of common fallbacks.
func parseDate(raw string, format string) (time.Time, error) {
	s := strings.TrimSpace(strings.Trim(raw, "\""))
	formats := []string{format, "2006-01-02", "2006-01-02T15:04:05", "2006/01/02", "2006"}
	var ts time.Time
	var err error
	for _, f := range formats {
		if f == "" {
			continue
		}
		ts, err = time.Parse(f, s)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
