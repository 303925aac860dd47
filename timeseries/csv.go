package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sartorproj/sarimax/errs"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (default: first of ds/date/Date/month)
	ValueColumn string // Column name for values (default: "y")
	IDColumn    string // Column name for series ID (optional, for filtering)
	IDFilter    string // Value to filter by ID column
	DateFormat  string // Date format tried first (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip before the header
	Name        string // Series name
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

var fallbackDateFormats = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2006",
}

// LoadCSV loads a monthly time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	return s, nil
}

// LoadCSVFromReader loads a monthly time series from an io.Reader. A header row with a
// date column and a value column is required; the resulting index must be monthly and
// gap-free. Missing values (empty, NA, NaN, null) are rejected because they would
// open a gap in the index.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	valueIdx, dateIdx, idIdx := -1, -1, -1
	for i, h := range headers {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case h == opts.ValueColumn || (opts.ValueColumn == "" && (h == "y" || h == "value" || h == "Value")):
			valueIdx = i
		case opts.DateColumn != "" && h == opts.DateColumn:
			dateIdx = i
		case opts.DateColumn == "" && (h == "ds" || h == "date" || h == "Date" || h == "month" || h == "Month"):
			if dateIdx == -1 {
				dateIdx = i
			}
		case opts.IDColumn != "" && h == opts.IDColumn:
			idIdx = i
		}
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("value column %q not found in header %v", opts.ValueColumn, headers)
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("date column not found in header %v", headers)
	}

	var values []float64
	var timestamps []time.Time

	line := opts.SkipRows + 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if opts.IDFilter != "" && idIdx >= 0 && idIdx < len(record) {
			id := strings.TrimSpace(strings.Trim(record[idIdx], "\""))
			if id != opts.IDFilter {
				continue
			}
		}

		if valueIdx >= len(record) || dateIdx >= len(record) {
			return nil, fmt.Errorf("line %d: expected at least %d fields", line, max(valueIdx, dateIdx)+1)
		}

		valStr := strings.TrimSpace(strings.Trim(record[valueIdx], "\""))
		switch valStr {
		case "", "NA", "NaN", "null":
			return nil, errs.New(errs.KindNonFinite, "timeseries.LoadCSV", "line %d: missing value %q", line, valStr)
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing value: %w", line, err)
		}

		ts, err := parseDate(strings.TrimSpace(strings.Trim(record[dateIdx], "\"")), opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values = append(values, val)
		timestamps = append(timestamps, monthStart(ts))
	}

	if len(values) == 0 {
		return nil, errs.New(errs.KindInsufficientData, "timeseries.LoadCSV", "no valid data found in CSV")
	}

	s, err := NewWithTimestamps(timestamps, values)
	if err != nil {
		return nil, err
	}
	s.Name = opts.Name
	if s.Name == "" {
		s.Name = strings.TrimSpace(headers[valueIdx])
	}
	return s, nil
}

func parseDate(value, preferred string) (time.Time, error) {
	formats := fallbackDateFormats
	if preferred != "" {
		formats = append([]string{preferred}, fallbackDateFormats...)
	}
	for _, layout := range formats {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// SaveCSV saves a time series to a CSV file with ds,y columns.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, series)
}

// WriteCSV writes a time series as ds,y records.
func WriteCSV(w io.Writer, series *Series) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ds", "y"}); err != nil {
		return err
	}
	for i, v := range series.Values {
		ds := strconv.Itoa(i + 1)
		if i < len(series.Timestamps) {
			ds = series.Timestamps[i].Format("2006-01-02")
		}
		if err := writer.Write([]string{ds, strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
