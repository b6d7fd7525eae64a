package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"pairs-trading-lab/internal/domain"
)

// CSV errors
var (
	ErrMissingColumn = errors.New("csv header missing column")
	ErrBadRow        = errors.New("malformed csv row")
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// CSVResult holds parsed bars and the count of rows dropped for a missing close.
type CSVResult struct {
	Bars    []*domain.PriceBar
	Skipped int
}

// ReadCSV parses daily closes with a header containing "date" and "close"
// (case-insensitive; other columns are ignored). Rows whose close is empty,
// "nan", "null" or non-positive are skipped. Dates without a zone are UTC.
// Output order follows the file.
func ReadCSV(r io.Reader, ticker string) (*CSVResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "datetime", "timestamp":
			if dateCol < 0 {
				dateCol = i
			}
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	if closeCol < 0 {
		return nil, fmt.Errorf("%w: close", ErrMissingColumn)
	}

	res := &CSVResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(record) <= max(dateCol, closeCol) {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrBadRow, line, len(record))
		}

		ts, err := parseDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRow, line, err)
		}
		price, ok, err := parseClose(record[closeCol])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRow, line, err)
		}
		if !ok {
			res.Skipped++
			continue
		}

		res.Bars = append(res.Bars, &domain.PriceBar{
			Ticker:      ticker,
			TimestampMs: ts,
			Close:       price,
		})
	}
	return res, nil
}

func parseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date %q", s)
}

// parseClose reports ok=false for a missing value.
func parseClose(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse close %q: %w", s, err)
	}
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, nil
	}
	return v, true, nil
}
