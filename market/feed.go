package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadRangeBars reads a range-bar CSV:
//
//	start_time,end_time,open,high,low,close,tick_volume[,is_phantom,is_gap_adjacent,tick_boundary_price]
//
// where times are RFC3339 or RFC3339Nano. A header row is allowed, and
// empty/short rows are skipped. Bars are expected time-ordered; the caller
// filters to its replay window.
func LoadRangeBars(path string) ([]RangeBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []RangeBar
	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "start_time") {
				continue
			}
		}

		bar, ok, err := parseRangeBarRow(row)
		if err != nil {
			return nil, err
		}
		if ok {
			bars = append(bars, bar)
		}
	}
}

func parseRangeBarRow(row []string) (RangeBar, bool, error) {
	if len(row) < 7 {
		return RangeBar{}, false, nil
	}

	start, err := parseTime(row[0])
	if err != nil {
		return RangeBar{}, false, fmt.Errorf("bad start_time %q: %w", row[0], err)
	}
	end, err := parseTime(row[1])
	if err != nil {
		return RangeBar{}, false, fmt.Errorf("bad end_time %q: %w", row[1], err)
	}

	vals := make([]float64, 4)
	for i, col := range row[2:6] {
		v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
		if err != nil {
			return RangeBar{}, false, fmt.Errorf("bad price %q: %w", col, err)
		}
		vals[i] = v
	}
	vol, err := strconv.ParseInt(strings.TrimSpace(row[6]), 10, 64)
	if err != nil {
		return RangeBar{}, false, fmt.Errorf("bad tick_volume %q: %w", row[6], err)
	}

	bar := RangeBar{
		StartTime:  start,
		EndTime:    end,
		Open:       vals[0],
		High:       vals[1],
		Low:        vals[2],
		Close:      vals[3],
		TickVolume: vol,
	}
	bar.TickBoundaryPrice = bar.Close

	if len(row) >= 10 {
		bar.IsPhantom = parseBool(row[7])
		bar.IsGapAdjacent = parseBool(row[8])
		if tb, err := strconv.ParseFloat(strings.TrimSpace(row[9]), 64); err == nil {
			bar.TickBoundaryPrice = tb
		}
	}
	return bar, true, nil
}

// LoadCandles reads a fixed-timeframe OHLC CSV:
//
//	time,open,high,low,close,volume
//
// with the same time-format and header conventions as LoadRangeBars.
func LoadCandles(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var candles []Candle
	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			return candles, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 6 {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		t, err := parseTime(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad time %q: %w", row[0], err)
		}
		vals := make([]float64, 5)
		for i, col := range row[1:6] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q: %w", col, err)
			}
			vals[i] = v
		}
		candles = append(candles, Candle{
			Time:   t,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return time.Time{}, err
		}
		t = t2
	}
	return t.UTC(), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes":
		return true
	}
	return false
}
