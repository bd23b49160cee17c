package backtest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
)

// Dataset holds everything LoadDataset read from disk, keyed by
// instrument, ready to hand to an Engine config.
type Dataset struct {
	Instruments []string
	Bars        map[string][]market.RangeBar
	H4          map[string][]market.Candle
	H1          map[string][]market.Candle
}

// LoadDataset reads per-instrument CSV caches from dir:
//
//	<dir>/range_bars/<INSTRUMENT>_RB<pips>.csv   (required)
//	<dir>/ohlc_4h/<INSTRUMENT>_H4.csv            (optional)
//	<dir>/ohlc_1h/<INSTRUMENT>_H1.csv            (optional)
//
// Instruments with no range-bar cache are dropped with a warning; missing
// OHLC caches degrade scoring to the neutral fallback instead.
func LoadDataset(dir string, instruments []string, log *zap.Logger) (*Dataset, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ds := &Dataset{
		Bars: make(map[string][]market.RangeBar),
		H4:   make(map[string][]market.Candle),
		H1:   make(map[string][]market.Candle),
	}

	for _, inst := range instruments {
		meta, ok := market.Instruments[inst]
		if !ok {
			return nil, fmt.Errorf("unknown instrument %q", inst)
		}

		rbPath := filepath.Join(dir, "range_bars",
			fmt.Sprintf("%s_RB%d.csv", inst, meta.RangeBarPips))
		bars, err := market.LoadRangeBars(rbPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn("range bar cache not found, skipping instrument",
					zap.String("instrument", inst),
					zap.String("path", rbPath),
				)
				continue
			}
			return nil, fmt.Errorf("%s: %w", inst, err)
		}
		ds.Bars[inst] = bars
		ds.Instruments = append(ds.Instruments, inst)

		h4Path := filepath.Join(dir, "ohlc_4h", inst+"_H4.csv")
		if candles, err := market.LoadCandles(h4Path); err == nil {
			ds.H4[inst] = candles
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s 4H: %w", inst, err)
		}

		h1Path := filepath.Join(dir, "ohlc_1h", inst+"_H1.csv")
		if candles, err := market.LoadCandles(h1Path); err == nil {
			ds.H1[inst] = candles
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s 1H: %w", inst, err)
		}

		log.Info("dataset loaded",
			zap.String("instrument", inst),
			zap.Int("range_bars", len(bars)),
			zap.Int("h4", len(ds.H4[inst])),
			zap.Int("h1", len(ds.H1[inst])),
		)
	}

	if len(ds.Instruments) == 0 {
		return nil, fmt.Errorf("no instruments with range bar data under %s", dir)
	}
	return ds, nil
}
