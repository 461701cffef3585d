// Package backtest implements walkforward backtesting of one-step forecasts.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sartorproj/gowalkforward/timeseries"
)

// Model is a fitted forecasting model that produces a forecast for the step
// immediately after its training data. The next argument carries regressor
// values known for the forecast step; models that use no regressors ignore it.
type Model interface {
	PredictOneStep(next map[string]float64) (float64, error)
}

// Forecaster fits a Model on a training prefix of history. The known frame
// holds regressor observations up to (strictly before) the forecast step;
// it is nil when the backtest runs without regressors.
type Forecaster interface {
	Fit(train *timeseries.Series, known *timeseries.Frame) (Model, error)
}

// ForecasterFunc adapts a plain function to the Forecaster interface.
type ForecasterFunc func(train *timeseries.Series, known *timeseries.Frame) (Model, error)

// Fit calls f.
func (f ForecasterFunc) Fit(train *timeseries.Series, known *timeseries.Frame) (Model, error) {
	return f(train, known)
}

// Record is one evaluated walkforward step: a one-step forecast paired with
// the realized value and the regressor values present at that timestamp.
// A failed step keeps its Actual and Regressors but reports the forecast as
// missing (Failed true, Forecast NaN, Err holding the step failure).
type Record struct {
	Timestamp  time.Time
	Actual     float64
	Forecast   float64
	Failed     bool
	Err        error
	Regressors map[string]float64
}

// InsufficientDataError reports that history is too short for the requested
// backtest window.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Need, e.Got)
}

// StepError reports a forecaster failure at a single walkforward step.
type StepError struct {
	Step      int
	Timestamp time.Time
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("walkforward step %d (%s): %v", e.Step, e.Timestamp.Format("2006-01-02"), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Config holds walkforward backtest configuration.
type Config struct {
	// WindowSize is the number of most-recent observations to hold out and
	// forecast one at a time.
	WindowSize int

	// AbortOnFailure aborts the whole backtest on the first forecaster
	// failure. The default records the step as failed and continues.
	AbortOnFailure bool

	// Workers sets how many steps run concurrently. Values below 2 run the
	// steps sequentially. Records are returned in timestamp order either way.
	Workers int

	// Logger receives per-step progress and failure events.
	Logger zerolog.Logger
}

// DefaultConfig returns the default backtest configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: 1,
		Logger:  zerolog.Nop(),
	}
}

// Run executes a walkforward backtest: for each of the last cfg.WindowSize
// observations, oldest first, it fits the forecaster on everything strictly
// before that observation and forecasts exactly one step ahead.
//
// No value with a timestamp at or after a held-out point is ever passed to
// the forecaster for that step. Regressor observations are truncated to the
// training cutoff for fitting; only the forecast step's own regressor values
// are handed to PredictOneStep.
func Run(history *timeseries.Series, forecaster Forecaster, regressors *timeseries.Frame, cfg *Config) ([]Record, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if forecaster == nil {
		return nil, errors.New("forecaster must not be nil")
	}
	if cfg.WindowSize < 1 {
		return nil, errors.New("window size must be at least 1")
	}

	n := history.Len()
	if n < cfg.WindowSize+1 {
		return nil, &InsufficientDataError{Need: cfg.WindowSize + 1, Got: n}
	}
	if len(history.Timestamps) != n {
		return nil, errors.New("history must carry one timestamp per value")
	}
	if regressors != nil && !regressors.AlignedTo(history) {
		return nil, errors.New("regressor frame is not aligned to history")
	}

	start := n - cfg.WindowSize
	records := make([]Record, cfg.WindowSize)

	if cfg.Workers > 1 {
		runParallel(history, forecaster, regressors, cfg, start, records)
	} else {
		for i := range records {
			records[i] = runStep(history, forecaster, regressors, cfg, start, i)
			if records[i].Failed && cfg.AbortOnFailure {
				return nil, records[i].Err
			}
		}
	}

	if cfg.AbortOnFailure {
		for i := range records {
			if records[i].Failed {
				return nil, records[i].Err
			}
		}
	}
	return records, nil
}

// runStep evaluates one held-out point. i is the zero-based step; the
// held-out observation sits at history index start+i.
func runStep(history *timeseries.Series, forecaster Forecaster, regressors *timeseries.Frame, cfg *Config, start, i int) Record {
	idx := start + i
	cutoff := history.Timestamps[idx]

	rec := Record{
		Timestamp: cutoff,
		Actual:    history.Values[idx],
	}

	train := history.Slice(0, idx)
	var known *timeseries.Frame
	if regressors != nil {
		known = regressors.Before(cutoff)
		rec.Regressors = regressors.At(cutoff)
	}

	forecast, err := fitAndPredict(forecaster, train, known, rec.Regressors)
	if err != nil {
		stepErr := &StepError{Step: i + 1, Timestamp: cutoff, Err: err}
		cfg.Logger.Warn().
			Int("step", i+1).
			Time("timestamp", cutoff).
			Err(err).
			Msg("forecaster failed, recording missing forecast")
		rec.Failed = true
		rec.Forecast = math.NaN()
		rec.Err = stepErr
		return rec
	}

	cfg.Logger.Debug().
		Int("step", i+1).
		Time("timestamp", cutoff).
		Float64("forecast", forecast).
		Float64("actual", rec.Actual).
		Msg("walkforward step")
	rec.Forecast = forecast
	return rec
}

// fitAndPredict runs one train/predict cycle, converting panics from
// misbehaving forecasters into step errors so a single bad step cannot take
// down the whole backtest.
func fitAndPredict(forecaster Forecaster, train *timeseries.Series, known *timeseries.Frame, next map[string]float64) (forecast float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecaster panic: %v", r)
		}
	}()

	model, err := forecaster.Fit(train, known)
	if err != nil {
		return 0, fmt.Errorf("fit: %w", err)
	}
	forecast, err = model.PredictOneStep(next)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return 0, errors.New("predict: forecast is not finite")
	}
	return forecast, nil
}

// runParallel evaluates steps on a worker pool. Each step trains on its own
// immutable prefix, so steps share nothing; results land in their slot by
// step index, which keeps the output in timestamp order.
func runParallel(history *timeseries.Series, forecaster Forecaster, regressors *timeseries.Frame, cfg *Config, start int, records []Record) {
	workers := cfg.Workers
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = runStep(history, forecaster, regressors, cfg, start, i)
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
