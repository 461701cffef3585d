// Package baseline provides reference forecasters for walkforward backtests.
package baseline

import (
	"errors"
	"fmt"

	"github.com/sartorproj/gowalkforward/backtest"
	"github.com/sartorproj/gowalkforward/timeseries"
)

// constant is a fitted model whose one-step forecast is a fixed value.
type constant float64

func (c constant) PredictOneStep(map[string]float64) (float64, error) {
	return float64(c), nil
}

// Mean forecasts the arithmetic mean of the training data (a white-noise
// model).
type Mean struct{}

// Fit fits the mean model.
func (Mean) Fit(train *timeseries.Series, _ *timeseries.Frame) (backtest.Model, error) {
	if train.Len() < 1 {
		return nil, errors.New("mean forecaster needs at least 1 observation")
	}
	return constant(train.Mean()), nil
}

// Naive forecasts the last observed value.
type Naive struct{}

// Fit fits the naive model.
func (Naive) Fit(train *timeseries.Series, _ *timeseries.Frame) (backtest.Model, error) {
	if train.Len() < 1 {
		return nil, errors.New("naive forecaster needs at least 1 observation")
	}
	return constant(train.Last()), nil
}

// Drift forecasts the last observation plus the average historical increment.
type Drift struct{}

// Fit fits the drift model.
func (Drift) Fit(train *timeseries.Series, _ *timeseries.Frame) (backtest.Model, error) {
	if train.Len() < 2 {
		return nil, errors.New("drift forecaster needs at least 2 observations")
	}
	return constant(train.Last() + train.Diff().Mean()), nil
}

// SES is simple exponential smoothing with smoothing factor Alpha in (0, 1].
type SES struct {
	Alpha float64
}

// Fit runs the smoothing recursion over the training data; the final level
// is the one-step forecast.
func (s SES) Fit(train *timeseries.Series, _ *timeseries.Frame) (backtest.Model, error) {
	if s.Alpha <= 0 || s.Alpha > 1 {
		return nil, fmt.Errorf("smoothing alpha %v out of range (0, 1]", s.Alpha)
	}
	if train.Len() < 1 {
		return nil, errors.New("SES forecaster needs at least 1 observation")
	}

	level := train.Values[0]
	for _, v := range train.Values[1:] {
		level = s.Alpha*v + (1-s.Alpha)*level
	}
	return constant(level), nil
}
