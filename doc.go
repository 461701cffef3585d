// Package gowalkforward provides walkforward backtesting and weighted
// regressor-significance testing for one-step-ahead forecasts.
//
// GoWalkforward evaluates whether a candidate regressor adds forecasting
// value on top of an existing model. It repeatedly refits the model on a
// growing prefix of history (a walkforward backtest), pairs each one-step
// forecast with the realized value, and then regresses the actuals on the
// forecast and the candidate regressor with optional exponential recency
// weighting.
//
// # Quick Start
//
// Run a walkforward backtest with a baseline forecaster:
//
//	series, _ := timeseries.NewWithTimestamps(timestamps, values)
//	cfg := backtest.DefaultConfig()
//	cfg.WindowSize = 30
//	records, _ := backtest.Run(series, baseline.Drift{}, nil, cfg)
//
// Test a regressor against the backtest output:
//
//	evalCfg := significance.DefaultConfig()
//	evalCfg.RecencyGamma = 0.97
//	fit, _ := significance.EvaluateRegressor(records, "spread", evalCfg)
//	fmt.Printf("coef=%.3f p=%.4f\n", fit.Coef("spread").Estimate, fit.Coef("spread").PValue)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - timeseries: Series and regressor Frame data structures, CSV utilities
//   - backtest: Walkforward backtester over a pluggable Forecaster
//   - significance: Weighted least-squares regressor-significance evaluator
//   - baseline: Reference forecasters (mean, naive, drift, SES, OLS AR)
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Tashman, L.J. (2000). Out-of-sample tests of forecasting accuracy
package gowalkforward
