// Package backtest implements walkforward backtesting of one-step forecasts.
//
// A walkforward backtest simulates real-time deployment: for each held-out
// observation, oldest first, the forecaster is refit on everything strictly
// before it and asked for exactly one step ahead. The output pairs each
// forecast with the realized value and any regressor values at that step.
//
// # Running a Backtest
//
//	cfg := backtest.DefaultConfig()
//	cfg.WindowSize = 30
//	records, err := backtest.Run(series, baseline.Drift{}, frame, cfg)
//
// Every record carries the held-out timestamp, the actual value, the
// forecast, and the regressor values present at that timestamp. Records come
// back in strictly increasing timestamp order, exactly one per held-out
// point.
//
// # Correctness Invariant
//
// No actual or regressor value with a timestamp at or after a held-out point
// reaches the forecaster for that step. The training series is an immutable
// prefix and the regressor frame is truncated at the same cutoff. Violating
// this silently would invalidate every downstream significance test, so the
// package tests mutate future values and assert earlier output is unchanged.
//
// # Failure Policy
//
// A forecaster failure at one step records a missing forecast (Failed true,
// Forecast NaN) and continues; set Config.AbortOnFailure to abort the whole
// call on the first failure instead.
//
// # Concurrency
//
// Steps are independent pure computations over immutable prefixes, so
// Config.Workers > 1 evaluates them on a worker pool. Output order is by
// timestamp regardless of computation order.
package backtest
