// Package baseline provides reference forecasters for walkforward backtests.
//
// Every forecaster here satisfies backtest.Forecaster, so the library runs
// end-to-end without an external forecasting engine. They also serve as
// sanity baselines: a candidate model that cannot beat Naive or Drift on a
// walkforward backtest has no forecasting value.
//
//   - Mean: arithmetic mean of the training data (white noise model)
//   - Naive: last observed value
//   - Drift: last value plus the average historical increment
//   - SES: simple exponential smoothing with factor Alpha
//   - AutoRegressive: OLS AR(p), optionally with exogenous regressors
//
// AutoRegressive is the only one that looks at regressors. Training rows
// with absent exogenous values are dropped from the fit, and forecasting
// returns an error when a required exogenous value is missing for the next
// step, which surfaces as a failed step in the backtest.
package baseline
