// Package significance tests regressor usefulness on walkforward backtest output.
//
// The evaluator asks one question: given an existing forecast, does a
// candidate regressor explain any of what the forecast missed? It fits a
// (weighted) least-squares regression of the actual values on
// [intercept, forecast, regressor] over the complete backtest records and
// reports the coefficient, standard error, t-statistic, and two-sided
// p-value of each predictor.
//
// # Usage
//
//	cfg := significance.DefaultConfig()
//	cfg.RecencyGamma = 0.95
//	fit, err := significance.EvaluateRegressor(records, "spread", cfg)
//	if fit.SignificantAt(significance.DefaultAlpha) {
//	    // the regressor explains residual signal at the chosen threshold
//	}
//
// # Recency Weighting
//
// With RecencyGamma in (0, 1), a record k time units older than the newest
// one gets weight gamma^k, so the regression tracks relationships that drift
// over time, as in exponential smoothing. The newest record always has
// weight exactly 1; gamma = 1 (or a zero Config value) reduces to ordinary
// least squares. The time unit of k is Config.TimeUnit (default one day).
//
// # Errors
//
// EvaluateRegressor returns InsufficientDataError when fewer than 3 records
// have both a forecast and a regressor value, and DegenerateFitError when
// the design matrix is rank-deficient (constant regressor, regressor
// collinear with the forecast) or the residual degrees of freedom are not
// positive. Incomplete records are excluded, never imputed.
package significance
