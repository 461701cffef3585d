// Package significance tests regressor usefulness on walkforward backtest output.
package significance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/gowalkforward/backtest"
)

// DefaultAlpha is the conventional significance threshold. The evaluator
// reports statistics only; the decision against a threshold stays with the
// caller.
const DefaultAlpha = 0.05

// rankTol is the singular value tolerance for the rank check.
const rankTol = 1e-12

// Config holds evaluator configuration.
type Config struct {
	// RecencyGamma geometrically down-weights older records. Must be in
	// (0, 1]; zero means unweighted (equivalent to gamma = 1).
	RecencyGamma float64

	// TimeUnit is the discrete time unit of the decay exponent: a record
	// k units older than the newest one gets weight gamma^k.
	TimeUnit time.Duration
}

// DefaultConfig returns the default evaluator configuration: unweighted,
// with a one-day time unit.
func DefaultConfig() *Config {
	return &Config{
		TimeUnit: 24 * time.Hour,
	}
}

// Coefficient holds the fitted estimate and test statistics for one predictor.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	TStat    float64
	PValue   float64 // two-sided, Student's t with the fit's residual DOF
}

// WeightedFit is the result of regressing actuals on [intercept, forecast,
// regressor] with per-record recency weights.
type WeightedFit struct {
	Regressor    string
	Gamma        float64
	Coefficients []Coefficient // intercept, forecast, regressor

	// Residual summary.
	NObs           int     // complete records used
	DOF            int     // residual degrees of freedom (NObs - 3)
	ResidualStdErr float64 // sqrt of weighted RSS over DOF
	RSquared       float64 // weighted coefficient of determination
	DurbinWatson   float64 // first-order residual autocorrelation statistic
}

// Coef returns the coefficient for the named predictor, or nil. Predictors
// are named "intercept", "forecast", and the candidate regressor's own name.
func (f *WeightedFit) Coef(name string) *Coefficient {
	for i := range f.Coefficients {
		if f.Coefficients[i].Name == name {
			return &f.Coefficients[i]
		}
	}
	return nil
}

// SignificantAt reports whether the candidate regressor's p-value is below
// the caller-supplied threshold.
func (f *WeightedFit) SignificantAt(alpha float64) bool {
	c := f.Coef(f.Regressor)
	return c != nil && c.PValue < alpha
}

// InsufficientDataError reports too few complete records to fit the model.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d complete records, got %d", e.Need, e.Got)
}

// DegenerateFitError reports a regression that cannot be estimated: a
// rank-deficient design matrix or non-positive residual degrees of freedom.
type DegenerateFitError struct {
	Reason string
}

func (e *DegenerateFitError) Error() string {
	return "degenerate fit: " + e.Reason
}

// EvaluateRegressor fits a weighted least-squares regression of the actual
// values on [intercept, forecast, regressor] over the complete records (those
// with both a forecast and a value for the named regressor; incomplete
// records are excluded, never imputed) and reports per-predictor estimates,
// standard errors, t-statistics, and two-sided p-values.
func EvaluateRegressor(records []backtest.Record, regressor string, cfg *Config) (*WeightedFit, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	gamma, unit, err := resolveWeighting(cfg)
	if err != nil {
		return nil, err
	}
	if regressor == "" {
		return nil, errors.New("regressor name must not be empty")
	}

	complete := completeRecords(records, regressor)
	if len(complete) < 3 {
		return nil, &InsufficientDataError{Need: 3, Got: len(complete)}
	}

	n := len(complete)
	dof := n - 3
	if dof <= 0 {
		return nil, &DegenerateFitError{Reason: fmt.Sprintf("residual degrees of freedom %d", dof)}
	}

	weights := decayWeights(complete, gamma, unit)

	// Row-scale by sqrt(weight) so ordinary normal equations solve the
	// weighted problem.
	X := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	yw := mat.NewVecDense(n, nil)
	for i, rec := range complete {
		sw := math.Sqrt(weights[i])
		X.Set(i, 0, sw)
		X.Set(i, 1, sw*rec.Forecast)
		X.Set(i, 2, sw*rec.Regressors[regressor])
		y[i] = rec.Actual
		yw.SetVec(i, sw*rec.Actual)
	}

	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return nil, &DegenerateFitError{Reason: "SVD factorization failed"}
	}
	if rank := svd.Rank(rankTol); rank < 3 {
		return nil, &DegenerateFitError{Reason: fmt.Sprintf("design matrix has rank %d, need 3 (constant or collinear predictor)", rank)}
	}

	// beta = (X'X)^(-1) X'y on the scaled system.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, &DegenerateFitError{Reason: fmt.Sprintf("normal equations are singular: %v", err)}
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), yw)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	// Residuals on the original scale, weighted RSS for the variance.
	resid := make([]float64, n)
	wrss := 0.0
	for i, rec := range complete {
		fitted := beta.AtVec(0) + beta.AtVec(1)*rec.Forecast + beta.AtVec(2)*rec.Regressors[regressor]
		resid[i] = rec.Actual - fitted
		wrss += weights[i] * resid[i] * resid[i]
	}
	sigma2 := wrss / float64(dof)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	names := []string{"intercept", "forecast", regressor}
	coeffs := make([]Coefficient, 3)
	for j := range coeffs {
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		c := Coefficient{
			Name:     names[j],
			Estimate: beta.AtVec(j),
			StdErr:   se,
		}
		if se > 0 {
			c.TStat = c.Estimate / se
			c.PValue = 2 * (1 - tDist.CDF(math.Abs(c.TStat)))
		} else {
			c.TStat = math.Inf(sign(c.Estimate))
			c.PValue = 0
		}
		coeffs[j] = c
	}

	// Weighted total sum of squares around the weighted mean.
	wmean := stat.Mean(y, weights)
	wtss := 0.0
	for i, v := range y {
		d := v - wmean
		wtss += weights[i] * d * d
	}
	r2 := math.NaN()
	if wtss > 0 {
		r2 = 1 - wrss/wtss
	}

	return &WeightedFit{
		Regressor:      regressor,
		Gamma:          gamma,
		Coefficients:   coeffs,
		NObs:           n,
		DOF:            dof,
		ResidualStdErr: math.Sqrt(sigma2),
		RSquared:       r2,
		DurbinWatson:   durbinWatson(resid),
	}, nil
}

// Weights returns the recency weight of each record under cfg, in record
// order. The newest record's weight is exactly 1; with gamma = 1 every
// weight is 1.
func Weights(records []backtest.Record, cfg *Config) ([]float64, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	gamma, unit, err := resolveWeighting(cfg)
	if err != nil {
		return nil, err
	}
	return decayWeights(records, gamma, unit), nil
}

// resolveWeighting validates the decay parameters and applies defaults.
func resolveWeighting(cfg *Config) (gamma float64, unit time.Duration, err error) {
	gamma = cfg.RecencyGamma
	if gamma == 0 {
		gamma = 1
	}
	if gamma <= 0 || gamma > 1 || math.IsNaN(gamma) {
		return 0, 0, fmt.Errorf("recency gamma %v out of range (0, 1]", cfg.RecencyGamma)
	}
	unit = cfg.TimeUnit
	if unit == 0 {
		unit = 24 * time.Hour
	}
	if unit < 0 {
		return 0, 0, fmt.Errorf("time unit %v must be positive", cfg.TimeUnit)
	}
	return gamma, unit, nil
}

// decayWeights computes gamma^(age/unit) per record, age measured from the
// newest timestamp in the set.
func decayWeights(records []backtest.Record, gamma float64, unit time.Duration) []float64 {
	weights := make([]float64, len(records))
	if len(records) == 0 {
		return weights
	}

	latest := records[0].Timestamp
	for _, rec := range records[1:] {
		if rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}
	}

	for i, rec := range records {
		if gamma == 1 {
			weights[i] = 1
			continue
		}
		age := latest.Sub(rec.Timestamp).Seconds() / unit.Seconds()
		weights[i] = math.Pow(gamma, age)
	}
	return weights
}

// completeRecords filters to records with a usable forecast and a present
// value for the named regressor.
func completeRecords(records []backtest.Record, regressor string) []backtest.Record {
	var out []backtest.Record
	for _, rec := range records {
		if rec.Failed || math.IsNaN(rec.Forecast) {
			continue
		}
		if _, ok := rec.Regressors[regressor]; !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// durbinWatson computes the Durbin-Watson statistic of the residuals.
// Values near 2 indicate no first-order autocorrelation.
func durbinWatson(residuals []float64) float64 {
	if len(residuals) < 2 {
		return math.NaN()
	}
	num := 0.0
	den := 0.0
	for i := 1; i < len(residuals); i++ {
		d := residuals[i] - residuals[i-1]
		num += d * d
	}
	for _, r := range residuals {
		den += r * r
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
