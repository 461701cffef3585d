package significance

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/gowalkforward/backtest"
)

// makeRecords builds daily records; gen returns (forecast, regressor, actual)
// for step i.
func makeRecords(n int, gen func(i int) (float64, float64, float64)) []backtest.Record {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]backtest.Record, n)
	for i := range records {
		f, x, y := gen(i)
		records[i] = backtest.Record{
			Timestamp:  base.AddDate(0, 0, i),
			Actual:     y,
			Forecast:   f,
			Regressors: map[string]float64{"x": x},
		}
	}
	return records
}

func TestWeightsLatestIsOne(t *testing.T) {
	records := makeRecords(10, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	for _, gamma := range []float64{1.0, 0.99, 0.9, 0.5, 0.05} {
		cfg := DefaultConfig()
		cfg.RecencyGamma = gamma

		weights, err := Weights(records, cfg)
		if err != nil {
			t.Fatalf("gamma=%v: unexpected error: %v", gamma, err)
		}
		if weights[len(weights)-1] != 1.0 {
			t.Errorf("gamma=%v: latest weight %v, want exactly 1.0", gamma, weights[len(weights)-1])
		}
	}
}

func TestWeightsStrictDecay(t *testing.T) {
	records := makeRecords(8, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	cfg := DefaultConfig()
	cfg.RecencyGamma = 0.9

	weights, err := Weights(records, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 1; i < len(weights); i++ {
		if weights[i] <= weights[i-1] {
			t.Errorf("Weights not strictly increasing toward the present at %d: %v <= %v", i, weights[i], weights[i-1])
		}
	}

	// Daily spacing with a one-day unit: weight k steps back is gamma^k.
	for i, w := range weights {
		expected := math.Pow(0.9, float64(len(weights)-1-i))
		if math.Abs(w-expected) > 1e-12 {
			t.Errorf("Weight %d: expected %v, got %v", i, expected, w)
		}
	}
}

func TestWeightsUnweighted(t *testing.T) {
	records := makeRecords(5, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	for _, cfg := range []*Config{nil, {RecencyGamma: 1}, {}} {
		weights, err := Weights(records, cfg)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i, w := range weights {
			if w != 1.0 {
				t.Errorf("Weight %d: expected 1.0, got %v", i, w)
			}
		}
	}
}

func TestWeightsBadGamma(t *testing.T) {
	records := makeRecords(3, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	for _, gamma := range []float64{-0.5, 1.5, math.NaN()} {
		cfg := DefaultConfig()
		cfg.RecencyGamma = gamma
		if _, err := Weights(records, cfg); err == nil {
			t.Errorf("gamma=%v: expected error", gamma)
		}
	}
}

func TestEvaluateExactRelationship(t *testing.T) {
	// actual = 2 + 1*forecast + 3*x with no noise: estimates are exact.
	records := makeRecords(12, func(i int) (float64, float64, float64) {
		f := 10 + float64(i)
		x := math.Sin(float64(i)) * 4
		return f, x, 2 + f + 3*x
	})

	fit, err := EvaluateRegressor(records, "x", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		expected float64
	}{
		{"intercept", 2},
		{"forecast", 1},
		{"x", 3},
	}
	for _, tt := range tests {
		c := fit.Coef(tt.name)
		if c == nil {
			t.Fatalf("Missing coefficient %q", tt.name)
		}
		if math.Abs(c.Estimate-tt.expected) > 1e-8 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, c.Estimate)
		}
	}

	if fit.NObs != 12 || fit.DOF != 9 {
		t.Errorf("Expected NObs=12 DOF=9, got NObs=%d DOF=%d", fit.NObs, fit.DOF)
	}
	if math.Abs(fit.RSquared-1) > 1e-8 {
		t.Errorf("Expected R^2 of 1 for exact fit, got %v", fit.RSquared)
	}
}

// gauss3 solves a 3x3 linear system by Gaussian elimination, as an
// implementation-independent reference for the normal equations.
func gauss3(a [3][4]float64) [3]float64 {
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := a[r][col] / a[col][col]
			for c := col; c < 4; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = a[i][3] / a[i][i]
	}
	return out
}

func TestEvaluateUnweightedMatchesOLS(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	records := makeRecords(30, func(i int) (float64, float64, float64) {
		f := 5 + rng.NormFloat64()
		x := rng.NormFloat64() * 2
		return f, x, 1 + 0.8*f + 2*x + rng.NormFloat64()*0.5
	})

	// Reference OLS via explicit normal equations X'X b = X'y.
	var a [3][4]float64
	for _, rec := range records {
		row := [3]float64{1, rec.Forecast, rec.Regressors["x"]}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				a[i][j] += row[i] * row[j]
			}
			a[i][3] += row[i] * rec.Actual
		}
	}
	want := gauss3(a)

	cfg := DefaultConfig()
	cfg.RecencyGamma = 1

	fit, err := EvaluateRegressor(records, "x", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	names := []string{"intercept", "forecast", "x"}
	for i, name := range names {
		got := fit.Coef(name).Estimate
		if math.Abs(got-want[i]) > 1e-8 {
			t.Errorf("%s: OLS reference %v, got %v", name, want[i], got)
		}
	}
}

func TestEvaluateRecoversPlantedCoefficient(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := makeRecords(80, func(i int) (float64, float64, float64) {
		f := 100 + rng.NormFloat64()*5
		x := rng.NormFloat64()
		return f, x, f + 3*x + rng.NormFloat64()*0.2
	})

	fit, err := EvaluateRegressor(records, "x", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	c := fit.Coef("x")
	if math.Abs(c.Estimate-3) > 0.15 {
		t.Errorf("Expected coefficient near 3, got %v", c.Estimate)
	}
	if c.PValue >= 0.01 {
		t.Errorf("Expected p-value below 0.01 for a planted signal, got %v", c.PValue)
	}
	if !fit.SignificantAt(DefaultAlpha) {
		t.Errorf("Expected the planted regressor to test significant")
	}
}

func TestEvaluateNoiseRegressorRarelySignificant(t *testing.T) {
	trials := 100
	falsePositives := 0

	for trial := 0; trial < trials; trial++ {
		rng := rand.New(rand.NewSource(int64(1000 + trial)))
		records := makeRecords(40, func(i int) (float64, float64, float64) {
			f := 50 + rng.NormFloat64()*3
			x := rng.NormFloat64()
			return f, x, f + rng.NormFloat64()
		})

		fit, err := EvaluateRegressor(records, "x", nil)
		if err != nil {
			t.Fatalf("Trial %d: unexpected error: %v", trial, err)
		}
		if fit.Coef("x").PValue <= 0.05 {
			falsePositives++
		}
	}

	// Expected false-positive rate is 5%; allow generous slack to keep the
	// test deterministic-friendly across gonum versions.
	if falsePositives > 15 {
		t.Errorf("Noise regressor tested significant in %d/%d trials", falsePositives, trials)
	}
}

func TestEvaluateRecencyTracksDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	// Coefficient on x drifts from 0 to 5 halfway through.
	records := makeRecords(60, func(i int) (float64, float64, float64) {
		f := 20 + rng.NormFloat64()
		x := rng.NormFloat64()
		coef := 0.0
		if i >= 30 {
			coef = 5.0
		}
		return f, x, f + coef*x + rng.NormFloat64()*0.1
	})

	ols, err := EvaluateRegressor(records, "x", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cfg := DefaultConfig()
	cfg.RecencyGamma = 0.85
	weighted, err := EvaluateRegressor(records, "x", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if weighted.Coef("x").Estimate <= ols.Coef("x").Estimate {
		t.Errorf("Expected recency weighting to pull the estimate toward the recent regime: weighted %v, unweighted %v",
			weighted.Coef("x").Estimate, ols.Coef("x").Estimate)
	}
	if math.Abs(weighted.Coef("x").Estimate-5) > 0.5 {
		t.Errorf("Expected weighted estimate near the recent coefficient 5, got %v", weighted.Coef("x").Estimate)
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	records := makeRecords(2, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	_, err := EvaluateRegressor(records, "x", nil)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientDataError, got %v", err)
	}
	if insufficient.Need != 3 || insufficient.Got != 2 {
		t.Errorf("Expected need=3 got=2, got need=%d got=%d", insufficient.Need, insufficient.Got)
	}
}

func TestEvaluateExcludesIncompleteRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	records := makeRecords(10, func(i int) (float64, float64, float64) {
		f := rng.NormFloat64()
		x := rng.NormFloat64()
		return f, x, f + x + rng.NormFloat64()*0.1
	})

	// A failed step and a record without the regressor must be dropped.
	records[2].Failed = true
	records[2].Forecast = math.NaN()
	delete(records[5].Regressors, "x")

	fit, err := EvaluateRegressor(records, "x", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fit.NObs != 8 {
		t.Errorf("Expected 8 complete records, got %d", fit.NObs)
	}
}

func TestEvaluateDegenerateFits(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	tests := []struct {
		name string
		gen  func(i int) (float64, float64, float64)
	}{
		{
			"constant regressor",
			func(i int) (float64, float64, float64) {
				f := rng.NormFloat64()
				return f, 7.0, f + rng.NormFloat64()
			},
		},
		{
			"regressor collinear with forecast",
			func(i int) (float64, float64, float64) {
				f := rng.NormFloat64()
				return f, 2 * f, f + rng.NormFloat64()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := makeRecords(20, tt.gen)
			_, err := EvaluateRegressor(records, "x", nil)
			var degenerate *DegenerateFitError
			if !errors.As(err, &degenerate) {
				t.Errorf("Expected DegenerateFitError, got %v", err)
			}
		})
	}
}

func TestEvaluateZeroResidualDOF(t *testing.T) {
	// Exactly 3 complete records passes the data check but leaves no
	// residual degrees of freedom.
	records := makeRecords(3, func(i int) (float64, float64, float64) {
		return float64(i), float64(i * i), float64(i)
	})

	_, err := EvaluateRegressor(records, "x", nil)
	var degenerate *DegenerateFitError
	if !errors.As(err, &degenerate) {
		t.Errorf("Expected DegenerateFitError for zero residual DOF, got %v", err)
	}
}

func TestEvaluateUnknownRegressor(t *testing.T) {
	records := makeRecords(10, func(i int) (float64, float64, float64) {
		return float64(i), float64(i), float64(i)
	})

	_, err := EvaluateRegressor(records, "spread", nil)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Errorf("Expected InsufficientDataError for a regressor no record carries, got %v", err)
	}
}
