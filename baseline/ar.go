package baseline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gowalkforward/backtest"
	"github.com/sartorproj/gowalkforward/timeseries"
)

// AutoRegressive is an AR(p) forecaster fitted by ordinary least squares,
// optionally with contemporaneous exogenous regressors. Training rows whose
// exogenous values are absent are dropped from the fit; forecasting fails if
// a required exogenous value is missing for the next step.
type AutoRegressive struct {
	Lags      int
	Exogenous []string
}

// arModel holds the fitted AR coefficients and the lag state needed for the
// next one-step forecast.
type arModel struct {
	intercept float64
	phi       []float64 // lag coefficients, phi[0] on y_{t-1}
	exogNames []string
	exogCoef  []float64
	lastVals  []float64 // most recent observations, newest first
}

// Fit estimates [intercept, lags, exogenous] coefficients by closed-form
// normal equations with an SVD least-squares fallback when X'X is singular.
func (a AutoRegressive) Fit(train *timeseries.Series, known *timeseries.Frame) (backtest.Model, error) {
	p := a.Lags
	if p < 1 {
		return nil, fmt.Errorf("autoregressive lags %d must be at least 1", p)
	}
	if len(a.Exogenous) > 0 && known == nil {
		return nil, fmt.Errorf("exogenous regressors %v requested but no frame supplied", a.Exogenous)
	}

	cols := 1 + p + len(a.Exogenous)

	// Usable rows: enough lag history, and every exogenous value present.
	var rows []int
	for t := p; t < train.Len(); t++ {
		ok := true
		for _, name := range a.Exogenous {
			if _, present := known.Value(name, train.Timestamps[t]); !present {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, t)
		}
	}
	if len(rows) < cols+1 {
		return nil, fmt.Errorf("autoregressive fit needs at least %d usable rows, got %d", cols+1, len(rows))
	}

	X := mat.NewDense(len(rows), cols, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, t := range rows {
		X.Set(i, 0, 1)
		for j := 1; j <= p; j++ {
			X.Set(i, j, train.Values[t-j])
		}
		for j, name := range a.Exogenous {
			v, _ := known.Value(name, train.Timestamps[t])
			X.Set(i, 1+p+j, v)
		}
		y.SetVec(i, train.Values[t])
	}

	beta, err := solveLeastSquares(X, y)
	if err != nil {
		return nil, err
	}

	m := &arModel{
		intercept: beta.AtVec(0),
		phi:       make([]float64, p),
		exogNames: a.Exogenous,
		exogCoef:  make([]float64, len(a.Exogenous)),
		lastVals:  make([]float64, p),
	}
	for j := 0; j < p; j++ {
		m.phi[j] = beta.AtVec(1 + j)
		m.lastVals[j] = train.Values[train.Len()-1-j]
	}
	for j := range a.Exogenous {
		m.exogCoef[j] = beta.AtVec(1 + p + j)
	}
	return m, nil
}

// PredictOneStep forecasts the step after the training data.
func (m *arModel) PredictOneStep(next map[string]float64) (float64, error) {
	val := m.intercept
	for j, phi := range m.phi {
		val += phi * m.lastVals[j]
	}
	for j, name := range m.exogNames {
		v, ok := next[name]
		if !ok {
			return 0, fmt.Errorf("missing exogenous regressor %q for forecast step", name)
		}
		val += m.exogCoef[j] * v
	}
	return val, nil
}

// solveLeastSquares computes beta = (X'X)^(-1) X'y, falling back to an
// SVD-based minimum-norm solution when the normal equations are singular.
func solveLeastSquares(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, error) {
	_, cols := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err == nil {
		var xty mat.VecDense
		xty.MulVec(X.T(), y)

		beta := mat.NewVecDense(cols, nil)
		beta.MulVec(&xtxInv, &xty)
		return beta, nil
	}

	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return nil, fmt.Errorf("least squares failed: X'X singular and SVD factorization failed")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return mat.NewVecDense(cols, nil), nil
	}

	rows, _ := X.Dims()
	yMat := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		yMat.Set(i, 0, y.AtVec(i))
	}

	var b mat.Dense
	svd.SolveTo(&b, yMat, rank)

	beta := mat.NewVecDense(cols, nil)
	for i := 0; i < cols; i++ {
		beta.SetVec(i, b.At(i, 0))
	}
	return beta, nil
}
