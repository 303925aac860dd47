package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/sarimax/errs"
)

// olsRegression fits y = X b by least squares using a QR factorisation.
// Returns coefficients, their standard errors and the residuals.
func olsRegression(x *mat.Dense, y []float64) (coeffs, stdErrors, residuals []float64, err error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, nil, nil, errs.New(errs.KindDimensionMismatch, "stats.ols", "%d design rows for %d observations", n, len(y))
	}
	if n <= k {
		return nil, nil, nil, errs.New(errs.KindInsufficientData, "stats.ols", "%d observations for %d regressors", n, k)
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, nil, nil, errs.Wrap(err, errs.KindEstimationFailed, "stats.ols", "singular design matrix")
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	residuals = make([]float64, n)
	sse := 0.0
	for i := 0; i < n; i++ {
		residuals[i] = y[i] - fitted.AtVec(i)
		sse += residuals[i] * residuals[i]
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, nil, nil, errs.Wrap(err, errs.KindEstimationFailed, "stats.ols", "inverting X'X")
	}

	s2 := sse / float64(n-k)
	coeffs = make([]float64, k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	return coeffs, stdErrors, residuals, nil
}

// checkFinite rejects NaN and infinite inputs.
func checkFinite(op string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.KindNonFinite, op, "value at position %d is %v", i, v)
		}
	}
	return nil
}
