package sarima

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/stats"
	"github.com/sartorproj/sarimax/timeseries"
)

const hessianStep = 1e-4

// Coefficient is a named estimate with its standard error.
type Coefficient struct {
	Name     string  `json:"name" yaml:"name"`
	Value    float64 `json:"value" yaml:"value"`
	StdError float64 `json:"std_error" yaml:"std_error"`
}

// FittedModel is an estimated regression with SARIMA errors. It is never
// modified after Fit returns; re-estimation produces a new value.
type FittedModel struct {
	order      Order
	method     Method
	fallback   bool
	converged  bool
	seValid    bool
	refiltered bool

	ar, ma, sar, sma []float64
	armaSE           []float64
	beta, betaSE     []float64

	sigma2  float64
	loglik  float64
	aic     float64
	aicc    float64
	bic     float64
	nobs    int
	nparams int

	constant string
	series   *timeseries.Series
	xreg     *regressors.Matrix // user regressors
	design   *regressors.Matrix // user regressors plus the constant column
	effect   []float64          // x_t'beta

	phiFull     []float64 // AR vector of phi(B)Phi(B^s)(1-B)^d(1-B^s)^D
	thetaFull   []float64 // MA vector of theta(B)Theta(B^s)
	innovations []float64
	start       int

	rootTol float64
}

func newFittedModel(pr *problem, est *estimate, series *timeseries.Series, xreg, design *regressors.Matrix,
	constant string, opts Options) (*FittedModel, error) {
	ar, ma, sar, sma := pr.split(est.params)
	ev := est.ev
	m := &FittedModel{
		order:     pr.order,
		method:    est.method,
		fallback:  est.fallback,
		converged: est.converged,
		ar:        slices.Clone(ar),
		ma:        slices.Clone(ma),
		sar:       slices.Clone(sar),
		sma:       slices.Clone(sma),
		beta:      slices.Clone(ev.beta),
		sigma2:    ev.sigma2(),
		loglik:    -ev.negLogLik(),
		nobs:      ev.nu,
		constant:  constant,
		series:    series.Copy(),
		xreg:      xreg,
		design:    design,
		rootTol:   opts.RootTolerance,
	}
	if len(m.beta) == 0 {
		m.beta = make([]float64, design.Cols())
	}
	m.nparams = len(est.params) + len(m.beta)

	ic := stats.CalculateIC(m.loglik, m.nobs, m.nparams+1)
	m.aic, m.aicc, m.bic = ic.AIC, ic.AICc, ic.BIC

	m.armaSE, m.seValid = armaStdErrors(pr, est)
	m.betaSE = betaStdErrors(ev)
	for _, se := range m.betaSE {
		if math.IsNaN(se) {
			m.seValid = false
		}
	}

	if err := m.filter(); err != nil {
		return nil, err
	}
	return m, nil
}

// filter computes the regression effect and the conditional innovations of
// the stored series with the fitted coefficients.
func (m *FittedModel) filter() error {
	s := m.order.period()
	phi := expandAR(m.ar, m.sar, s)
	m.thetaFull = expandMA(m.ma, m.sma, s)
	full := polyMul(arPoly(phi), diffPoly(m.order.D, m.order.SD, s))
	m.phiFull = make([]float64, len(full)-1)
	for i := range m.phiFull {
		m.phiFull[i] = -full[i+1]
	}
	m.start = len(m.phiFull)

	n := m.series.Len()
	m.effect = make([]float64, n)
	eta := make([]float64, n)
	for t := 0; t < n; t++ {
		row := m.design.Row(t)
		for j, b := range m.beta {
			m.effect[t] += row[j] * b
		}
		eta[t] = m.series.Values[t] - m.effect[t]
	}
	m.innovations = conditionalResiduals(full, m.thetaFull, eta, min(m.start, n))
	for t, e := range m.innovations {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return errs.New(errs.KindNonFinite, "sarima.filter", "innovation at position %d is %v", t, e)
		}
	}
	return nil
}

// armaStdErrors inverts the finite-difference Hessian of the negative
// log-likelihood in the natural coefficients.
func armaStdErrors(pr *problem, est *estimate) ([]float64, bool) {
	k := len(est.params)
	se := make([]float64, k)
	if k == 0 {
		return se, true
	}
	nll := func(x []float64) float64 {
		ev, ok := pr.evaluate(est.method, x)
		if !ok {
			return math.Inf(1)
		}
		return ev.negLogLik()
	}

	var hess mat.SymDense
	fd.Hessian(&hess, nll, est.params, &fd.Settings{Formula: fd.Central, Step: hessianStep})

	var chol mat.Cholesky
	if !chol.Factorize(&hess) {
		return nanSlice(k), false
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nanSlice(k), false
	}
	for i := range se {
		v := cov.At(i, i)
		if !(v > 0) || math.IsInf(v, 0) {
			return nanSlice(k), false
		}
		se[i] = math.Sqrt(v)
	}
	return se, true
}

// betaStdErrors returns sqrt(diag(sigma2 (X'X)^-1)) on the filtered regressors.
func betaStdErrors(ev *evaluation) []float64 {
	if ev.xf == nil {
		return nil
	}
	_, k := ev.xf.Dims()
	var xtx mat.SymDense
	xtx.SymOuterK(1, ev.xf.T())
	var chol mat.Cholesky
	if !chol.Factorize(&xtx) {
		return nanSlice(k)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nanSlice(k)
	}
	s2 := ev.sigma2()
	se := make([]float64, k)
	for i := range se {
		se[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return se
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Refilter applies the fitted coefficients to another series, typically the
// estimation sample extended by a holdout, and recomputes the innovations
// without re-estimation. xreg must carry the same columns as the fit.
func (m *FittedModel) Refilter(series *timeseries.Series, xreg *regressors.Matrix) (*FittedModel, error) {
	const op = "sarima.Refilter"
	if series == nil || series.Len() == 0 {
		return nil, errs.New(errs.KindInsufficientData, op, "empty series")
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	n := series.Len()
	if xreg == nil {
		xreg = regressors.Empty(n)
	}
	if !slices.Equal(xreg.Names(), m.xreg.Names()) {
		return nil, errs.New(errs.KindDimensionMismatch, op, "regressors %v do not match the fitted %v", xreg.Names(), m.xreg.Names())
	}
	if xreg.Cols() > 0 && xreg.Rows() != n {
		return nil, errs.New(errs.KindDimensionMismatch, op, "regressors have %d rows, series has %d", xreg.Rows(), n)
	}
	design, err := withConstant(xreg, m.constant, 0, n)
	if err != nil {
		return nil, err
	}

	out := *m
	out.refiltered = true
	out.series = series.Copy()
	out.xreg = xreg
	out.design = design
	if err := out.filter(); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegressionEffect returns x'beta for rows of user regressors located at
// positions offset, offset+1, ... of the series index. The constant column is
// generated for those positions.
func (m *FittedModel) RegressionEffect(xreg *regressors.Matrix, offset, rows int) ([]float64, error) {
	const op = "sarima.RegressionEffect"
	if xreg == nil {
		xreg = regressors.Empty(rows)
	}
	if !slices.Equal(xreg.Names(), m.xreg.Names()) {
		return nil, errs.New(errs.KindDimensionMismatch, op, "regressors %v do not match the fitted %v", xreg.Names(), m.xreg.Names())
	}
	if xreg.Cols() > 0 && xreg.Rows() != rows {
		return nil, errs.New(errs.KindDimensionMismatch, op, "regressors have %d rows, need %d", xreg.Rows(), rows)
	}
	design, err := withConstant(xreg, m.constant, offset, rows)
	if err != nil {
		return nil, err
	}
	effect := make([]float64, rows)
	for t := range effect {
		row := design.Row(t)
		for j, b := range m.beta {
			effect[t] += row[j] * b
		}
	}
	return effect, nil
}

// Order returns the model order.
func (m *FittedModel) Order() Order { return m.order }

// Method returns the estimation method actually used.
func (m *FittedModel) Method() Method { return m.method }

// Fallback reports whether CSS estimates replaced a failed ML optimisation.
func (m *FittedModel) Fallback() bool { return m.fallback }

// Converged reports whether the requested estimation method converged.
func (m *FittedModel) Converged() bool { return m.converged }

// StdErrorsValid is false when the Hessian was not positive definite.
func (m *FittedModel) StdErrorsValid() bool { return m.seValid }

// Refiltered reports whether the model was produced by Refilter.
func (m *FittedModel) Refiltered() bool { return m.refiltered }

func (m *FittedModel) AR() []float64  { return slices.Clone(m.ar) }
func (m *FittedModel) MA() []float64  { return slices.Clone(m.ma) }
func (m *FittedModel) SAR() []float64 { return slices.Clone(m.sar) }
func (m *FittedModel) SMA() []float64 { return slices.Clone(m.sma) }

// Beta returns the regression coefficients in design column order.
func (m *FittedModel) Beta() []float64 { return slices.Clone(m.beta) }

func (m *FittedModel) Sigma2() float64 { return m.sigma2 }
func (m *FittedModel) LogLik() float64 { return m.loglik }
func (m *FittedModel) AIC() float64    { return m.aic }
func (m *FittedModel) AICc() float64   { return m.aicc }
func (m *FittedModel) BIC() float64    { return m.bic }

// NObs returns the number of observations entering the likelihood.
func (m *FittedModel) NObs() int { return m.nobs }

// NParams returns the number of estimated coefficients, excluding sigma2.
func (m *FittedModel) NParams() int { return m.nparams }

// Len returns the length of the series the model is attached to.
func (m *FittedModel) Len() int { return m.series.Len() }

// Series returns a copy of the series.
func (m *FittedModel) Series() *timeseries.Series { return m.series.Copy() }

// Xreg returns the user regressors.
func (m *FittedModel) Xreg() *regressors.Matrix { return m.xreg }

// Design returns the user regressors plus the constant column, if any.
func (m *FittedModel) Design() *regressors.Matrix { return m.design }

// Constant returns the name of the generated constant column, or "".
func (m *FittedModel) Constant() string { return m.constant }

// Coefficients returns ARMA then regression coefficients with standard errors.
func (m *FittedModel) Coefficients() []Coefficient {
	var out []Coefficient
	add := func(prefix string, values []float64, offset int) {
		for i, v := range values {
			out = append(out, Coefficient{
				Name:     fmt.Sprintf("%s%d", prefix, i+1),
				Value:    v,
				StdError: m.armaSE[offset+i],
			})
		}
	}
	o := m.order
	add("ar", m.ar, 0)
	add("ma", m.ma, o.P)
	add("sar", m.sar, o.P+o.Q)
	add("sma", m.sma, o.P+o.Q+o.SP)
	for j, name := range m.design.Names() {
		se := math.NaN()
		if j < len(m.betaSE) {
			se = m.betaSE[j]
		}
		out = append(out, Coefficient{Name: name, Value: m.beta[j], StdError: se})
	}
	return out
}

// Coefficient returns the named coefficient.
func (m *FittedModel) Coefficient(name string) (Coefficient, bool) {
	for _, c := range m.Coefficients() {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Innovations returns the conditional innovations on the original index.
// Positions before Start are zero.
func (m *FittedModel) Innovations() []float64 { return slices.Clone(m.innovations) }

// Start returns the first position with a defined innovation.
func (m *FittedModel) Start() int { return m.start }

// Residuals returns the innovations from Start on.
func (m *FittedModel) Residuals() []float64 {
	if m.start >= len(m.innovations) {
		return nil
	}
	return slices.Clone(m.innovations[m.start:])
}

// FittedValues returns y_t minus the innovation, which is the one-step
// prediction from Start on and the observation itself before.
func (m *FittedModel) FittedValues() []float64 {
	out := make([]float64, len(m.innovations))
	for t, e := range m.innovations {
		out[t] = m.series.Values[t] - e
	}
	return out
}

// RegressionFit returns x_t'beta over the series.
func (m *FittedModel) RegressionFit() []float64 { return slices.Clone(m.effect) }

// ARPolynomial returns the AR vector of phi(B)Phi(B^s) with the differencing
// operators multiplied in.
func (m *FittedModel) ARPolynomial() []float64 { return slices.Clone(m.phiFull) }

// MAPolynomial returns the MA vector of theta(B)Theta(B^s).
func (m *FittedModel) MAPolynomial() []float64 { return slices.Clone(m.thetaFull) }

// PsiWeights returns the first n coefficients of theta*(B)/phi*(B).
func (m *FittedModel) PsiWeights(n int) []float64 {
	return polyDiv(maPoly(m.thetaFull), arPoly(m.phiFull), n)
}

// PiWeights returns the first n coefficients of phi*(B)/theta*(B), the filter
// that maps the disturbance to the innovations.
func (m *FittedModel) PiWeights(n int) []float64 {
	return polyDiv(arPoly(m.phiFull), maPoly(m.thetaFull), n)
}
