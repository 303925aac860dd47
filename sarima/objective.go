package sarima

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// degenerateFit is the residual share of the response sum of squares below
// which the fit is exact and the likelihood unbounded.
const degenerateFit = 1e-12

// problem is the estimation problem on the differenced scale: the response w
// and regressor columns x, both already differenced.
type problem struct {
	order Order
	s     int
	w     []float64
	x     [][]float64
	ncond int // conditioning observations for CSS
}

func newProblem(order Order, y []float64, x [][]float64) *problem {
	s := order.period()
	pr := &problem{
		order: order,
		s:     s,
		w:     differenceValues(y, order.D, order.SD, s),
		ncond: order.P + s*order.SP,
	}
	for _, col := range x {
		pr.x = append(pr.x, differenceValues(col, order.D, order.SD, s))
	}
	return pr
}

// split separates a natural parameter vector into its blocks.
func (pr *problem) split(params []float64) (ar, ma, sar, sma []float64) {
	o := pr.order
	ar = params[:o.P]
	ma = params[o.P : o.P+o.Q]
	sar = params[o.P+o.Q : o.P+o.Q+o.SP]
	sma = params[o.P+o.Q+o.SP:]
	return ar, ma, sar, sma
}

func (pr *problem) polynomials(params []float64) (phi, theta []float64) {
	ar, ma, sar, sma := pr.split(params)
	return expandAR(ar, sar, pr.s), expandMA(ma, sma, pr.s)
}

// toNatural maps optimiser coordinates to model coefficients: the AR blocks
// go through partrans, the MA blocks are used as they are.
func (pr *problem) toNatural(raw []float64) []float64 {
	o := pr.order
	out := make([]float64, len(raw))
	copy(out, raw)
	copy(out[:o.P], partrans(raw[:o.P]))
	off := o.P + o.Q
	copy(out[off:off+o.SP], partrans(raw[off:off+o.SP]))
	return out
}

// toRaw inverts toNatural. It reports false when an AR block is not stationary.
func (pr *problem) toRaw(params []float64) ([]float64, bool) {
	o := pr.order
	out := make([]float64, len(params))
	copy(out, params)
	copy(out[:o.P], invpartrans(params[:o.P]))
	off := o.P + o.Q
	copy(out[off:off+o.SP], invpartrans(params[off:off+o.SP]))
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return out, true
}

// evaluation is the profiled objective at one parameter vector.
type evaluation struct {
	value  float64   // objective: 0.5 log s2 (CSS) or 0.5 (log s2 + sumlog/nu) (ML)
	beta   []float64 // GLS regression coefficients
	rss    float64
	sumlog float64
	nu     int        // observations entering the likelihood
	xf     *mat.Dense // filtered regressors, nil without regressors
}

func (e *evaluation) sigma2() float64 {
	return e.rss / float64(e.nu)
}

// negLogLik returns minus the profiled Gaussian log-likelihood.
func (e *evaluation) negLogLik() float64 {
	n := float64(e.nu)
	return n*e.value + 0.5*n*(1+math.Log(2*math.Pi))
}

// evaluate profiles beta and sigma2 out of the likelihood at the natural
// parameters params.
func (pr *problem) evaluate(method Method, params []float64) (*evaluation, bool) {
	phi, theta := pr.polynomials(params)
	cols := make([][]float64, 0, len(pr.x)+1)
	cols = append(cols, pr.w)
	cols = append(cols, pr.x...)

	var filtered [][]float64
	from := 0
	sumlog := 0.0
	switch method {
	case CSS:
		ar := arPoly(phi)
		from = pr.ncond
		filtered = make([][]float64, len(cols))
		for c, col := range cols {
			filtered[c] = conditionalResiduals(ar, theta, col, from)
		}
	default:
		var ok bool
		filtered, sumlog, ok = kalmanFilter(phi, theta, cols)
		if !ok {
			return nil, false
		}
	}

	ev := &evaluation{sumlog: sumlog, nu: len(pr.w) - from}
	if ev.nu <= 0 {
		return nil, false
	}
	yf := filtered[0][from:]
	if len(pr.x) == 0 {
		for _, v := range yf {
			ev.rss += v * v
		}
	} else {
		ev.xf = mat.NewDense(ev.nu, len(pr.x), nil)
		for j := range pr.x {
			ev.xf.SetCol(j, filtered[j+1][from:])
		}
		beta, rss, ok := leastSquares(ev.xf, yf)
		if !ok {
			return nil, false
		}
		ev.beta, ev.rss = beta, rss
	}

	tss := 0.0
	for _, v := range yf {
		tss += v * v
	}
	if ev.rss <= degenerateFit*tss {
		return nil, false
	}

	s2 := ev.sigma2()
	if method == CSS {
		ev.value = 0.5 * math.Log(s2)
	} else {
		ev.value = 0.5 * (math.Log(s2) + sumlog/float64(ev.nu))
	}
	if math.IsNaN(ev.value) || math.IsInf(ev.value, 0) {
		return nil, false
	}
	return ev, true
}

// objective returns the function minimised over raw (optimiser) coordinates.
// Infeasible points evaluate to +Inf.
func (pr *problem) objective(method Method, transform bool) func([]float64) float64 {
	return func(raw []float64) float64 {
		params := raw
		if transform {
			params = pr.toNatural(raw)
		}
		ev, ok := pr.evaluate(method, params)
		if !ok {
			return math.Inf(1)
		}
		return ev.value
	}
}

// leastSquares solves min |x b - y| by QR and returns b and the residual sum
// of squares.
func leastSquares(x *mat.Dense, y []float64) ([]float64, float64, bool) {
	n, k := x.Dims()
	if n <= k {
		return nil, 0, false
	}
	var qr mat.QR
	qr.Factorize(x)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, mat.NewVecDense(n, y)); err != nil {
		return nil, 0, false
	}
	beta := make([]float64, k)
	for j := range beta {
		beta[j] = b.AtVec(j)
	}
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - mat.Dot(x.RowView(i), &b)
		rss += r * r
	}
	return beta, rss, true
}
