package sarima

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/timeseries"
)

const (
	// convergenceTol is the absolute objective improvement below which the
	// simplex is considered converged after convergenceWindow iterations.
	convergenceTol    = 1e-9
	convergenceWindow = 100
	simplexSize       = 0.1
	maxCondition      = 1e12
)

// ctxRecorder stops the optimiser once the context is done.
type ctxRecorder struct {
	ctx context.Context
}

func (r ctxRecorder) Init() error {
	return r.ctx.Err()
}

func (r ctxRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// Fit estimates a regression with SARIMA errors
//
//	y_t = x_t'beta + eta_t,  phi(B)Phi(B^s)(1-B)^d(1-B^s)^D eta_t = theta(B)Theta(B^s) eps_t
//
// on series with regressors xreg (nil for none). Estimation runs on the
// differenced response and regressors; beta and the innovation variance are
// profiled out and only the ARMA coefficients are optimised.
func Fit(ctx context.Context, series *timeseries.Series, order Order, xreg *regressors.Matrix, opts Options) (*FittedModel, error) {
	const op = "sarima.Fit"
	opts = opts.withDefaults()

	if err := order.Validate(); err != nil {
		return nil, err
	}
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
	if xreg.Cols() > 0 && xreg.Rows() != n {
		return nil, errs.New(errs.KindDimensionMismatch, op, "regressors have %d rows, series has %d", xreg.Rows(), n)
	}

	log := opts.Logger.WithFields(logrus.Fields{
		"order":  order.String(),
		"method": opts.Method.String(),
	})

	constant := constantColumn(order, xreg, opts.IncludeConstant, log)
	design, err := withConstant(xreg, constant, 0, n)
	if err != nil {
		return nil, err
	}
	columns := make([][]float64, design.Cols())
	for j := range columns {
		columns[j] = design.ColumnAt(j)
		for t, v := range columns[j] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errs.New(errs.KindNonFinite, op, "regressor %q is %v at position %d", design.Names()[j], v, t)
			}
		}
	}

	pr := newProblem(order, series.Values, columns)
	npar := order.NumARMA()
	k := len(columns)
	if len(pr.w)-pr.ncond < npar+k+1 {
		return nil, errs.New(errs.KindInsufficientData, op,
			"%d differenced observations for %d conditioning lags, %d ARMA and %d regression coefficients",
			len(pr.w), pr.ncond, npar, k)
	}
	if err := checkIdentifiable(pr, design.Names()); err != nil {
		return nil, err
	}

	f := &fitter{pr: pr, opts: opts, log: log}
	est, err := f.run(ctx)
	if err != nil {
		return nil, err
	}

	m, err := newFittedModel(pr, est, series, xreg, design, constant, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"used_method": m.method.String(),
		"fallback":    m.fallback,
		"loglik":      m.loglik,
		"aicc":        m.aicc,
		"sigma2":      m.sigma2,
	}).Info("model fitted")
	return m, nil
}

// constantColumn decides which constant term the model carries.
func constantColumn(order Order, xreg *regressors.Matrix, include bool, log *logrus.Entry) string {
	if !include {
		return ""
	}
	switch order.Integration() {
	case 0:
		if xreg.Index(ColumnIntercept) >= 0 {
			return ""
		}
		return ColumnIntercept
	case 1:
		if xreg.Index(ColumnDrift) >= 0 {
			return ""
		}
		return ColumnDrift
	default:
		log.Debug("constant not identifiable with d+D >= 2, skipped")
		return ""
	}
}

// withConstant appends the constant column for rows [offset, offset+rows) of
// the series to xreg.
func withConstant(xreg *regressors.Matrix, constant string, offset, rows int) (*regressors.Matrix, error) {
	if constant == "" {
		if xreg.Cols() == 0 {
			return regressors.Empty(rows), nil
		}
		return xreg, nil
	}
	col := make([]float64, rows)
	for t := range col {
		switch constant {
		case ColumnIntercept:
			col[t] = 1
		case ColumnDrift:
			col[t] = float64(offset + t + 1)
		}
	}
	extra, err := regressors.NewMatrix([]string{constant}, [][]float64{col})
	if err != nil {
		return nil, err
	}
	if xreg.Cols() == 0 {
		return extra, nil
	}
	return xreg.HStack(extra)
}

// checkIdentifiable rejects regressors that vanish or are collinear once
// differenced.
func checkIdentifiable(pr *problem, names []string) error {
	const op = "sarima.Fit"
	if len(pr.x) == 0 {
		return nil
	}
	m := len(pr.w)
	x := mat.NewDense(m, len(pr.x), nil)
	for j, col := range pr.x {
		ss := 0.0
		for _, v := range col {
			ss += v * v
		}
		if ss == 0 {
			return errs.New(errs.KindEstimationFailed, op, "regressor %q is zero after differencing", names[j])
		}
		x.SetCol(j, col)
	}
	var qr mat.QR
	qr.Factorize(x)
	if c := qr.Cond(); c > maxCondition || math.IsNaN(c) {
		return errs.New(errs.KindEstimationFailed, op, "regressors are collinear after differencing (condition %.3g)", c)
	}
	return nil
}

// estimate is the outcome of the optimisation stage.
type estimate struct {
	params    []float64 // natural ARMA coefficients
	method    Method
	fallback  bool
	converged bool
	ev        *evaluation
}

type fitter struct {
	pr   *problem
	opts Options
	log  *logrus.Entry
}

func (f *fitter) run(ctx context.Context) (*estimate, error) {
	const op = "sarima.Fit"
	pr := f.pr
	zero := make([]float64, pr.order.NumARMA())

	if len(zero) == 0 {
		method := ML
		if f.opts.Method == CSS {
			method = CSS
		}
		ev, ok := pr.evaluate(method, zero)
		if !ok {
			return nil, errs.New(errs.KindEstimationFailed, op, "objective is not finite (constant series?)")
		}
		return &estimate{params: zero, method: method, converged: true, ev: ev}, nil
	}

	var css *estimate
	if f.opts.Method == CSS || f.opts.Method == CSSML {
		if _, ok := pr.evaluate(CSS, zero); !ok {
			return nil, errs.New(errs.KindEstimationFailed, op, "CSS objective is not finite at the start values (constant series?)")
		}
		x, ok, err := f.minimize(ctx, pr.objective(CSS, false), zero)
		if err != nil {
			return nil, err
		}
		if ok {
			if ev, feasible := pr.evaluate(CSS, x); feasible {
				css = &estimate{params: x, method: CSS, converged: true, ev: ev}
			}
		}
		f.log.WithField("converged", css != nil).Debug("CSS stage finished")
		if f.opts.Method == CSS {
			if css == nil {
				return nil, errs.New(errs.KindEstimationFailed, op, "CSS optimisation did not converge")
			}
			return css, nil
		}
	}

	start := zero
	if css != nil {
		start = f.mlStart(css.params)
	}
	raw, ok := pr.toRaw(start)
	if !ok {
		raw = make([]float64, len(zero))
	}
	if _, feasible := pr.evaluate(ML, pr.toNatural(raw)); !feasible {
		raw = make([]float64, len(zero))
		if _, feasible := pr.evaluate(ML, zero); !feasible {
			return nil, errs.New(errs.KindEstimationFailed, op, "likelihood is not finite at the start values (constant series?)")
		}
	}

	x, ok, err := f.minimize(ctx, pr.objective(ML, true), raw)
	if err != nil {
		return nil, err
	}
	if ok {
		params := pr.toNatural(x)
		params = pr.invertMA(params)
		if ev, feasible := pr.evaluate(ML, params); feasible {
			return &estimate{params: params, method: ML, converged: true, ev: ev}, nil
		}
	}

	if css != nil {
		f.log.Warn("ML optimisation did not converge, using CSS estimates")
		css.fallback = true
		css.converged = false
		return css, nil
	}
	return nil, errs.New(errs.KindEstimationFailed, op, "%s optimisation did not converge", f.opts.Method)
}

// mlStart sanitises CSS estimates for use as ML start values: AR blocks that
// are not stationary and MA blocks that are not invertible start at zero.
func (f *fitter) mlStart(params []float64) []float64 {
	pr := f.pr
	start := make([]float64, len(params))
	copy(start, params)
	ar, ma, sar, sma := pr.split(start)
	if !arStationary(ar) {
		clear(ar)
	}
	if !arStationary(sar) {
		clear(sar)
	}
	if !maInvertible(ma) {
		clear(ma)
	}
	if !maInvertible(sma) {
		clear(sma)
	}
	return start
}

func (f *fitter) minimize(ctx context.Context, obj func([]float64) float64, x0 []float64) ([]float64, bool, error) {
	settings := &optimize.Settings{
		MajorIterations: f.opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   convergenceTol,
			Iterations: convergenceWindow,
		},
		Recorder: ctxRecorder{ctx: ctx},
	}
	result, err := optimize.Minimize(optimize.Problem{Func: obj}, x0, settings, &optimize.NelderMead{SimplexSize: simplexSize})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}
	if err != nil || result == nil {
		f.log.WithError(err).Debug("optimiser stopped without converging")
		return nil, false, nil
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, false, nil
	}
	switch result.Status {
	case optimize.FunctionConvergence, optimize.MethodConverge, optimize.Success:
	default:
		f.log.WithFields(logrus.Fields{
			"status":     result.Status.String(),
			"iterations": result.MajorIterations,
		}).Debug("optimiser stopped without converging")
		return nil, false, nil
	}
	f.log.WithFields(logrus.Fields{
		"iterations":  result.MajorIterations,
		"evaluations": result.FuncEvaluations,
		"objective":   result.F,
	}).Debug("optimiser converged")
	return result.X, true, nil
}

// invertMA replaces MA blocks that are not invertible by their invertible
// counterparts, which have the same autocovariances.
func (pr *problem) invertMA(params []float64) []float64 {
	out := make([]float64, len(params))
	copy(out, params)
	_, ma, _, sma := pr.split(out)
	copy(ma, invertPoly(ma))
	copy(sma, invertPoly(sma))
	return out
}
