// Package outliers searches a seasonal ARIMA regression for additive
// outliers, level shifts and transient changes with the Chen-Liu procedure.
//
// The search alternates two loops. The outer loop fits the model on the base
// regressors plus every accepted outlier. The inner loop scans the residuals
// of that fit: for each position and candidate type it estimates the effect
// and its t-statistic, accepts the largest one above the critical value,
// removes its effect from the residuals and scans again. The search ends
// Converged when a scan accepts nothing new or the ARMA coefficients stop
// moving, and IterationLimited when a cap is reached first.
package outliers

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/timeseries"
)

// State is the state of a search.
type State int

const (
	Searching State = iota
	Converged
	IterationLimited
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Converged:
		return "converged"
	case IterationLimited:
		return "iteration_limited"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of a search. Model is fitted on the base regressors
// plus the outlier columns of Outliers.
type Result struct {
	Outliers []regressors.Outlier
	Model    *sarima.FittedModel
	State    State
	// OuterIterations counts the fits made by the outer loop.
	OuterIterations int
	// InnerIterations counts residual scans.
	InnerIterations int
}

// Searcher runs outlier searches.
type Searcher struct {
	Config Config
	Logger *logrus.Logger
}

// NewSearcher returns a searcher. A nil logger is replaced by logrus.New().
func NewSearcher(cfg Config, logger *logrus.Logger) *Searcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Searcher{Config: cfg, Logger: logger}
}

type search struct {
	*Searcher
	cfg     Config
	series  *timeseries.Series
	order   sarima.Order
	base    *regressors.Matrix
	fitOpts sarima.Options
	builder *regressors.Builder
	log     *logrus.Entry
}

// Search looks for outliers in series under order. base holds the regressors
// every fit carries (nil for none) and seed the outliers included from the
// first fit. A search that finds nothing returns the base model and an empty
// set.
func (s *Searcher) Search(ctx context.Context, series *timeseries.Series, order sarima.Order, base *regressors.Matrix,
	fitOpts sarima.Options, seed []regressors.Outlier) (*Result, error) {
	const op = "outliers.Search"
	if series == nil || series.Len() == 0 {
		return nil, errs.New(errs.KindInsufficientData, op, "empty series")
	}
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	n := series.Len()
	if base == nil {
		base = regressors.Empty(n)
	}
	if base.Cols() > 0 && base.Rows() != n {
		return nil, errs.New(errs.KindDimensionMismatch, op, "base regressors have %d rows, series has %d", base.Rows(), n)
	}
	if fitOpts.Logger == nil {
		fitOpts.Logger = logger
	}

	sr := &search{
		Searcher: s,
		cfg:      s.Config.withDefaults(),
		series:   series,
		order:    order,
		base:     base,
		fitOpts:  fitOpts,
		builder:  regressors.NewBuilder(series.Timestamps),
		log: logger.WithFields(logrus.Fields{
			"order":  order.String(),
			"series": series.Name,
		}),
	}
	return sr.run(ctx, seed)
}

func (sr *search) run(ctx context.Context, seed []regressors.Outlier) (*Result, error) {
	accepted, err := sr.dedupe(seed)
	if err != nil {
		return nil, err
	}
	res := &Result{State: Searching}

	var model *sarima.FittedModel
	var prev []float64
	for outer := 1; ; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model, err = sr.fit(ctx, accepted)
		if err != nil {
			return nil, err
		}
		res.OuterIterations = outer
		params := armaParams(model)

		if outer > 1 && maxAbsDiff(params, prev) < sr.cfg.Tolerance {
			res.State = Converged
			break
		}
		prev = params
		if outer > sr.cfg.MaxOuterIter || res.InnerIterations >= sr.cfg.MaxTotalIter {
			res.State = IterationLimited
			break
		}

		found, err := sr.inner(ctx, model, accepted, res)
		if err != nil {
			return nil, err
		}
		sr.log.WithFields(logrus.Fields{
			"outer":    outer,
			"accepted": len(found),
			"scans":    res.InnerIterations,
		}).Debug("outer iteration")
		if len(found) == 0 {
			res.State = Converged
			break
		}
		accepted = append(accepted, found...)
	}

	if sr.cfg.Discard && len(accepted) > 0 {
		kept := sr.discard(model, accepted)
		if len(kept) < len(accepted) {
			accepted = kept
			if model, err = sr.fit(ctx, accepted); err != nil {
				return nil, err
			}
		}
	}

	res.Model = model
	res.Outliers = annotate(model, accepted)
	regressors.SortOutliers(res.Outliers)

	fields := logrus.Fields{
		"state":    res.State.String(),
		"outliers": len(res.Outliers),
		"outer":    res.OuterIterations,
		"scans":    res.InnerIterations,
	}
	if res.State == IterationLimited {
		sr.log.WithFields(fields).Warn("outlier search stopped at iteration cap")
	} else {
		sr.log.WithFields(fields).Info("outlier search finished")
	}
	return res, nil
}

// inner scans the residuals of model until no candidate passes the critical
// value or a cap is reached, and returns the newly accepted outliers.
func (sr *search) inner(ctx context.Context, model *sarima.FittedModel, accepted []regressors.Outlier, res *Result) ([]regressors.Outlier, error) {
	const op = "outliers.Search"
	resid := model.Innovations()
	start := model.Start()
	for t := start; t < len(resid); t++ {
		if math.IsNaN(resid[t]) || math.IsInf(resid[t], 0) {
			return nil, errs.New(errs.KindNonFinite, op, "residual is %v at position %d", resid[t], t)
		}
	}
	sigma := robustSigma(resid[start:])
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, errs.New(errs.KindNonFinite, op, "robust residual scale is %v", sigma)
	}

	pat := newPatterns(model.PiWeights(len(resid)), sr.cfg.Types, sr.cfg.Delta)
	skip := make(map[int]bool, len(accepted))
	for _, o := range accepted {
		skip[o.Index] = true
	}

	var found []regressors.Outlier
	for i := 0; i < sr.cfg.MaxInnerIter && res.InnerIterations < sr.cfg.MaxTotalIter; i++ {
		res.InnerIterations++
		best, ok, err := sr.scan(ctx, pat, resid, start, sigma, skip, sr.cfg)
		if err != nil {
			return nil, err
		}
		if !ok || math.Abs(best.tau) <= sr.cfg.CriticalValue {
			break
		}
		o := regressors.Outlier{
			Type:      best.typ,
			Index:     best.index,
			Time:      sr.series.Timestamps[best.index],
			Magnitude: best.omega,
			TStat:     best.tau,
		}
		if o.Type == regressors.TransientChange {
			o.Delta = sr.cfg.Delta
		}
		sr.log.WithFields(logrus.Fields{
			"outlier": o.Name(),
			"omega":   best.omega,
			"tau":     best.tau,
		}).Debug("outlier accepted")
		found = append(found, o)
		skip[best.index] = true
		pat.remove(best, resid)
	}
	return found, nil
}

// fit estimates the model on base plus the outlier columns.
func (sr *search) fit(ctx context.Context, outliers []regressors.Outlier) (*sarima.FittedModel, error) {
	om, err := sr.builder.OutlierMatrix(outliers)
	if err != nil {
		return nil, err
	}
	xreg, err := sr.base.HStack(om)
	if err != nil {
		return nil, err
	}
	return sarima.Fit(ctx, sr.series, sr.order, xreg, sr.fitOpts)
}

// discard returns the outliers whose coefficient keeps |t| at or above the
// critical value. Outliers without a valid standard error are kept.
func (sr *search) discard(model *sarima.FittedModel, outliers []regressors.Outlier) []regressors.Outlier {
	kept := make([]regressors.Outlier, 0, len(outliers))
	for _, o := range outliers {
		c, ok := model.Coefficient(o.Name())
		if !ok {
			kept = append(kept, o)
			continue
		}
		t := c.Value / c.StdError
		if math.IsNaN(t) || math.IsInf(t, 0) {
			sr.log.WithField("outlier", o.Name()).Warn("outlier kept without a valid standard error")
			kept = append(kept, o)
			continue
		}
		if math.Abs(t) < sr.cfg.CriticalValue {
			sr.log.WithFields(logrus.Fields{"outlier": o.Name(), "t": t}).Debug("outlier discarded")
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// dedupe fills in the time of each seed outlier and drops repeated ones.
func (sr *search) dedupe(seed []regressors.Outlier) ([]regressors.Outlier, error) {
	n := sr.series.Len()
	seen := make(map[string]bool, len(seed))
	out := make([]regressors.Outlier, 0, len(seed))
	for _, o := range seed {
		if o.Index < 0 || o.Index >= n {
			return nil, errs.New(errs.KindDimensionMismatch, "outliers.Search",
				"seed outlier %s at position %d outside series of length %d", o.Type, o.Index, n)
		}
		if seen[o.Key()] {
			continue
		}
		seen[o.Key()] = true
		o.Time = sr.series.Timestamps[o.Index]
		if o.Type == regressors.TransientChange && o.Delta == 0 {
			o.Delta = sr.cfg.Delta
		}
		out = append(out, o)
	}
	return out, nil
}

// annotate copies each outlier's regression estimate from model.
func annotate(model *sarima.FittedModel, outliers []regressors.Outlier) []regressors.Outlier {
	out := make([]regressors.Outlier, 0, len(outliers))
	for _, o := range outliers {
		if c, ok := model.Coefficient(o.Name()); ok {
			o.Magnitude = c.Value
			o.StdError = c.StdError
			o.TStat = c.Value / c.StdError
		}
		out = append(out, o)
	}
	return out
}

func armaParams(m *sarima.FittedModel) []float64 {
	var p []float64
	p = append(p, m.AR()...)
	p = append(p, m.MA()...)
	p = append(p, m.SAR()...)
	p = append(p, m.SMA()...)
	return p
}

func maxAbsDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	d := 0.0
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}
