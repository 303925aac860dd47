// Package report runs the complete analysis of one series: unit-root tests,
// order selection, model variants with and without calendar effects and
// outliers, holdout evaluation against the seasonal naive benchmark and
// forecasts. Each stage returns a record that later stages read but never
// change.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sartorproj/sarimax/autoarima"
	"github.com/sartorproj/sarimax/calendar"
	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/evaluate"
	"github.com/sartorproj/sarimax/forecast"
	"github.com/sartorproj/sarimax/internal/config"
	"github.com/sartorproj/sarimax/outliers"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/timeseries"
)

// Pipeline runs the analysis described by a configuration.
type Pipeline struct {
	Config *config.Config
	Logger *logrus.Logger
	// Calendar replaces the configured country calendar when set.
	Calendar calendar.Source

	now func() time.Time
}

// NewPipeline returns a pipeline. A nil config uses config.DefaultConfig and
// a nil logger logrus.New().
func NewPipeline(cfg *config.Config, logger *logrus.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{Config: cfg, Logger: logger, now: time.Now}
}

// run carries what every variant shares.
type run struct {
	*Pipeline
	log      *logrus.Entry
	series   *timeseries.Series // on the modelling scale
	order    sarima.Order
	fitOpts  sarima.Options
	engine   *forecast.Engine
	searcher *outliers.Searcher
	builder  *regressors.Builder // over the series and the horizon
	n, j, h  int
}

// Run analyses series. The series must have a monthly index.
func (p *Pipeline) Run(ctx context.Context, series *timeseries.Series) (*Report, error) {
	const op = "report.Run"
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if series == nil || series.Len() == 0 {
		return nil, errs.New(errs.KindInsufficientData, op, "empty series")
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if p.now == nil {
		p.now = time.Now
	}

	n, j, h := series.Len(), cfg.Forecast.Holdout, cfg.Forecast.Horizon
	period := max(1, cfg.Model.Period)
	if n-j < 2*period {
		return nil, errs.New(errs.KindInsufficientData, op,
			"%d observations leave %d for estimation after a holdout of %d, need at least %d", n, n-j, j, 2*period)
	}

	runID := uuid.New().String()
	log := p.Logger.WithFields(logrus.Fields{
		"run_id": runID,
		"series": series.Name,
	})

	modelled := series
	if cfg.Input.Log {
		var err error
		if modelled, err = series.Log(); err != nil {
			return nil, err
		}
	}

	order, err := cfg.Model.Order()
	if err != nil {
		return nil, err
	}
	fitOpts, err := cfg.Model.FitOptions()
	if err != nil {
		return nil, err
	}
	fitOpts.Logger = p.Logger
	engineCfg, err := cfg.Forecast.EngineConfig()
	if err != nil {
		return nil, err
	}
	searchCfg, err := cfg.Outliers.SearchConfig()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:     runID,
		CreatedAt: p.now().UTC(),
		Input: StageInput{
			Name:    series.Name,
			N:       n,
			Start:   series.Timestamps[0],
			End:     series.Timestamps[n-1],
			Log:     cfg.Input.Log,
			Holdout: j,
			Horizon: h,
			Period:  cfg.Model.Period,
		},
		Errors: evaluate.NewTable(),
	}
	log.WithFields(logrus.Fields{"n": n, "holdout": j, "horizon": h}).Info("run started")

	rep.UnitRoot = UnitRootTable(modelled, cfg.Model.Period)

	if cfg.Model.Auto {
		sel, err := autoarima.AutoARIMA(ctx, modelled.Slice(0, n-j), nil, cfg.Model.AutoConfig(), fitOpts)
		if err != nil {
			return nil, fmt.Errorf("order selection: %w", err)
		}
		order = sel.Order
		rep.Selection = &StageSelection{
			Order:     sel.Order,
			Criterion: cfg.Model.Criterion,
			Value:     sel.Criterion,
			Evaluated: sel.ModelsEvaluated,
		}
	}

	if rep.Identification, err = Identify(modelled.Slice(0, n-j), order); err != nil {
		log.WithError(err).Warn("correlogram unavailable")
	}

	r := &run{
		Pipeline: p,
		log:      log.WithField("order", order.String()),
		series:   modelled,
		order:    order,
		fitOpts:  fitOpts,
		engine:   forecast.NewEngine(engineCfg, p.Logger),
		searcher: outliers.NewSearcher(searchCfg, p.Logger),
		builder:  regressors.NewBuilder(series.ExtendedIndex(h)),
		n:        n,
		j:        j,
		h:        h,
	}

	if rep.Naive, err = r.naive(series, period); err != nil {
		return nil, err
	}

	cal, err := p.calendar()
	if err != nil {
		return nil, err
	}
	for _, v := range variants(cal != nil, cfg.Outliers.Enabled) {
		var src calendar.Source
		if v.calendar {
			src = cal
		}
		stage, err := r.variant(ctx, v.name, src, v.outliers)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", v.name, err)
		}
		rep.Variants = append(rep.Variants, stage)
		if j > 0 {
			r.score(rep.Errors, stage, rep.Naive)
		}
	}

	if best, ok := rep.Errors.Best(ModeExPost); ok {
		log.WithField("best", best).Info("run finished")
	} else {
		log.Info("run finished")
	}
	return rep, nil
}

func (p *Pipeline) calendar() (calendar.Source, error) {
	if !p.Config.Calendar.Enabled {
		return nil, nil
	}
	if p.Calendar != nil {
		return p.Calendar, nil
	}
	return calendar.New(p.Config.Calendar.Country)
}

type variantSpec struct {
	name     string
	calendar bool
	outliers bool
}

func variants(withCalendar, withOutliers bool) []variantSpec {
	out := []variantSpec{{name: VariantBase}}
	if withCalendar {
		out = append(out, variantSpec{name: VariantCalendar, calendar: true})
	}
	if withOutliers {
		if withCalendar {
			out = append(out, variantSpec{name: VariantCalendarOutliers, calendar: true, outliers: true})
		} else {
			out = append(out, variantSpec{name: VariantOutliers, outliers: true})
		}
	}
	return out
}

// naive computes the benchmark on the original scale.
func (r *run) naive(series *timeseries.Series, period int) (StageNaive, error) {
	var st StageNaive
	var err error
	if r.j > 0 {
		if st.ExPost, err = r.engine.SeasonalNaiveExPost(series, r.j, period); err != nil {
			return st, err
		}
		if st.HoldoutForecast, err = r.engine.SeasonalNaive(series, r.n-r.j-1, r.j, period); err != nil {
			return st, err
		}
	}
	if st.Forecast, err = r.engine.SeasonalNaive(series, r.n-1, r.h, period); err != nil {
		return st, err
	}
	return st, nil
}

// variant estimates one model variant twice: on the estimation sample for
// the holdout evaluation, and on the whole series for the forecast. Outliers
// found on the sample seed the search on the whole series.
func (r *run) variant(ctx context.Context, name string, cal calendar.Source, search bool) (StageVariant, error) {
	log := r.log.WithField("variant", name)
	st := StageVariant{Name: name, Order: r.order}

	// Calendar columns over the series and the horizon.
	base, err := r.builder.Build(regressors.Request{Calendar: cal})
	if err != nil {
		return st, err
	}

	var seed []regressors.Outlier
	if r.j > 0 {
		n0 := r.n - r.j
		sample := r.series.Slice(0, n0)
		model, found, _, err := r.estimate(ctx, sample, base.Slice(0, n0), search, nil)
		if err != nil {
			return st, fmt.Errorf("holdout estimation: %w", err)
		}
		xreg, err := r.design(base, found, model)
		if err != nil {
			return st, err
		}
		if st.Holdout, err = model.Refilter(r.series, xreg.Slice(0, r.n)); err != nil {
			return st, err
		}
		if st.ExPost, err = r.engine.ExPost(st.Holdout, r.j); err != nil {
			return st, err
		}
		if st.HoldoutForecast, err = r.engine.ForecastAt(st.Holdout, n0-1, r.j, nil); err != nil {
			return st, err
		}
		seed = found
	}

	model, found, summary, err := r.estimate(ctx, r.series, base.Slice(0, r.n), search, seed)
	if err != nil {
		return st, err
	}
	st.Model, st.Outliers, st.Search = model, found, summary
	st.Regressors = model.Xreg().Names()

	xreg, err := r.design(base, found, model)
	if err != nil {
		return st, err
	}
	if st.Forecast, err = r.engine.ExAnte(model, r.h, xreg.Slice(r.n, r.n+r.h)); err != nil {
		return st, err
	}

	if st.Diagnostics, err = model.Diagnose(0); err != nil {
		log.WithError(err).Warn("diagnostics unavailable")
	}
	if st.Roots, err = model.Roots(); err != nil {
		log.WithError(err).Warn("root analysis unavailable")
	} else if st.Roots.NearUnitAR() || st.Roots.NearUnitMA() {
		log.WithFields(logrus.Fields{
			"near_unit_ar": st.Roots.NearUnitAR(),
			"near_unit_ma": st.Roots.NearUnitMA(),
		}).Warn("roots near the unit circle")
	}

	if r.Config.Input.Log {
		st.ExPost = expResult(st.ExPost)
		st.HoldoutForecast = expResult(st.HoldoutForecast)
		st.Forecast = expResult(st.Forecast)
	}

	log.WithFields(logrus.Fields{
		"aicc":     model.AICc(),
		"outliers": len(found),
	}).Info("variant estimated")
	return st, nil
}

// estimate fits the order on series with xreg, running the outlier search
// when search is set.
func (r *run) estimate(ctx context.Context, series *timeseries.Series, xreg *regressors.Matrix, search bool,
	seed []regressors.Outlier) (*sarima.FittedModel, []regressors.Outlier, *SearchSummary, error) {
	if !search {
		model, err := sarima.Fit(ctx, series, r.order, xreg, r.fitOpts)
		return model, nil, nil, err
	}
	res, err := r.searcher.Search(ctx, series, r.order, xreg, r.fitOpts, seed)
	if err != nil {
		return nil, nil, nil, err
	}
	summary := &SearchSummary{
		State:           res.State,
		OuterIterations: res.OuterIterations,
		InnerIterations: res.InnerIterations,
	}
	return res.Model, res.Outliers, summary, nil
}

// design returns the regressors of model over the series and the horizon,
// columns in the order the model was fitted with.
func (r *run) design(base *regressors.Matrix, found []regressors.Outlier, model *sarima.FittedModel) (*regressors.Matrix, error) {
	om, err := r.builder.OutlierMatrix(found)
	if err != nil {
		return nil, err
	}
	all, err := base.HStack(om)
	if err != nil {
		return nil, err
	}
	names := model.Xreg().Names()
	if len(names) == 0 {
		return regressors.Empty(all.Rows()), nil
	}
	columns := make([][]float64, len(names))
	for i, name := range names {
		col, ok := all.Column(name)
		if !ok {
			return nil, errs.New(errs.KindDimensionMismatch, "report.design", "no regressor %q for the horizon", name)
		}
		columns[i] = col
	}
	return regressors.NewMatrix(names, columns)
}

// score adds the holdout measures of st to table.
func (r *run) score(table *evaluate.Table, st StageVariant, naive StageNaive) {
	add := func(mode string, horizon int, candidate, bench *forecast.Result) {
		m, err := evaluate.Evaluate(candidate.Actuals(), candidate.Means(), bench.Means())
		switch {
		case errors.Is(err, evaluate.ErrDegenerateBenchmark):
			r.log.WithFields(logrus.Fields{"variant": st.Name, "mode": mode}).Warn("naive benchmark is exact, ratios undefined")
		case err != nil:
			r.log.WithError(err).WithFields(logrus.Fields{"variant": st.Name, "mode": mode}).Warn("evaluation skipped")
			return
		}
		table.Add(st.Name, mode, horizon, m)
	}
	add(ModeExPost, 1, st.ExPost, naive.ExPost)
	add(ModeExAnte, r.j, st.HoldoutForecast, naive.HoldoutForecast)
}

// expResult maps a forecast of the log series back to the original scale.
// Means become medians; standard errors use the delta method.
func expResult(res *forecast.Result) *forecast.Result {
	if res == nil {
		return nil
	}
	out := *res
	out.Points = make([]forecast.Point, len(res.Points))
	for i, p := range res.Points {
		mean := math.Exp(p.Mean)
		p.SE *= mean
		p.Mean = mean
		p.Lower = math.Exp(p.Lower)
		p.Upper = math.Exp(p.Upper)
		if p.HasActual {
			p.Actual = math.Exp(p.Actual)
		}
		out.Points[i] = p
	}
	return &out
}
