package autoarima

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/stats"
	"github.com/sartorproj/sarimax/timeseries"
)

// Information criteria accepted by Config.Criterion.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// Config holds configuration for the order search.
type Config struct {
	MaxP  int `mapstructure:"max_p" json:"max_p" yaml:"max_p"`
	MaxD  int `mapstructure:"max_d" json:"max_d" yaml:"max_d"`
	MaxQ  int `mapstructure:"max_q" json:"max_q" yaml:"max_q"`
	MaxSP int `mapstructure:"max_sp" json:"max_sp" yaml:"max_sp"`
	MaxSD int `mapstructure:"max_sd" json:"max_sd" yaml:"max_sd"`
	MaxSQ int `mapstructure:"max_sq" json:"max_sq" yaml:"max_sq"`
	// D and SD fix the differencing orders; negative values choose them from
	// unit-root tests and seasonal strength.
	D         int    `mapstructure:"d" json:"d" yaml:"d"`
	SD        int    `mapstructure:"sd" json:"sd" yaml:"sd"`
	Seasonal  bool   `mapstructure:"seasonal" json:"seasonal" yaml:"seasonal"`
	SeasonalM int    `mapstructure:"seasonal_m" json:"seasonal_m" yaml:"seasonal_m"`
	Stepwise  bool   `mapstructure:"stepwise" json:"stepwise" yaml:"stepwise"`
	Criterion string `mapstructure:"criterion" json:"criterion" yaml:"criterion"`
	// StationTest is the unit-root test used to choose d: kpss, adf or pp.
	StationTest string `mapstructure:"station_test" json:"station_test" yaml:"station_test"`
}

// DefaultConfig returns a stepwise AICc search over non-seasonal orders up
// to (5,2,5) with automatic differencing.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        5,
		MaxD:        2,
		MaxQ:        5,
		MaxSP:       2,
		MaxSD:       1,
		MaxSQ:       2,
		D:           -1,
		SD:          -1,
		Stepwise:    true,
		Criterion:   CriterionAICc,
		StationTest: stats.UnitRootKPSS,
	}
}

// Candidate is one evaluated order.
type Candidate struct {
	Order     sarima.Order `json:"order" yaml:"order"`
	Criterion float64      `json:"criterion" yaml:"criterion"`
}

// Result is the outcome of a search.
type Result struct {
	Model     *sarima.FittedModel
	Order     sarima.Order
	Criterion float64
	// Candidates lists every order that was fitted successfully, in
	// evaluation order.
	Candidates      []Candidate
	ModelsEvaluated int
}

// AutoARIMA selects the order with the lowest information criterion for a
// regression of series on xreg (nil for none) with seasonal ARIMA errors.
// Orders that fail to fit are skipped; if none fits the search fails with
// EstimationFailed.
func AutoARIMA(ctx context.Context, series *timeseries.Series, xreg *regressors.Matrix, config *Config, fitOpts sarima.Options) (*Result, error) {
	const op = "autoarima.AutoARIMA"
	if config == nil {
		config = DefaultConfig()
	}
	if series == nil || series.Len() == 0 {
		return nil, errs.New(errs.KindInsufficientData, op, "empty series")
	}
	if fitOpts.Logger == nil {
		fitOpts.Logger = logrus.New()
	}
	m := 0
	if config.Seasonal {
		m = config.SeasonalM
		if m < 2 {
			return nil, errs.New(errs.KindInvalidOrder, op, "seasonal search needs a period >= 2, got %d", m)
		}
	}

	resid, err := regressionResiduals(series, xreg)
	if err != nil {
		return nil, err
	}
	d := config.D
	if d < 0 {
		if d, err = stats.NDiffs(resid, config.MaxD, config.StationTest); err != nil {
			return nil, err
		}
	}
	sd := 0
	if config.Seasonal {
		sd = config.SD
		if sd < 0 {
			if sd, err = stats.NSDiffs(resid, m, config.MaxSD); err != nil {
				return nil, err
			}
		}
	}

	s := &searcher{
		ctx:     ctx,
		series:  series,
		xreg:    xreg,
		config:  config,
		fitOpts: fitOpts,
		d:       d,
		sd:      sd,
		m:       m,
		tried:   make(map[string]bool),
		log: fitOpts.Logger.WithFields(logrus.Fields{
			"d":         d,
			"D":         sd,
			"criterion": criterionName(config.Criterion),
		}),
	}
	s.log.Debug("differencing chosen")

	if config.Stepwise {
		err = s.stepwise()
	} else {
		err = s.grid()
	}
	if err != nil {
		return nil, err
	}
	if s.best == nil {
		return nil, errs.New(errs.KindEstimationFailed, op, "no candidate order could be fitted")
	}

	s.log.WithFields(logrus.Fields{
		"order":     s.best.Order().String(),
		"value":     s.bestValue,
		"evaluated": len(s.candidates),
	}).Info("order selected")
	return &Result{
		Model:           s.best,
		Order:           s.best.Order(),
		Criterion:       s.bestValue,
		Candidates:      s.candidates,
		ModelsEvaluated: len(s.candidates),
	}, nil
}

type searcher struct {
	ctx     context.Context
	series  *timeseries.Series
	xreg    *regressors.Matrix
	config  *Config
	fitOpts sarima.Options
	d, sd   int
	m       int
	log     *logrus.Entry

	tried      map[string]bool
	candidates []Candidate
	best       *sarima.FittedModel
	bestValue  float64
}

type orders struct {
	p, q, sp, sq int
}

func (s *searcher) order(sp orders) sarima.Order {
	return sarima.NewOrder(sp.p, s.d, sp.q, sp.sp, s.sd, sp.sq, s.m)
}

func (s *searcher) allowed(sp orders) bool {
	c := s.config
	if sp.p < 0 || sp.p > c.MaxP || sp.q < 0 || sp.q > c.MaxQ {
		return false
	}
	if s.m == 0 {
		return sp.sp == 0 && sp.sq == 0
	}
	return sp.sp >= 0 && sp.sp <= c.MaxSP && sp.sq >= 0 && sp.sq <= c.MaxSQ
}

// try fits sp once and reports whether it improved on the best model.
// Fitting errors other than cancellation only skip the candidate.
func (s *searcher) try(sp orders) (bool, error) {
	if err := s.ctx.Err(); err != nil {
		return false, err
	}
	if !s.allowed(sp) {
		return false, nil
	}
	order := s.order(sp)
	key := order.String()
	if s.tried[key] {
		return false, nil
	}
	s.tried[key] = true

	model, err := sarima.Fit(s.ctx, s.series, order, s.xreg, s.fitOpts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		s.log.WithError(err).WithField("order", key).Debug("candidate skipped")
		return false, nil
	}
	value := criterion(model, s.config.Criterion)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, nil
	}
	s.candidates = append(s.candidates, Candidate{Order: order, Criterion: value})
	s.log.WithFields(logrus.Fields{"order": key, "value": value}).Debug("candidate fitted")
	if s.best == nil || value < s.bestValue {
		s.best, s.bestValue = model, value
		return true, nil
	}
	return false, nil
}

// stepwise follows Hyndman and Khandakar: fit a few starting orders, then move
// to the best neighbour until none improves.
func (s *searcher) stepwise() error {
	starts := []orders{{2, 2, 1, 1}, {0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}}
	for _, sp := range starts {
		if s.m == 0 {
			sp.sp, sp.sq = 0, 0
		}
		if _, err := s.try(sp); err != nil {
			return err
		}
	}
	if s.best == nil {
		return nil
	}

	for {
		o := s.best.Order()
		cur := orders{o.P, o.Q, o.SP, o.SQ}
		neighbors := []orders{
			{cur.p + 1, cur.q, cur.sp, cur.sq},
			{cur.p - 1, cur.q, cur.sp, cur.sq},
			{cur.p, cur.q + 1, cur.sp, cur.sq},
			{cur.p, cur.q - 1, cur.sp, cur.sq},
			{cur.p + 1, cur.q + 1, cur.sp, cur.sq},
			{cur.p - 1, cur.q - 1, cur.sp, cur.sq},
			{cur.p, cur.q, cur.sp + 1, cur.sq},
			{cur.p, cur.q, cur.sp - 1, cur.sq},
			{cur.p, cur.q, cur.sp, cur.sq + 1},
			{cur.p, cur.q, cur.sp, cur.sq - 1},
		}
		improved := false
		for _, sp := range neighbors {
			better, err := s.try(sp)
			if err != nil {
				return err
			}
			if better {
				improved = true
				break
			}
		}
		if !improved {
			return nil
		}
	}
}

// grid fits every allowed order.
func (s *searcher) grid() error {
	maxSP, maxSQ := s.config.MaxSP, s.config.MaxSQ
	if s.m == 0 {
		maxSP, maxSQ = 0, 0
	}
	for p := 0; p <= s.config.MaxP; p++ {
		for q := 0; q <= s.config.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					if _, err := s.try(orders{p, q, sp, sq}); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func criterionName(c string) string {
	switch strings.ToLower(c) {
	case CriterionAIC, CriterionBIC:
		return strings.ToLower(c)
	default:
		return CriterionAICc
	}
}

func criterion(m *sarima.FittedModel, c string) float64 {
	switch criterionName(c) {
	case CriterionAIC:
		return m.AIC()
	case CriterionBIC:
		return m.BIC()
	default:
		return m.AICc()
	}
}

// maxRegressorCond bounds the condition number of the centred regressors.
const maxRegressorCond = 1e10

// regressionResiduals returns series minus its least-squares projection on
// xreg and a constant, the series the differencing tests look at. Constant
// columns of xreg are absorbed by the mean.
func regressionResiduals(series *timeseries.Series, xreg *regressors.Matrix) (*timeseries.Series, error) {
	const op = "autoarima.AutoARIMA"
	if xreg == nil || xreg.Cols() == 0 {
		return series, nil
	}
	n := series.Len()
	if xreg.Rows() != n {
		return nil, errs.New(errs.KindDimensionMismatch, op,
			"regressors have %d rows, series has %d", xreg.Rows(), n)
	}

	ybar := stat.Mean(series.Values, nil)
	y := mat.NewVecDense(n, nil)
	for t, v := range series.Values {
		y.SetVec(t, v-ybar)
	}
	var cols [][]float64
	for j := 0; j < xreg.Cols(); j++ {
		col := xreg.ColumnAt(j)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		centred := make([]float64, n)
		for t, v := range col {
			centred[t] = v - mean
		}
		cols = append(cols, centred)
	}

	out := series.Copy()
	for t := range out.Values {
		out.Values[t] = y.AtVec(t)
	}
	if len(cols) == 0 {
		return out, nil
	}
	x := mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		x.SetCol(j, col)
	}

	var qr mat.QR
	qr.Factorize(x)
	if cond := qr.Cond(); cond > maxRegressorCond {
		return nil, errs.New(errs.KindEstimationFailed, op, "regressors are collinear (condition number %.3g)", cond)
	}
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, errs.Wrap(err, errs.KindEstimationFailed, op, "regression on the regressors failed")
	}
	var fit mat.VecDense
	fit.MulVec(x, &beta)
	for t := range out.Values {
		out.Values[t] -= fit.AtVec(t)
	}
	return out, nil
}
