// Package forecast produces point forecasts and prediction intervals from a
// fitted seasonal ARIMA regression, plus the seasonal naive benchmark.
//
// Every model forecast goes through ForecastAt: the disturbance eta is
// projected with the full autoregressive polynomial (differencing included),
// the moving-average part uses innovations up to the origin only, and the
// regression effect is added back. Standard errors come from the psi weights
// of the model, se_h = sigma * sqrt(psi_0^2 + ... + psi_{h-1}^2).
package forecast

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
)

// Mode tells how a forecast was produced.
type Mode string

const (
	// ExPost forecasts are one step ahead from origins inside the sample.
	ExPost Mode = "ex-post"
	// ExAnte forecasts start at the last observation.
	ExAnte Mode = "ex-ante"
	// Naive forecasts come from the seasonal naive benchmark.
	Naive Mode = "naive"
)

// Point is one forecast. Origin is the index of the last observation used and
// Step the number of periods ahead of it.
type Point struct {
	Step      int       `json:"step" yaml:"step"`
	Origin    int       `json:"origin" yaml:"origin"`
	Time      time.Time `json:"time" yaml:"time"`
	Mean      float64   `json:"mean" yaml:"mean"`
	SE        float64   `json:"se" yaml:"se"`
	Lower     float64   `json:"lower" yaml:"lower"`
	Upper     float64   `json:"upper" yaml:"upper"`
	Actual    float64   `json:"actual,omitempty" yaml:"actual,omitempty"`
	HasActual bool      `json:"has_actual" yaml:"has_actual"`
}

// Result is an ordered set of forecasts.
type Result struct {
	Points  []Point `json:"points" yaml:"points"`
	Horizon int     `json:"horizon" yaml:"horizon"`
	Alpha   float64 `json:"alpha" yaml:"alpha"`
	Mode    Mode    `json:"mode" yaml:"mode"`
}

// Means returns the point forecasts.
func (r *Result) Means() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Mean
	}
	return out
}

// Actuals returns the realised values of the leading points that have one.
func (r *Result) Actuals() []float64 {
	var out []float64
	for _, p := range r.Points {
		if !p.HasActual {
			break
		}
		out = append(out, p.Actual)
	}
	return out
}

// Engine computes forecasts.
type Engine struct {
	Config Config
	Logger *logrus.Logger
}

// NewEngine returns an engine. A nil logger is replaced by logrus.New().
func NewEngine(cfg Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{Config: cfg, Logger: logger}
}

func (e *Engine) logger() *logrus.Logger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

// quantile returns the two-sided critical value for the configured level.
func (e *Engine) quantile(model *sarima.FittedModel) float64 {
	cfg := e.Config.withDefaults()
	p := 1 - cfg.Alpha/2
	if cfg.Distribution == StudentT {
		if df := model.NObs() - model.NParams(); df > 0 {
			return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(p)
		}
		e.logger().WithField("nobs", model.NObs()).Warn("no degrees of freedom left, using normal quantile")
	}
	return quantileNormal(cfg.Alpha)
}

func quantileNormal(alpha float64) float64 {
	return distuv.UnitNormal.Quantile(1 - alpha/2)
}

// standardErrors returns se_1..se_h from the psi weights.
func standardErrors(model *sarima.FittedModel, h int) []float64 {
	psi := model.PsiWeights(h)
	sq := make([]float64, h)
	for i, v := range psi {
		sq[i] = v * v
	}
	floats.CumSum(sq, sq)
	sigma := math.Sqrt(model.Sigma2())
	for i, v := range sq {
		sq[i] = sigma * math.Sqrt(v)
	}
	return sq
}

// ForecastAt forecasts positions origin+1 .. origin+h of the model's series
// using observations up to origin. future holds the user regressors for the
// positions beyond the end of the series, that is max(0, origin+h-(n-1)) rows
// with the columns the model was fitted with. It may be nil when the model
// has no user regressors.
func (e *Engine) ForecastAt(model *sarima.FittedModel, origin, h int, future *regressors.Matrix) (*Result, error) {
	const op = "forecast.ForecastAt"
	if model == nil {
		return nil, errs.New(errs.KindInsufficientData, op, "nil model")
	}
	n := model.Len()
	phi := model.ARPolynomial()
	theta := model.MAPolynomial()
	if h < 1 {
		return nil, errs.New(errs.KindInsufficientData, op, "horizon %d < 1", h)
	}
	if first := max(0, len(phi)-1); origin < first || origin >= n {
		return nil, errs.New(errs.KindInsufficientData, op,
			"origin %d outside [%d, %d]", origin, first, n-1)
	}

	beyond := max(0, origin+h-(n-1))
	var futureEffect []float64
	if beyond > 0 {
		if future == nil {
			future = regressors.Empty(beyond)
		}
		var err error
		futureEffect, err = model.RegressionEffect(future, n, beyond)
		if err != nil {
			return nil, err
		}
	}

	series := model.Series()
	effect := append(model.RegressionFit(), futureEffect...)
	innov := model.Innovations()

	// eta holds observed disturbances up to origin and forecasts after it.
	eta := make([]float64, origin+h+1)
	for t := 0; t <= origin; t++ {
		eta[t] = series.Values[t] - effect[t]
	}
	for t := origin + 1; t <= origin+h; t++ {
		v := 0.0
		for i, c := range phi {
			v += c * eta[t-i-1]
		}
		for j, c := range theta {
			if s := t - j - 1; s >= 0 && s <= origin {
				v += c * innov[s]
			}
		}
		eta[t] = v
	}

	se := standardErrors(model, h)
	q := e.quantile(model)
	times := series.ExtendedIndex(beyond)
	cfg := e.Config.withDefaults()

	res := &Result{Points: make([]Point, h), Horizon: h, Alpha: cfg.Alpha, Mode: ExPost}
	if beyond > 0 {
		res.Mode = ExAnte
	}
	for k := 1; k <= h; k++ {
		t := origin + k
		mean := eta[t] + effect[t]
		p := Point{
			Step:   k,
			Origin: origin,
			Mean:   mean,
			SE:     se[k-1],
			Lower:  mean - q*se[k-1],
			Upper:  mean + q*se[k-1],
		}
		if t < len(times) {
			p.Time = times[t]
		}
		if t < n {
			p.Actual, p.HasActual = series.Values[t], true
		}
		res.Points[k-1] = p
	}
	return res, nil
}

// ExAnte forecasts h periods beyond the last observation. future must carry h
// rows of the model's user regressors; the intercept or drift extends itself.
func (e *Engine) ExAnte(model *sarima.FittedModel, h int, future *regressors.Matrix) (*Result, error) {
	if model == nil {
		return nil, errs.New(errs.KindInsufficientData, "forecast.ExAnte", "nil model")
	}
	res, err := e.ForecastAt(model, model.Len()-1, h, future)
	if err != nil {
		return nil, err
	}
	e.logger().WithFields(logrus.Fields{
		"horizon": h,
		"order":   model.Order().String(),
	}).Debug("ex-ante forecast")
	return res, nil
}

// ExPost forecasts each of the last J observations one step ahead from the
// observation before it. No coefficient is re-estimated; pass a refiltered
// model to get genuine out-of-sample forecasts.
func (e *Engine) ExPost(model *sarima.FittedModel, j int) (*Result, error) {
	const op = "forecast.ExPost"
	if model == nil {
		return nil, errs.New(errs.KindInsufficientData, op, "nil model")
	}
	n := model.Len()
	if j < 1 || j > n-max(1, len(model.ARPolynomial())) {
		return nil, errs.New(errs.KindInsufficientData, op, "cannot evaluate %d one-step forecasts on %d observations", j, n)
	}
	res := &Result{Points: make([]Point, 0, j), Horizon: 1, Alpha: e.Config.withDefaults().Alpha, Mode: ExPost}
	for t := n - j; t < n; t++ {
		one, err := e.ForecastAt(model, t-1, 1, nil)
		if err != nil {
			return nil, err
		}
		res.Points = append(res.Points, one.Points[0])
	}
	e.logger().WithFields(logrus.Fields{
		"points": j,
		"order":  model.Order().String(),
	}).Debug("ex-post forecast")
	return res, nil
}
