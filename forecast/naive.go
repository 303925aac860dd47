package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

// SeasonalNaive forecasts positions origin+1 .. origin+h with the last value
// observed in the same season: y[t - S*ceil((t-origin)/S)]. Intervals treat
// the series as a seasonal random walk whose step variance is the mean
// squared seasonal difference up to origin.
func (e *Engine) SeasonalNaive(series *timeseries.Series, origin, h, period int) (*Result, error) {
	const op = "forecast.SeasonalNaive"
	if series == nil {
		return nil, errs.New(errs.KindInsufficientData, op, "nil series")
	}
	n := series.Len()
	if period < 1 {
		return nil, errs.New(errs.KindInvalidOrder, op, "seasonal period %d < 1", period)
	}
	if h < 1 {
		return nil, errs.New(errs.KindInsufficientData, op, "horizon %d < 1", h)
	}
	if origin < period-1 || origin >= n {
		return nil, errs.New(errs.KindInsufficientData, op, "origin %d outside [%d, %d]", origin, period-1, n-1)
	}

	sigma := math.NaN()
	if origin >= period {
		d := make([]float64, origin+1-period)
		for t := period; t <= origin; t++ {
			d[t-period] = series.Values[t] - series.Values[t-period]
		}
		sigma = math.Sqrt(floats.Dot(d, d) / float64(len(d)))
	}

	cfg := e.Config.withDefaults()
	q := quantileNormal(cfg.Alpha)
	beyond := max(0, origin+h-(n-1))
	times := series.ExtendedIndex(beyond)

	res := &Result{Points: make([]Point, h), Horizon: h, Alpha: cfg.Alpha, Mode: Naive}
	for k := 1; k <= h; k++ {
		t := origin + k
		cycles := (k + period - 1) / period
		mean := series.Values[t-period*cycles]
		se := sigma * math.Sqrt(float64(cycles))
		p := Point{
			Step:   k,
			Origin: origin,
			Mean:   mean,
			SE:     se,
			Lower:  mean - q*se,
			Upper:  mean + q*se,
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

// SeasonalNaiveExPost forecasts each of the last J observations by the value
// one season earlier.
func (e *Engine) SeasonalNaiveExPost(series *timeseries.Series, j, period int) (*Result, error) {
	const op = "forecast.SeasonalNaiveExPost"
	if series == nil {
		return nil, errs.New(errs.KindInsufficientData, op, "nil series")
	}
	n := series.Len()
	if j < 1 || n-j-1 < period-1 {
		return nil, errs.New(errs.KindInsufficientData, op, "cannot evaluate %d naive forecasts on %d observations", j, n)
	}
	res := &Result{Points: make([]Point, 0, j), Horizon: 1, Alpha: e.Config.withDefaults().Alpha, Mode: Naive}
	for t := n - j; t < n; t++ {
		one, err := e.SeasonalNaive(series, t-1, 1, period)
		if err != nil {
			return nil, err
		}
		res.Points = append(res.Points, one.Points[0])
	}
	return res, nil
}
