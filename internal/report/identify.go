package report

import (
	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/stats"
	"github.com/sartorproj/sarimax/timeseries"
)

// StageIdentification is the correlogram of the series differenced as the
// model differences it.
type StageIdentification struct {
	D               int       `json:"d" yaml:"d"`
	SD              int       `json:"sd" yaml:"sd"`
	ACF             []float64 `json:"acf" yaml:"acf"`
	PACF            []float64 `json:"pacf" yaml:"pacf"`
	Bound           float64   `json:"bound" yaml:"bound"`
	SignificantACF  []int     `json:"significant_acf" yaml:"significant_acf"`
	SignificantPACF []int     `json:"significant_pacf" yaml:"significant_pacf"`
}

// Identify computes the ACF and PACF of series after the differencing of
// order, up to two seasons or 24 lags.
func Identify(series *timeseries.Series, order sarima.Order) (*StageIdentification, error) {
	w := series
	for i := 0; i < order.SD; i++ {
		w = w.SeasonalDiff(order.M)
	}
	for i := 0; i < order.D; i++ {
		w = w.Diff()
	}
	lags := max(24, order.DefaultLags())
	if lags >= w.Len()/2 {
		lags = w.Len()/2 - 1
	}
	if lags < 1 {
		return nil, errs.New(errs.KindInsufficientData, "report.Identify", "%d differenced observations", w.Len())
	}

	acf, err := stats.ACFWithConfidence(w, lags)
	if err != nil {
		return nil, err
	}
	pacf, err := stats.PACFWithConfidence(w, lags)
	if err != nil {
		return nil, err
	}
	return &StageIdentification{
		D:               order.D,
		SD:              order.SD,
		ACF:             acf.Values,
		PACF:            pacf.Values,
		Bound:           acf.ConfBounds,
		SignificantACF:  stats.SignificantLags(acf.Values, acf.ConfBounds),
		SignificantPACF: stats.SignificantLags(pacf.Values, pacf.ConfBounds),
	}, nil
}
