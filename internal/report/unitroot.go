package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/sartorproj/sarimax/stats"
	"github.com/sartorproj/sarimax/timeseries"
)

// UnitRootRow is one stationarity test on one transformation of the series.
// Err is set instead of the statistic when the test could not run.
type UnitRootRow struct {
	Series     string  `json:"series" yaml:"series"`
	Test       string  `json:"test" yaml:"test"`
	Statistic  float64 `json:"statistic" yaml:"statistic"`
	PValue     float64 `json:"p_value" yaml:"p_value"`
	Lags       int     `json:"lags" yaml:"lags"`
	Stationary bool    `json:"stationary" yaml:"stationary"`
	Err        string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// UnitRootTable runs ADF, KPSS and Phillips-Perron on the level, the first
// difference and, for period >= 2, the seasonal and both differences.
func UnitRootTable(series *timeseries.Series, period int) []UnitRootRow {
	type transformed struct {
		name   string
		series *timeseries.Series
	}
	views := []transformed{
		{"level", series},
		{"diff", series.Diff()},
	}
	if period >= 2 {
		views = append(views,
			transformed{"seasonal_diff", series.SeasonalDiff(period)},
			transformed{"diff+seasonal_diff", series.SeasonalDiff(period).Diff()},
		)
	}

	var rows []UnitRootRow
	for _, v := range views {
		adf, err := stats.ADF(v.series, 0, stats.RegressionConstant)
		if err != nil {
			rows = append(rows, failedRow(v.name, stats.UnitRootADF, err))
		} else {
			rows = append(rows, UnitRootRow{Series: v.name, Test: stats.UnitRootADF, Statistic: adf.Statistic,
				PValue: adf.PValue, Lags: adf.Lags, Stationary: adf.IsStationary})
		}

		kpss, err := stats.KPSS(v.series, stats.RegressionConstant, 0)
		if err != nil {
			rows = append(rows, failedRow(v.name, stats.UnitRootKPSS, err))
		} else {
			rows = append(rows, UnitRootRow{Series: v.name, Test: stats.UnitRootKPSS, Statistic: kpss.Statistic,
				PValue: kpss.PValue, Lags: kpss.Lags, Stationary: kpss.IsStationary})
		}

		pp, err := stats.PhillipsPerron(v.series, 0)
		if err != nil {
			rows = append(rows, failedRow(v.name, stats.UnitRootPP, err))
		} else {
			rows = append(rows, UnitRootRow{Series: v.name, Test: stats.UnitRootPP, Statistic: pp.Statistic,
				PValue: pp.PValue, Lags: pp.Lags, Stationary: pp.IsStationary})
		}
	}
	return rows
}

func failedRow(series, test string, err error) UnitRootRow {
	return UnitRootRow{
		Series:    series,
		Test:      test,
		Statistic: math.NaN(),
		PValue:    math.NaN(),
		Err:       err.Error(),
	}
}

// WriteUnitRootTable prints rows as an aligned text table.
func WriteUnitRootTable(w io.Writer, rows []UnitRootRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "series\ttest\tstatistic\tp-value\tlags\tstationary")
	for _, r := range rows {
		if r.Err != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t%s\n", r.Series, r.Test, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%d\t%t\n", r.Series, r.Test, r.Statistic, r.PValue, r.Lags, r.Stationary)
	}
	return tw.Flush()
}
