package report

import (
	"time"

	"github.com/sartorproj/sarimax/evaluate"
	"github.com/sartorproj/sarimax/forecast"
	"github.com/sartorproj/sarimax/outliers"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
)

// Variant names.
const (
	VariantBase             = "base"
	VariantCalendar         = "calendar"
	VariantOutliers         = "outliers"
	VariantCalendarOutliers = "calendar+outliers"
)

// Evaluation modes in the error table. ModeExPost scores the one-step
// forecasts of the holdout, ModeExAnte the multi-step forecast of the whole
// holdout from the end of the estimation sample.
const (
	ModeExPost = string(forecast.ExPost)
	ModeExAnte = string(forecast.ExAnte)
)

// StageInput describes the analysed series.
type StageInput struct {
	Name    string    `json:"name" yaml:"name"`
	N       int       `json:"n" yaml:"n"`
	Start   time.Time `json:"start" yaml:"start"`
	End     time.Time `json:"end" yaml:"end"`
	Log     bool      `json:"log" yaml:"log"`
	Holdout int       `json:"holdout" yaml:"holdout"`
	Horizon int       `json:"horizon" yaml:"horizon"`
	Period  int       `json:"period" yaml:"period"`
}

// StageSelection records an automatic order choice.
type StageSelection struct {
	Order     sarima.Order `json:"order" yaml:"order"`
	Criterion string       `json:"criterion" yaml:"criterion"`
	Value     float64      `json:"value" yaml:"value"`
	Evaluated int          `json:"evaluated" yaml:"evaluated"`
}

// SearchSummary is the bookkeeping of an outlier search.
type SearchSummary struct {
	State           outliers.State `json:"state" yaml:"state"`
	OuterIterations int            `json:"outer_iterations" yaml:"outer_iterations"`
	InnerIterations int            `json:"inner_iterations" yaml:"inner_iterations"`
}

// StageVariant is everything produced for one model variant.
type StageVariant struct {
	Name       string
	Order      sarima.Order
	Regressors []string

	// Model is estimated on the whole series and produces Forecast.
	Model *sarima.FittedModel
	// Holdout is estimated on the first N-J observations and refiltered
	// over the whole series; it produces ExPost and HoldoutForecast.
	Holdout *sarima.FittedModel

	Outliers []regressors.Outlier
	Search   *SearchSummary

	Diagnostics *sarima.Diagnostics
	Roots       *sarima.RootAnalysis

	ExPost          *forecast.Result
	HoldoutForecast *forecast.Result
	Forecast        *forecast.Result
}

// StageNaive holds the seasonal naive benchmark on the same positions as
// the variants' forecasts.
type StageNaive struct {
	ExPost          *forecast.Result
	HoldoutForecast *forecast.Result
	Forecast        *forecast.Result
}

// Report is the outcome of a run. Every stage is computed once and never
// modified afterwards.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Input     StageInput
	UnitRoot  []UnitRootRow
	Selection *StageSelection
	// Identification is nil when the differenced series is too short.
	Identification *StageIdentification
	Variants       []StageVariant
	Naive          StageNaive
	Errors         *evaluate.Table
}

// Variant returns the named variant.
func (r *Report) Variant(name string) (StageVariant, bool) {
	for _, v := range r.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return StageVariant{}, false
}
