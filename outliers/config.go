package outliers

import (
	"runtime"

	"github.com/sartorproj/sarimax/regressors"
)

// Config controls the search.
type Config struct {
	// Types lists the candidate patterns. Empty means AO, LS and TC.
	Types []regressors.OutlierType `mapstructure:"types" json:"types" yaml:"types"`
	// Delta is the decay rate of transient changes.
	Delta float64 `mapstructure:"delta" json:"delta" yaml:"delta"`
	// CriticalValue is the |t| threshold for accepting (and keeping) an outlier.
	CriticalValue float64 `mapstructure:"critical_value" json:"critical_value" yaml:"critical_value"`
	MaxOuterIter  int     `mapstructure:"max_outer_iter" json:"max_outer_iter" yaml:"max_outer_iter"`
	MaxInnerIter  int     `mapstructure:"max_inner_iter" json:"max_inner_iter" yaml:"max_inner_iter"`
	// MaxTotalIter caps the number of residual scans over the whole search.
	MaxTotalIter int `mapstructure:"max_total_iter" json:"max_total_iter" yaml:"max_total_iter"`
	// Tolerance is the largest ARMA coefficient change between outer
	// iterations that counts as converged.
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance" yaml:"tolerance"`
	// Parallelism bounds the scan goroutines. Zero uses GOMAXPROCS.
	Parallelism int `mapstructure:"parallelism" json:"parallelism" yaml:"parallelism"`
	// Discard drops outliers whose final |t| falls below CriticalValue.
	Discard bool `mapstructure:"discard" json:"discard" yaml:"discard"`
}

// DefaultConfig returns the Chen-Liu defaults.
func DefaultConfig() Config {
	return Config{
		Types:         []regressors.OutlierType{regressors.AdditiveOutlier, regressors.LevelShift, regressors.TransientChange},
		Delta:         regressors.DefaultDelta,
		CriticalValue: 5,
		MaxOuterIter:  4,
		MaxInnerIter:  4,
		MaxTotalIter:  10,
		Tolerance:     1e-3,
		Discard:       true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Types) == 0 {
		c.Types = d.Types
	}
	if c.Delta <= 0 || c.Delta >= 1 {
		c.Delta = d.Delta
	}
	if c.CriticalValue <= 0 {
		c.CriticalValue = d.CriticalValue
	}
	if c.MaxOuterIter <= 0 {
		c.MaxOuterIter = d.MaxOuterIter
	}
	if c.MaxInnerIter <= 0 {
		c.MaxInnerIter = d.MaxInnerIter
	}
	if c.MaxTotalIter <= 0 {
		c.MaxTotalIter = d.MaxTotalIter
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	return c
}
