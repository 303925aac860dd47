// Package stats provides the unit-root and residual diagnostic tests used to
// choose integration orders and to check fitted models.
//
// Every test returns an error instead of a nil result: NaN or infinite input
// yields errs.ErrNonFinite, short input yields errs.ErrInsufficientData.
//
// # Stationarity Tests
//
//	// Augmented Dickey-Fuller, H0: unit root
//	adf, err := stats.ADF(series, 0, stats.RegressionConstant)
//
//	// KPSS, H0: stationary
//	kpss, err := stats.KPSS(series, stats.RegressionConstant, 0)
//
//	// Phillips-Perron, H0: unit root
//	pp, err := stats.PhillipsPerron(series, 0)
//
// ADF and Phillips-Perron p-values follow the MacKinnon (1994) response surface;
// KPSS p-values are interpolated from the tabulated critical values and clamped
// to [0.01, 0.10].
//
// # Differencing Analysis
//
//	d, err := stats.NDiffs(series, 2, stats.UnitRootKPSS)
//	sd, err := stats.NSDiffs(series, 12, 1)
//
// # Residual Diagnostics
//
//	lb, err := stats.LjungBox(residuals, 24, p+q+sp+sq)
//	jb, err := stats.JarqueBera(residuals.Values)
//	dw, err := stats.DurbinWatson(residuals.Values)
//
// # Decomposition
//
//	decomp, err := stats.Decompose(series, 12, stats.DecomposeAdditive)
package stats
