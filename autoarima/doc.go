// Package autoarima selects the order of a seasonal ARIMA regression.
//
// The differencing orders come first: d from repeated unit-root tests (KPSS by
// default, ADF or Phillips-Perron on request) and D from the seasonal strength
// of the series. When regressors are given the tests look at the residuals of
// their least-squares fit. The ARMA orders are then chosen by minimising an
// information criterion (AICc by default) over models fitted with
// sarima.Fit, so every candidate carries the same regressors.
//
// # Basic Usage
//
//	config := autoarima.DefaultConfig()
//	config.Seasonal = true
//	config.SeasonalM = 12
//
//	result, err := autoarima.AutoARIMA(ctx, series, xreg, config, sarima.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Order, result.Criterion, result.ModelsEvaluated)
//
// # Search Methods
//
//   - Stepwise (default): the Hyndman-Khandakar search. A few starting orders
//     are fitted, then the search moves to the first neighbouring order that
//     improves the criterion until none does.
//   - Grid: every order up to the configured maxima (set Stepwise=false).
//
// Set D or SD to a non-negative value to fix the differencing instead of
// testing for it.
package autoarima
