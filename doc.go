// Package sarimax fits regressions with seasonal ARIMA errors to monthly
// series, detects outliers and forecasts.
//
// The model is
//
//	y_t = x_t'beta + eta_t,  phi(B)Phi(B^s)(1-B)^d(1-B^s)^D eta_t = theta(B)Theta(B^s) eps_t
//
// where x_t holds calendar effects, a drift and outlier interventions.
//
// # Packages
//
//   - timeseries: monthly series, CSV loading and transformations
//   - calendar: working-day, leap-year and Easter regressors
//   - regressors: named regressor matrices and outlier columns
//   - sarima: estimation by CSS, exact maximum likelihood or both
//   - outliers: iterative detection of additive outliers, level shifts and
//     transient changes
//   - forecast: ex-post and ex-ante forecasts and the seasonal naive benchmark
//   - evaluate: error measures relative to the benchmark
//   - autoarima: order selection by information criteria
//   - stats: unit-root and residual tests
//
// # Quick Start
//
//	series, _ := timeseries.LoadCSV("ipi.csv", nil)
//	order := sarima.NewOrder(0, 1, 1, 0, 1, 1, 12)
//	res, _ := outliers.NewSearcher(outliers.DefaultConfig(), nil).
//		Search(ctx, series, order, nil, sarima.DefaultOptions(), nil)
//	fc, _ := forecast.NewEngine(forecast.DefaultConfig(), nil).ExAnte(res.Model, 12, nil)
//
// The sarimax command runs the whole analysis from a configuration file.
//
// # References
//
//   - Chen, C., & Liu, L.-M. (1993). Joint Estimation of Model Parameters and
//     Outlier Effects in Time Series
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package sarimax
