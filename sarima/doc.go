// Package sarima fits regressions with seasonal ARIMA errors.
//
// A model with order (p,d,q)(P,D,Q)[m] and regressors x_t is
//
//	y_t = x_t'beta + eta_t
//	phi(B)Phi(B^m)(1-B)^d(1-B^m)^D eta_t = theta(B)Theta(B^m) eps_t
//
// Estimation works on the differenced response and regressors. The
// regression coefficients and the innovation variance are profiled out by
// generalised least squares, so only the ARMA coefficients are optimised
// (Nelder-Mead from gonum/optimize).
//
// # Estimation Methods
//
//   - CSS: conditional sum of squares, conditioning on the first p+mP
//     differenced observations.
//   - ML: exact Gaussian likelihood from a Kalman filter. The initial state
//     covariance is the stationary one, found by the doubling algorithm. AR
//     coefficients are kept stationary through a partial autocorrelation
//     (tanh) reparameterisation.
//   - CSSML (default): CSS start values, then ML. If ML fails to converge the
//     CSS estimates are kept and the model reports Fallback.
//
// # Basic Usage
//
//	order := sarima.NewOrder(1, 0, 0, 1, 1, 0, 12)
//	model, err := sarima.Fit(ctx, series, order, xreg, sarima.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(model.Summary())
//
// Errors carry kinds from package errs: InvalidOrder is reported before any
// work, DimensionMismatch when xreg does not match the series, and
// EstimationFailed when no estimate could be produced. No default
// coefficients are ever substituted.
//
// # Constant Terms
//
// With IncludeConstant the model adds an "intercept" column when d+D = 0 and
// a "drift" column (1, 2, ..., n) when d+D = 1. With d+D >= 2 a constant is
// not identifiable and is skipped.
//
// # Inspection
//
// Roots returns the roots of phi(B)Phi(B^m) and theta(B)Theta(B^m) with a
// near-unit flag, Diagnose runs residual tests, and Refilter applies the
// fitted coefficients to an extended series without re-estimating them.
package sarima
