package sarima

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// partrans maps unconstrained values to the coefficients of a stationary AR
// polynomial: tanh gives partial autocorrelations in (-1, 1), the
// Durbin-Levinson recursion turns them into AR coefficients.
func partrans(raw []float64) []float64 {
	p := len(raw)
	phi := make([]float64, p)
	work := make([]float64, p)
	for j, r := range raw {
		phi[j] = math.Tanh(r)
		work[j] = phi[j]
	}
	for j := 1; j < p; j++ {
		a := phi[j]
		for k := 0; k < j; k++ {
			work[k] -= a * phi[j-k-1]
		}
		copy(phi[:j], work[:j])
	}
	return phi
}

// invpartrans inverts partrans. The result is only finite for stationary phi.
func invpartrans(phi []float64) []float64 {
	p := len(phi)
	pacf := make([]float64, p)
	work := make([]float64, p)
	copy(pacf, phi)
	copy(work, phi)
	for j := p - 1; j > 0; j-- {
		a := pacf[j]
		for k := 0; k < j; k++ {
			work[k] = (pacf[k] + a*pacf[j-k-1]) / (1 - a*a)
		}
		copy(pacf[:j], work[:j])
	}
	for j := range pacf {
		pacf[j] = math.Atanh(pacf[j])
	}
	return pacf
}

// arStationary reports whether every root of 1 - sum phi_i z^i lies outside
// the unit circle.
func arStationary(phi []float64) bool {
	roots, ok := polyRoots(arPoly(phi))
	if !ok {
		return false
	}
	for _, r := range roots {
		if cmplx.Abs(r) <= 1 {
			return false
		}
	}
	return true
}

// polyRoots returns the roots of the polynomial c[0] + c[1]z + ... with
// c[0] = 1, from the eigenvalues of its companion matrix. Each eigenvalue
// lambda of the companion of the reversed polynomial gives a root 1/lambda.
func polyRoots(c []float64) ([]complex128, bool) {
	c = trimPoly(c)
	n := len(c) - 1
	if n <= 0 {
		return nil, true
	}

	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -c[j+1])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil, false
	}
	lambdas := eig.Values(nil)
	roots := make([]complex128, len(lambdas))
	for i, l := range lambdas {
		roots[i] = 1 / l
	}
	return roots, true
}

// maInvertible reports whether every root of 1 + sum theta_i z^i lies outside
// the unit circle.
func maInvertible(theta []float64) bool {
	roots, ok := polyRoots(maPoly(theta))
	if !ok {
		return false
	}
	for _, r := range roots {
		if cmplx.Abs(r) <= 1 {
			return false
		}
	}
	return true
}

// invertPoly reflects the roots of 1 + sum theta_i z^i that lie inside the
// unit circle and returns the coefficients of the rebuilt polynomial.
func invertPoly(theta []float64) []float64 {
	out := make([]float64, len(theta))
	copy(out, theta)
	roots, ok := polyRoots(maPoly(theta))
	if !ok {
		return out
	}
	inside := false
	for i, r := range roots {
		if cmplx.Abs(r) < 1 {
			roots[i] = 1 / r
			inside = true
		}
	}
	if !inside {
		return out
	}

	poly := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c / r
		}
		poly = next
	}
	clear(out)
	for i := 1; i < len(poly) && i <= len(out); i++ {
		out[i-1] = real(poly[i])
	}
	return out
}
