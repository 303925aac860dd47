package sarima

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxDoubling      = 60
	doublingTol      = 1e-12
	steadyStateTol   = 1e-11
	minInnovVariance = 1e-12
)

// stationaryCovariance solves P = T P T' + R R' for the ARMA state space
// with the doubling algorithm. T is the companion matrix with first column
// phi and R = (1, theta_1, ...). It fails when the AR part is not stationary.
func stationaryCovariance(phi, rvec []float64) (*mat.Dense, bool) {
	r := len(rvec)
	a := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		a.Set(i, 0, phi[i])
		if i+1 < r {
			a.Set(i, i+1, 1)
		}
	}
	p := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			p.Set(i, j, rvec[i]*rvec[j])
		}
	}

	var apa, a2 mat.Dense
	for iter := 0; iter < maxDoubling; iter++ {
		apa.Product(a, p, a.T())
		p.Add(p, &apa)
		a2.Mul(a, a)
		a.Copy(&a2)

		norm := mat.Norm(a, math.Inf(1))
		if math.IsNaN(norm) || math.IsInf(norm, 0) || norm > 1e100 {
			return nil, false
		}
		if norm < doublingTol {
			return p, true
		}
	}
	return nil, false
}

// kalmanFilter runs the exact likelihood filter for the ARMA model phi, theta
// (unit innovation variance) over each column. The filter is linear in the
// data and its gains do not depend on it, so the response and all regressors
// share one covariance recursion. It returns the standardised innovations
// v_t/sqrt(F_t) of every column and sum(log F_t).
func kalmanFilter(phi, theta []float64, cols [][]float64) ([][]float64, float64, bool) {
	r := max(len(phi), len(theta)+1)
	phiR := make([]float64, r)
	copy(phiR, phi)
	rvec := make([]float64, r)
	rvec[0] = 1
	copy(rvec[1:], theta)

	p0, ok := stationaryCovariance(phiR, rvec)
	if !ok {
		return nil, 0, false
	}
	P := make([][]float64, r)
	M := make([][]float64, r)
	for i := range P {
		P[i] = make([]float64, r)
		M[i] = make([]float64, r)
		for j := range P[i] {
			P[i][j] = p0.At(i, j)
		}
	}

	n := len(cols[0])
	states := make([][]float64, len(cols))
	out := make([][]float64, len(cols))
	for c := range cols {
		states[c] = make([]float64, r)
		out[c] = make([]float64, n)
	}
	gain := make([]float64, r)
	row := make([]float64, r)

	sumlog := 0.0
	steady := false
	for t := 0; t < n; t++ {
		if t > 0 {
			for _, a := range states {
				a0 := a[0]
				for i := 0; i < r-1; i++ {
					a[i] = phiR[i]*a0 + a[i+1]
				}
				a[r-1] = phiR[r-1] * a0
			}
			if !steady {
				predictCovariance(P, M, phiR, rvec)
			}
		}

		F := P[0][0]
		if steady {
			F = 1
		}
		if math.IsNaN(F) || F < minInnovVariance {
			return nil, 0, false
		}
		sqrtF := math.Sqrt(F)
		for i := 0; i < r; i++ {
			if steady {
				gain[i] = rvec[i]
			} else {
				gain[i] = P[i][0] / F
			}
		}
		for c, a := range states {
			v := cols[c][t] - a[0]
			out[c][t] = v / sqrtF
			for i := 0; i < r; i++ {
				a[i] += gain[i] * v
			}
		}
		sumlog += math.Log(F)

		if !steady {
			copy(row, P[0])
			for i := 0; i < r; i++ {
				gi := gain[i]
				for j := 0; j < r; j++ {
					P[i][j] -= gi * row[j]
				}
			}
			if math.Abs(F-1) < steadyStateTol {
				steady = true
			}
		}
	}
	return out, sumlog, true
}

// predictCovariance replaces P with T P T' + R R' using the companion
// structure of T.
func predictCovariance(P, M [][]float64, phi, rvec []float64) {
	r := len(phi)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			v := phi[i] * P[0][j]
			if i+1 < r {
				v += P[i+1][j]
			}
			M[i][j] = v
		}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			v := M[i][0] * phi[j]
			if j+1 < r {
				v += M[i][j+1]
			}
			P[i][j] = v + rvec[i]*rvec[j]
		}
	}
}

// conditionalResiduals returns e_t = sum_i ar_i x_{t-i} - sum_j theta_j e_{t-j}
// for t >= start and zero before, where ar is a polynomial with ar[0] = 1.
// start must be at least len(ar)-1.
func conditionalResiduals(ar, theta, x []float64, start int) []float64 {
	e := make([]float64, len(x))
	for t := start; t < len(x); t++ {
		v := 0.0
		for i, a := range ar {
			if a != 0 {
				v += a * x[t-i]
			}
		}
		for j, th := range theta {
			if t-j-1 < 0 {
				break
			}
			v -= th * e[t-j-1]
		}
		e[t] = v
	}
	return e
}
