package sarima

// Polynomials in the backshift operator B are stored as coefficient slices
// with c[0] the constant term. AR coefficient vectors phi describe
// 1 - phi[0]B - phi[1]B^2 - ..., MA vectors theta describe 1 + theta[0]B + ...

// expandAR returns the coefficients of phi(B)Phi(B^s) as an AR vector.
func expandAR(ar, sar []float64, s int) []float64 {
	p := len(ar) + s*len(sar)
	phi := make([]float64, p)
	copy(phi, ar)
	for k, sk := range sar {
		lag := s * (k + 1)
		phi[lag-1] += sk
		for i, a := range ar {
			phi[lag+i] -= a * sk
		}
	}
	return phi
}

// expandMA returns the coefficients of theta(B)Theta(B^s) as an MA vector.
func expandMA(ma, sma []float64, s int) []float64 {
	q := len(ma) + s*len(sma)
	theta := make([]float64, q)
	copy(theta, ma)
	for k, sk := range sma {
		lag := s * (k + 1)
		theta[lag-1] += sk
		for i, m := range ma {
			theta[lag+i] += m * sk
		}
	}
	return theta
}

// arPoly converts an AR vector to its polynomial 1 - sum phi_i B^i.
func arPoly(phi []float64) []float64 {
	out := make([]float64, len(phi)+1)
	out[0] = 1
	for i, v := range phi {
		out[i+1] = -v
	}
	return out
}

// maPoly converts an MA vector to its polynomial 1 + sum theta_i B^i.
func maPoly(theta []float64) []float64 {
	out := make([]float64, len(theta)+1)
	out[0] = 1
	copy(out[1:], theta)
	return out
}

func polyMul(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// diffPoly returns (1-B)^d (1-B^s)^D.
func diffPoly(d, sd, s int) []float64 {
	out := []float64{1}
	for i := 0; i < d; i++ {
		out = polyMul(out, []float64{1, -1})
	}
	if s > 0 {
		seasonal := make([]float64, s+1)
		seasonal[0], seasonal[s] = 1, -1
		for i := 0; i < sd; i++ {
			out = polyMul(out, seasonal)
		}
	}
	return out
}

// polyDiv returns the first n coefficients of the power series num/den.
// den[0] must be 1.
func polyDiv(num, den []float64, n int) []float64 {
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		v := 0.0
		if j < len(num) {
			v = num[j]
		}
		for i := 1; i < len(den) && i <= j; i++ {
			v -= den[i] * out[j-i]
		}
		out[j] = v
	}
	return out
}

// trimPoly drops trailing zero coefficients.
func trimPoly(c []float64) []float64 {
	n := len(c)
	for n > 0 && c[n-1] == 0 {
		n--
	}
	return c[:n]
}

// differenceValues applies (1-B)^d(1-B^s)^D and drops the lost prefix.
func differenceValues(values []float64, d, sd, s int) []float64 {
	poly := diffPoly(d, sd, s)
	lost := len(poly) - 1
	if len(values) <= lost {
		return nil
	}
	out := make([]float64, len(values)-lost)
	for t := range out {
		v := 0.0
		for i, c := range poly {
			if c != 0 {
				v += c * values[t+lost-i]
			}
		}
		out[t] = v
	}
	return out
}
