package sarima

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/sartorproj/sarimax/errs"
)

// Root is a root of a lag polynomial.
type Root struct {
	Value    complex128 `json:"-" yaml:"-"`
	Real     float64    `json:"real" yaml:"real"`
	Imag     float64    `json:"imag" yaml:"imag"`
	Modulus  float64    `json:"modulus" yaml:"modulus"`
	NearUnit bool       `json:"near_unit" yaml:"near_unit"`
}

// RootAnalysis holds the roots of the expanded AR polynomial phi(B)Phi(B^s)
// and MA polynomial theta(B)Theta(B^s). Differencing roots are not included.
type RootAnalysis struct {
	AR         []Root `json:"ar" yaml:"ar"`
	MA         []Root `json:"ma" yaml:"ma"`
	Stationary bool   `json:"stationary" yaml:"stationary"`
	Invertible bool   `json:"invertible" yaml:"invertible"`
}

// NearUnitAR reports whether any AR root is within the tolerance of the unit
// circle, which suggests another difference.
func (r *RootAnalysis) NearUnitAR() bool {
	for _, root := range r.AR {
		if root.NearUnit {
			return true
		}
	}
	return false
}

// NearUnitMA reports whether any MA root is within the tolerance of the unit
// circle, which suggests over-differencing.
func (r *RootAnalysis) NearUnitMA() bool {
	for _, root := range r.MA {
		if root.NearUnit {
			return true
		}
	}
	return false
}

// Roots computes the AR and MA roots from companion-matrix eigenvalues.
func (m *FittedModel) Roots() (*RootAnalysis, error) {
	s := m.order.period()
	ar, ok := polyRoots(arPoly(expandAR(m.ar, m.sar, s)))
	if !ok {
		return nil, errEigen("AR")
	}
	ma, ok := polyRoots(maPoly(expandMA(m.ma, m.sma, s)))
	if !ok {
		return nil, errEigen("MA")
	}

	out := &RootAnalysis{
		AR:         m.describeRoots(ar),
		MA:         m.describeRoots(ma),
		Stationary: true,
		Invertible: true,
	}
	for _, r := range out.AR {
		if r.Modulus <= 1 {
			out.Stationary = false
		}
	}
	for _, r := range out.MA {
		if r.Modulus <= 1 {
			out.Invertible = false
		}
	}
	return out, nil
}

func (m *FittedModel) describeRoots(values []complex128) []Root {
	out := make([]Root, len(values))
	for i, v := range values {
		mod := cmplx.Abs(v)
		out[i] = Root{
			Value:    v,
			Real:     real(v),
			Imag:     imag(v),
			Modulus:  mod,
			NearUnit: math.Abs(mod-1) < m.rootTol,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Modulus < out[j].Modulus
	})
	return out
}

func errEigen(which string) error {
	return errs.New(errs.KindEstimationFailed, "sarima.Roots", "eigen decomposition of the %s companion matrix failed", which)
}
