package sarima

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/sarimax/stats"
	"github.com/sartorproj/sarimax/timeseries"
)

// CoefficientTest is a coefficient with its z statistic and two-sided p-value.
type CoefficientTest struct {
	Coefficient `yaml:",inline"`

	Z      float64 `json:"z" yaml:"z"`
	PValue float64 `json:"p_value" yaml:"p_value"`
}

// Diagnostics holds residual tests and coefficient significance.
type Diagnostics struct {
	LjungBox     *stats.PortmanteauResult  `json:"ljung_box" yaml:"ljung_box"`
	BoxPierce    *stats.PortmanteauResult  `json:"box_pierce" yaml:"box_pierce"`
	JarqueBera   *stats.JarqueBeraResult   `json:"jarque_bera" yaml:"jarque_bera"`
	DurbinWatson *stats.DurbinWatsonResult `json:"durbin_watson" yaml:"durbin_watson"`
	Coefficients []CoefficientTest         `json:"coefficients" yaml:"coefficients"`
}

// DefaultLags returns the Ljung-Box lag count: two seasons for seasonal
// models, 10 otherwise.
func (o Order) DefaultLags() int {
	if o.Seasonal() {
		return 2 * o.M
	}
	return 10
}

// Diagnose tests the innovations for autocorrelation (Ljung-Box and
// Box-Pierce with p+q+P+Q fitted degrees of freedom), normality and
// first-order correlation, and computes coefficient z statistics. lags <= 0 uses the order's default.
func (m *FittedModel) Diagnose(lags int) (*Diagnostics, error) {
	if lags <= 0 {
		lags = m.order.DefaultLags()
	}
	resid := m.Residuals()

	lb, err := stats.LjungBox(timeseries.New(resid), lags, m.order.NumARMA())
	if err != nil {
		return nil, fmt.Errorf("ljung-box: %w", err)
	}
	bp, err := stats.BoxPierce(timeseries.New(resid), lags, m.order.NumARMA())
	if err != nil {
		return nil, fmt.Errorf("box-pierce: %w", err)
	}
	jb, err := stats.JarqueBera(resid)
	if err != nil {
		return nil, fmt.Errorf("jarque-bera: %w", err)
	}
	dw, err := stats.DurbinWatson(resid)
	if err != nil {
		return nil, fmt.Errorf("durbin-watson: %w", err)
	}

	coefs := m.Coefficients()
	tests := make([]CoefficientTest, len(coefs))
	for i, c := range coefs {
		z := c.Value / c.StdError
		p := math.NaN()
		if !math.IsNaN(z) && !math.IsInf(z, 0) {
			p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
		}
		tests[i] = CoefficientTest{Coefficient: c, Z: z, PValue: p}
	}

	return &Diagnostics{
		LjungBox:     lb,
		BoxPierce:    bp,
		JarqueBera:   jb,
		DurbinWatson: dw,
		Coefficients: tests,
	}, nil
}

// Summary represents a model summary.
type Summary struct {
	Order          Order                    `json:"order" yaml:"order"`
	Method         string                   `json:"method" yaml:"method"`
	Fallback       bool                     `json:"fallback" yaml:"fallback"`
	StdErrorsValid bool                     `json:"std_errors_valid" yaml:"std_errors_valid"`
	Coefficients   []Coefficient            `json:"coefficients" yaml:"coefficients"`
	Sigma2         float64                  `json:"sigma2" yaml:"sigma2"`
	LogLik         float64                  `json:"loglik" yaml:"loglik"`
	AIC            float64                  `json:"aic" yaml:"aic"`
	AICc           float64                  `json:"aicc" yaml:"aicc"`
	BIC            float64                  `json:"bic" yaml:"bic"`
	NObs           int                      `json:"nobs" yaml:"nobs"`
	Roots          *RootAnalysis            `json:"roots,omitempty" yaml:"roots,omitempty"`
	LjungBox       *stats.PortmanteauResult `json:"ljung_box,omitempty" yaml:"ljung_box,omitempty"`
}

// Summary returns a summary of the fitted model. Root and Ljung-Box entries
// are left nil when they cannot be computed.
func (m *FittedModel) Summary() *Summary {
	s := &Summary{
		Order:          m.order,
		Method:         m.method.String(),
		Fallback:       m.fallback,
		StdErrorsValid: m.seValid,
		Coefficients:   m.Coefficients(),
		Sigma2:         m.sigma2,
		LogLik:         m.loglik,
		AIC:            m.aic,
		AICc:           m.aicc,
		BIC:            m.bic,
		NObs:           m.nobs,
	}
	if roots, err := m.Roots(); err == nil {
		s.Roots = roots
	}
	if lb, err := stats.LjungBox(timeseries.New(m.Residuals()), m.order.DefaultLags(), m.order.NumARMA()); err == nil {
		s.LjungBox = lb
	}
	return s
}

// String renders the summary as a text table.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  method=%s", s.Order, s.Method)
	if s.Fallback {
		b.WriteString(" (fallback)")
	}
	b.WriteString("\n\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "coef\testimate\ts.e.\t")
	for _, c := range s.Coefficients {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t\n", c.Name, c.Value, c.StdError)
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\nsigma^2 = %.4g  log likelihood = %.2f  n = %d\n", s.Sigma2, s.LogLik, s.NObs)
	fmt.Fprintf(&b, "AIC = %.2f  AICc = %.2f  BIC = %.2f\n", s.AIC, s.AICc, s.BIC)
	if s.Roots != nil {
		fmt.Fprintf(&b, "stationary = %t  invertible = %t", s.Roots.Stationary, s.Roots.Invertible)
		if s.Roots.NearUnitAR() || s.Roots.NearUnitMA() {
			b.WriteString("  (roots near the unit circle)")
		}
		b.WriteString("\n")
	}
	if s.LjungBox != nil {
		fmt.Fprintf(&b, "Ljung-Box Q(%d) = %.3f  df = %d  p = %.4f\n", s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.DOF, s.LjungBox.PValue)
	}
	if !s.StdErrorsValid {
		b.WriteString("warning: Hessian not positive definite, standard errors unavailable\n")
	}
	return b.String()
}
