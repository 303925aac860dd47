package sarima

import (
	"fmt"

	"github.com/sartorproj/sarimax/errs"
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int `mapstructure:"p" json:"p" yaml:"p"` // Non-seasonal AR order
	D int `mapstructure:"d" json:"d" yaml:"d"` // Non-seasonal differencing order
	Q int `mapstructure:"q" json:"q" yaml:"q"` // Non-seasonal MA order
	// Seasonal components
	SP int `mapstructure:"sp" json:"sp" yaml:"sp"` // Seasonal AR order
	SD int `mapstructure:"sd" json:"sd" yaml:"sd"` // Seasonal differencing order
	SQ int `mapstructure:"sq" json:"sq" yaml:"sq"` // Seasonal MA order
	M  int `mapstructure:"m" json:"m" yaml:"m"`    // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// NewOrder returns the order (p,d,q)(sp,sd,sq)[m].
func NewOrder(p, d, q, sp, sd, sq, m int) Order {
	return Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m}
}

// Validate rejects negative orders, differencing above 2 and seasonal terms
// without a seasonal period.
func (o Order) Validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{{"p", o.P}, {"d", o.D}, {"q", o.Q}, {"P", o.SP}, {"D", o.SD}, {"Q", o.SQ}, {"m", o.M}} {
		if v.value < 0 {
			return errs.New(errs.KindInvalidOrder, "sarima.Order", "%s = %d is negative", v.name, v.value)
		}
	}
	if o.D > 2 || o.SD > 2 {
		return errs.New(errs.KindInvalidOrder, "sarima.Order", "differencing orders d=%d D=%d exceed 2", o.D, o.SD)
	}
	if o.Seasonal() && o.M < 2 {
		return errs.New(errs.KindInvalidOrder, "sarima.Order", "seasonal terms need a period of at least 2, got %d", o.M)
	}
	return nil
}

// Seasonal reports whether any seasonal order is non-zero.
func (o Order) Seasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

// period returns the seasonal period, or 0 for non-seasonal orders.
func (o Order) period() int {
	if !o.Seasonal() {
		return 0
	}
	return o.M
}

// NumARMA returns the number of ARMA coefficients.
func (o Order) NumARMA() int {
	return o.P + o.Q + o.SP + o.SQ
}

// Integration returns d + D.
func (o Order) Integration() int {
	return o.D + o.SD
}

// Lost returns the number of observations lost to differencing.
func (o Order) Lost() int {
	return o.D + o.period()*o.SD
}

// String formats the order as ARIMA(p,d,q)(P,D,Q)[m].
func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}
