package sarima

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sartorproj/sarimax/regressors"
)

// Method selects the estimation objective.
type Method int

const (
	// CSSML uses conditional sum of squares for start values, then exact ML.
	CSSML Method = iota
	// ML maximises the exact Gaussian likelihood from zero start values.
	ML
	// CSS minimises the conditional sum of squares only.
	CSS
)

var methodNames = [...]string{"CSS-ML", "ML", "CSS"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod parses "CSS-ML", "ML" or "CSS" (case-insensitive).
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CSS-ML", "CSSML", "":
		return CSSML, nil
	case "ML":
		return ML, nil
	case "CSS":
		return CSS, nil
	}
	return 0, fmt.Errorf("unknown estimation method %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

const (
	// DefaultMaxIterations bounds the optimiser iterations per objective.
	DefaultMaxIterations = 5000
	// DefaultRootTolerance flags roots with |modulus - 1| below it as near unit.
	DefaultRootTolerance = 0.05

	// ColumnIntercept is the name of the constant column added when d+D = 0.
	ColumnIntercept = "intercept"
	// ColumnDrift is the name of the trend column added when d+D = 1.
	ColumnDrift = regressors.ColumnDrift
)

// Options configures Fit.
type Options struct {
	// IncludeConstant adds an intercept (d+D = 0) or drift (d+D = 1) column.
	IncludeConstant bool
	Method          Method
	MaxIterations   int
	RootTolerance   float64
	Logger          *logrus.Logger
}

// DefaultOptions returns CSS-ML estimation with a constant.
func DefaultOptions() Options {
	return Options{
		IncludeConstant: true,
		Method:          CSSML,
		MaxIterations:   DefaultMaxIterations,
		RootTolerance:   DefaultRootTolerance,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.RootTolerance <= 0 {
		o.RootTolerance = DefaultRootTolerance
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	return o
}
