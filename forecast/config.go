package forecast

import (
	"fmt"
	"strings"
)

// Distribution selects the quantile used for prediction intervals.
type Distribution int

const (
	Normal Distribution = iota
	// StudentT uses n-k degrees of freedom, n observations and k estimated coefficients.
	StudentT
)

func (d Distribution) String() string {
	switch d {
	case Normal:
		return "normal"
	case StudentT:
		return "student_t"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// ParseDistribution parses "normal" or "student_t" ("t" is accepted too).
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "gaussian":
		return Normal, nil
	case "student_t", "studentt", "t":
		return StudentT, nil
	}
	return Normal, fmt.Errorf("unknown distribution %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Distribution) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Distribution) UnmarshalText(text []byte) error {
	parsed, err := ParseDistribution(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DefaultAlpha gives 95% prediction intervals.
const DefaultAlpha = 0.05

// Config controls prediction intervals.
type Config struct {
	Alpha        float64      `mapstructure:"alpha" json:"alpha" yaml:"alpha"`
	Distribution Distribution `mapstructure:"distribution" json:"distribution" yaml:"distribution"`
}

// DefaultConfig returns 95% normal intervals.
func DefaultConfig() Config {
	return Config{Alpha: DefaultAlpha, Distribution: Normal}
}

func (c Config) withDefaults() Config {
	if !(c.Alpha > 0 && c.Alpha < 1) {
		c.Alpha = DefaultAlpha
	}
	return c
}
