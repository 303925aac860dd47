package regressors

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// OutlierType is the intervention pattern of an outlier.
type OutlierType int

const (
	// AdditiveOutlier affects a single observation.
	AdditiveOutlier OutlierType = iota
	// LevelShift moves the level permanently from its onset.
	LevelShift
	// TransientChange decays geometrically after its onset.
	TransientChange
)

// DefaultDelta is the decay rate of a transient change.
const DefaultDelta = 0.7

var outlierTypeNames = [...]string{"AO", "LS", "TC"}

// String returns the short code of the type (AO, LS, TC).
func (t OutlierType) String() string {
	if t < 0 || int(t) >= len(outlierTypeNames) {
		return fmt.Sprintf("OutlierType(%d)", int(t))
	}
	return outlierTypeNames[t]
}

// ParseOutlierType parses AO, LS or TC (case-insensitive).
func ParseOutlierType(s string) (OutlierType, error) {
	for i, name := range outlierTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return OutlierType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outlier type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t OutlierType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *OutlierType) UnmarshalText(text []byte) error {
	parsed, err := ParseOutlierType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Outlier is a detected intervention at position Index of the series.
type Outlier struct {
	Type      OutlierType `json:"type" yaml:"type"`
	Index     int         `json:"index" yaml:"index"`
	Time      time.Time   `json:"time" yaml:"time"`
	Magnitude float64     `json:"magnitude" yaml:"magnitude"`
	StdError  float64     `json:"std_error" yaml:"std_error"`
	TStat     float64     `json:"t_stat" yaml:"t_stat"`
	Delta     float64     `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// Name returns the regressor column name, e.g. "LS@2009-01".
func (o Outlier) Name() string {
	if o.Time.IsZero() {
		return fmt.Sprintf("%s@%d", o.Type, o.Index)
	}
	return fmt.Sprintf("%s@%s", o.Type, o.Time.Format("2006-01"))
}

// Key identifies an outlier by type and position.
func (o Outlier) Key() string {
	return fmt.Sprintf("%s@%d", o.Type, o.Index)
}

// Column returns the intervention pattern over n rows: AO is a pulse at Index,
// LS a step from Index on, TC a geometric decay delta^(t-Index) from Index on.
func (o Outlier) Column(n int) []float64 {
	col := make([]float64, n)
	if o.Index < 0 || o.Index >= n {
		return col
	}
	switch o.Type {
	case AdditiveOutlier:
		col[o.Index] = 1
	case LevelShift:
		for t := o.Index; t < n; t++ {
			col[t] = 1
		}
	case TransientChange:
		delta := o.Delta
		if delta == 0 {
			delta = DefaultDelta
		}
		for t := o.Index; t < n; t++ {
			col[t] = math.Pow(delta, float64(t-o.Index))
		}
	}
	return col
}

// SortOutliers orders outliers by position, then by type.
func SortOutliers(outliers []Outlier) {
	sort.SliceStable(outliers, func(i, j int) bool {
		if outliers[i].Index != outliers[j].Index {
			return outliers[i].Index < outliers[j].Index
		}
		return outliers[i].Type < outliers[j].Type
	})
}
