// Package evaluate scores forecasts against realised values and against the
// seasonal naive benchmark.
package evaluate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/sarimax/errs"
)

// ErrDegenerateBenchmark is returned when the benchmark makes no error, so
// relative measures are undefined.
var ErrDegenerateBenchmark = errs.ErrDegenerateBenchmark

// Measures holds the error measures of one forecast set.
type Measures struct {
	N         int     `json:"n" yaml:"n"`
	MAE       float64 `json:"mae" yaml:"mae"`
	RMSE      float64 `json:"rmse" yaml:"rmse"`
	MAPE      float64 `json:"mape" yaml:"mape"`
	NaiveMAE  float64 `json:"naive_mae" yaml:"naive_mae"`
	NaiveRMSE float64 `json:"naive_rmse" yaml:"naive_rmse"`
	// MAERatio is the candidate MAE over the naive MAE.
	MAERatio  float64 `json:"mae_ratio" yaml:"mae_ratio"`
	RMSERatio float64 `json:"rmse_ratio" yaml:"rmse_ratio"`
	// Available is false when no period had both a forecast and an actual.
	Available bool `json:"available" yaml:"available"`
}

// Evaluate compares candidate and naive forecasts with actual over the
// periods present in all three. MAPE skips periods whose actual is zero and
// is NaN when none is left.
func Evaluate(actual, candidate, naive []float64) (Measures, error) {
	const op = "evaluate.Evaluate"
	n := min(len(actual), len(candidate), len(naive))
	if n == 0 {
		return Measures{}, nil
	}
	a, c, b := actual[:n], candidate[:n], naive[:n]
	for _, s := range [][]float64{a, c, b} {
		if floats.HasNaN(s) || math.IsInf(floats.Max(s), 1) || math.IsInf(floats.Min(s), -1) {
			return Measures{}, errs.New(errs.KindNonFinite, op, "non-finite value in forecasts or actuals")
		}
	}

	errC := make([]float64, n)
	floats.SubTo(errC, a, c)
	errB := make([]float64, n)
	floats.SubTo(errB, a, b)

	m := Measures{N: n, Available: true}
	m.MAE = floats.Norm(errC, 1) / float64(n)
	m.RMSE = floats.Norm(errC, 2) / math.Sqrt(float64(n))
	m.NaiveMAE = floats.Norm(errB, 1) / float64(n)
	m.NaiveRMSE = floats.Norm(errB, 2) / math.Sqrt(float64(n))
	m.MAPE = mape(a, errC)

	if m.NaiveMAE == 0 || m.NaiveRMSE == 0 {
		m.MAERatio, m.RMSERatio = math.NaN(), math.NaN()
		return m, errs.New(errs.KindDegenerateBenchmark, op, "naive benchmark has zero error over %d periods", n)
	}
	m.MAERatio = m.MAE / m.NaiveMAE
	m.RMSERatio = m.RMSE / m.NaiveRMSE
	return m, nil
}

func mape(actual, e []float64) float64 {
	sum, k := 0.0, 0
	for i, v := range actual {
		if v == 0 {
			continue
		}
		sum += math.Abs(e[i] / v)
		k++
	}
	if k == 0 {
		return math.NaN()
	}
	return 100 * sum / float64(k)
}

// Key identifies a table row.
type Key struct {
	Variant string
	Mode    string
}

// Table collects measures keyed by model variant and forecast mode.
type Table struct {
	rows     map[Key]Measures
	horizons map[Key]int
	order    []Key
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[Key]Measures), horizons: make(map[Key]int)}
}

// Add stores m under (variant, mode), replacing any earlier entry.
func (t *Table) Add(variant, mode string, horizon int, m Measures) {
	k := Key{Variant: variant, Mode: mode}
	if _, ok := t.rows[k]; !ok {
		t.order = append(t.order, k)
	}
	t.rows[k] = m
	t.horizons[k] = horizon
}

// Get returns the measures stored under (variant, mode).
func (t *Table) Get(variant, mode string) (Measures, bool) {
	m, ok := t.rows[Key{Variant: variant, Mode: mode}]
	return m, ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.order) }

// Keys returns the row keys in insertion order.
func (t *Table) Keys() []Key {
	return append([]Key(nil), t.order...)
}

// Best returns the variant with the lowest MAE ratio for mode.
func (t *Table) Best(mode string) (string, bool) {
	var keys []Key
	for _, k := range t.order {
		if m := t.rows[k]; k.Mode == mode && m.Available && !math.IsNaN(m.MAERatio) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return t.rows[keys[i]].MAERatio < t.rows[keys[j]].MAERatio
	})
	return keys[0].Variant, true
}

// Header is the column order of Records.
var Header = []string{"model", "mode", "horizon", "n", "mae", "rmse", "mape", "mae_ratio", "rmse_ratio"}

// Records returns one row per entry in insertion order, formatted for CSV.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.order))
	for _, k := range t.order {
		m := t.rows[k]
		out = append(out, []string{
			k.Variant,
			k.Mode,
			strconv.Itoa(t.horizons[k]),
			strconv.Itoa(m.N),
			formatFloat(m.MAE),
			formatFloat(m.RMSE),
			formatFloat(m.MAPE),
			formatFloat(m.MAERatio),
			formatFloat(m.RMSERatio),
		})
	}
	return out
}

// Row is a table entry in a form suitable for JSON and YAML output. Undefined
// measures are nil.
type Row struct {
	Model     string   `json:"model" yaml:"model"`
	Mode      string   `json:"mode" yaml:"mode"`
	Horizon   int      `json:"horizon" yaml:"horizon"`
	N         int      `json:"n" yaml:"n"`
	MAE       *float64 `json:"mae" yaml:"mae"`
	RMSE      *float64 `json:"rmse" yaml:"rmse"`
	MAPE      *float64 `json:"mape" yaml:"mape"`
	MAERatio  *float64 `json:"mae_ratio" yaml:"mae_ratio"`
	RMSERatio *float64 `json:"rmse_ratio" yaml:"rmse_ratio"`
}

// Rows returns the table in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.order))
	for _, k := range t.order {
		m := t.rows[k]
		out = append(out, Row{
			Model:     k.Variant,
			Mode:      k.Mode,
			Horizon:   t.horizons[k],
			N:         m.N,
			MAE:       finite(m.MAE, m.Available),
			RMSE:      finite(m.RMSE, m.Available),
			MAPE:      finite(m.MAPE, m.Available),
			MAERatio:  finite(m.MAERatio, m.Available),
			RMSERatio: finite(m.RMSERatio, m.Available),
		})
	}
	return out
}

func finite(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.6g", v)
}
