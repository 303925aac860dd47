package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/sarimax/evaluate"
	"github.com/sartorproj/sarimax/forecast"
	"github.com/sartorproj/sarimax/internal/config"
)

// Document is the serialisable form of a Report. Undefined numbers are nil
// so that JSON output stays valid.
type Document struct {
	RunID          string               `json:"run_id" yaml:"run_id"`
	CreatedAt      time.Time            `json:"created_at" yaml:"created_at"`
	Input          StageInput           `json:"input" yaml:"input"`
	Selection      *StageSelection      `json:"selection,omitempty" yaml:"selection,omitempty"`
	Identification *StageIdentification `json:"identification,omitempty" yaml:"identification,omitempty"`
	UnitRoot       []unitRootDoc        `json:"unit_root" yaml:"unit_root"`
	Variants       []variantDoc         `json:"variants" yaml:"variants"`
	Naive          []pointDoc           `json:"naive_forecast" yaml:"naive_forecast"`
	Errors         []evaluate.Row       `json:"errors" yaml:"errors"`
}

type unitRootDoc struct {
	Series     string   `json:"series" yaml:"series"`
	Test       string   `json:"test" yaml:"test"`
	Statistic  *float64 `json:"statistic" yaml:"statistic"`
	PValue     *float64 `json:"p_value" yaml:"p_value"`
	Stationary bool     `json:"stationary" yaml:"stationary"`
	Err        string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type coefficientDoc struct {
	Name     string   `json:"name" yaml:"name"`
	Value    *float64 `json:"value" yaml:"value"`
	StdError *float64 `json:"std_error" yaml:"std_error"`
	Z        *float64 `json:"z" yaml:"z"`
	PValue   *float64 `json:"p_value" yaml:"p_value"`
}

type outlierDoc struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Index     int      `json:"index" yaml:"index"`
	Magnitude *float64 `json:"magnitude" yaml:"magnitude"`
	TStat     *float64 `json:"t_stat" yaml:"t_stat"`
}

type pointDoc struct {
	Step   int      `json:"step" yaml:"step"`
	Time   string   `json:"time" yaml:"time"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Lower  *float64 `json:"lower" yaml:"lower"`
	Upper  *float64 `json:"upper" yaml:"upper"`
	Actual *float64 `json:"actual,omitempty" yaml:"actual,omitempty"`
}

type variantDoc struct {
	Name         string           `json:"name" yaml:"name"`
	Order        string           `json:"order" yaml:"order"`
	Method       string           `json:"method" yaml:"method"`
	Fallback     bool             `json:"fallback" yaml:"fallback"`
	Sigma2       *float64         `json:"sigma2" yaml:"sigma2"`
	LogLik       *float64         `json:"loglik" yaml:"loglik"`
	AIC          *float64         `json:"aic" yaml:"aic"`
	AICc         *float64         `json:"aicc" yaml:"aicc"`
	BIC          *float64         `json:"bic" yaml:"bic"`
	Coefficients []coefficientDoc `json:"coefficients" yaml:"coefficients"`
	Outliers     []outlierDoc     `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	Search       *SearchSummary   `json:"search,omitempty" yaml:"search,omitempty"`
	LjungBoxP    *float64         `json:"ljung_box_p" yaml:"ljung_box_p"`
	Stationary   *bool            `json:"stationary,omitempty" yaml:"stationary,omitempty"`
	Invertible   *bool            `json:"invertible,omitempty" yaml:"invertible,omitempty"`
	NearUnitRoot bool             `json:"near_unit_root" yaml:"near_unit_root"`
	ExPost       []pointDoc       `json:"ex_post,omitempty" yaml:"ex_post,omitempty"`
	Forecast     []pointDoc       `json:"forecast" yaml:"forecast"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func points(res *forecast.Result) []pointDoc {
	if res == nil {
		return nil
	}
	out := make([]pointDoc, len(res.Points))
	for i, p := range res.Points {
		d := pointDoc{
			Step:  p.Step,
			Mean:  num(p.Mean),
			Lower: num(p.Lower),
			Upper: num(p.Upper),
		}
		if !p.Time.IsZero() {
			d.Time = p.Time.Format("2006-01")
		}
		if p.HasActual {
			d.Actual = num(p.Actual)
		}
		out[i] = d
	}
	return out
}

// Document converts the report for serialisation.
func (r *Report) Document() *Document {
	doc := &Document{
		RunID:          r.RunID,
		CreatedAt:      r.CreatedAt,
		Input:          r.Input,
		Selection:      r.Selection,
		Identification: r.Identification,
		Naive:          points(r.Naive.Forecast),
		Errors:         r.Errors.Rows(),
	}
	for _, u := range r.UnitRoot {
		doc.UnitRoot = append(doc.UnitRoot, unitRootDoc{
			Series:     u.Series,
			Test:       u.Test,
			Statistic:  num(u.Statistic),
			PValue:     num(u.PValue),
			Stationary: u.Stationary,
			Err:        u.Err,
		})
	}
	for _, v := range r.Variants {
		doc.Variants = append(doc.Variants, variantDocument(v))
	}
	return doc
}

func variantDocument(v StageVariant) variantDoc {
	m := v.Model
	d := variantDoc{
		Name:     v.Name,
		Order:    v.Order.String(),
		Method:   m.Method().String(),
		Fallback: m.Fallback(),
		Sigma2:   num(m.Sigma2()),
		LogLik:   num(m.LogLik()),
		AIC:      num(m.AIC()),
		AICc:     num(m.AICc()),
		BIC:      num(m.BIC()),
		Search:   v.Search,
		ExPost:   points(v.ExPost),
		Forecast: points(v.Forecast),
	}
	if v.Diagnostics != nil {
		for _, c := range v.Diagnostics.Coefficients {
			d.Coefficients = append(d.Coefficients, coefficientDoc{
				Name:     c.Name,
				Value:    num(c.Value),
				StdError: num(c.StdError),
				Z:        num(c.Z),
				PValue:   num(c.PValue),
			})
		}
		if v.Diagnostics.LjungBox != nil {
			d.LjungBoxP = num(v.Diagnostics.LjungBox.PValue)
		}
	} else {
		for _, c := range m.Coefficients() {
			d.Coefficients = append(d.Coefficients, coefficientDoc{
				Name:     c.Name,
				Value:    num(c.Value),
				StdError: num(c.StdError),
			})
		}
	}
	for _, o := range v.Outliers {
		d.Outliers = append(d.Outliers, outlierDoc{
			Name:      o.Name(),
			Type:      o.Type.String(),
			Index:     o.Index,
			Magnitude: num(o.Magnitude),
			TStat:     num(o.TStat),
		})
	}
	if v.Roots != nil {
		stationary, invertible := v.Roots.Stationary, v.Roots.Invertible
		d.Stationary, d.Invertible = &stationary, &invertible
		d.NearUnitRoot = v.Roots.NearUnitAR() || v.Roots.NearUnitMA()
	}
	return d
}

// Write writes the report to w. JSON and YAML carry the whole document; CSV
// carries the error table.
func Write(w io.Writer, r *Report, format string) error {
	switch strings.ToLower(format) {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Document())
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.Document()); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatCSV:
		return writeRecords(w, evaluate.Header, r.Errors.Records())
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteDir writes the report into dir and returns the files written. CSV
// output is split into errors, forecasts, coefficients, outliers and fitted
// values tables.
func WriteDir(dir string, r *Report, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	format = strings.ToLower(format)
	if format != config.FormatCSV {
		path := filepath.Join(dir, "report."+format)
		if err := writeFile(path, func(w io.Writer) error { return Write(w, r, format) }); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	tables := []struct {
		name    string
		header  []string
		records [][]string
	}{
		{"errors.csv", evaluate.Header, r.Errors.Records()},
		{"forecasts.csv", forecastHeader, r.forecastRecords()},
		{"coefficients.csv", coefficientHeader, r.coefficientRecords()},
		{"outliers.csv", outlierHeader, r.outlierRecords()},
		{"fitted.csv", fittedHeader, r.fittedRecords()},
	}
	var paths []string
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeFile(path, func(w io.Writer) error { return writeRecords(w, t.header, t.records) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecords(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

var (
	forecastHeader    = []string{"model", "mode", "step", "time", "mean", "se", "lower", "upper", "actual"}
	coefficientHeader = []string{"model", "name", "value", "std_error"}
	outlierHeader     = []string{"model", "name", "type", "index", "magnitude", "t_stat"}
	fittedHeader      = []string{"model", "time", "actual", "fitted", "residual"}
)

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', 8, 64)
}

func appendPoints(out [][]string, model, mode string, res *forecast.Result) [][]string {
	if res == nil {
		return out
	}
	for _, p := range res.Points {
		actual := "NA"
		if p.HasActual {
			actual = formatFloat(p.Actual)
		}
		t := ""
		if !p.Time.IsZero() {
			t = p.Time.Format("2006-01")
		}
		out = append(out, []string{
			model, mode, strconv.Itoa(p.Step), t,
			formatFloat(p.Mean), formatFloat(p.SE), formatFloat(p.Lower), formatFloat(p.Upper), actual,
		})
	}
	return out
}

func (r *Report) forecastRecords() [][]string {
	var out [][]string
	for _, v := range r.Variants {
		out = appendPoints(out, v.Name, ModeExPost, v.ExPost)
		out = appendPoints(out, v.Name, ModeExAnte, v.Forecast)
	}
	out = appendPoints(out, string(forecast.Naive), ModeExPost, r.Naive.ExPost)
	out = appendPoints(out, string(forecast.Naive), ModeExAnte, r.Naive.Forecast)
	return out
}

func (r *Report) coefficientRecords() [][]string {
	var out [][]string
	for _, v := range r.Variants {
		for _, c := range v.Model.Coefficients() {
			out = append(out, []string{v.Name, c.Name, formatFloat(c.Value), formatFloat(c.StdError)})
		}
	}
	return out
}

func (r *Report) outlierRecords() [][]string {
	var out [][]string
	for _, v := range r.Variants {
		for _, o := range v.Outliers {
			out = append(out, []string{
				v.Name, o.Name(), o.Type.String(), strconv.Itoa(o.Index),
				formatFloat(o.Magnitude), formatFloat(o.TStat),
			})
		}
	}
	return out
}

// fittedRecords lists the in-sample one-step predictions of each full-sample
// model, on the original scale when the series was log transformed.
func (r *Report) fittedRecords() [][]string {
	var out [][]string
	for _, v := range r.Variants {
		series := v.Model.Series()
		fitted := v.Model.FittedValues()
		for t, y := range series.Values {
			f := fitted[t]
			if r.Input.Log {
				y, f = math.Exp(y), math.Exp(f)
			}
			tm := ""
			if t < len(series.Timestamps) {
				tm = series.Timestamps[t].Format("2006-01")
			}
			out = append(out, []string{v.Name, tm, formatFloat(y), formatFloat(f), formatFloat(y - f)})
		}
	}
	return out
}
