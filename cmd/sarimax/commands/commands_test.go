package commands

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/timeseries"
)

// writeSeries stores a seasonal monthly series as ds,y and moves the test into
// an empty directory so that no config.yaml is picked up.
func writeSeries(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SARIMAX_LOGGING_LEVEL", "error")
	t.Setenv("SARIMAX_OUTLIERS_ENABLED", "false")

	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 96)
	for i := range values {
		values[i] = 50 + 8*math.Sin(2*math.Pi*float64(i)/12) + 0.1*float64(i) + rng.NormFloat64()
	}
	series, err := timeseries.NewMonthly(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), values)
	require.NoError(t, err)
	path := filepath.Join(dir, "series.csv")
	require.NoError(t, timeseries.SaveCSV(series, path))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommandJSON(t *testing.T) {
	path := writeSeries(t)

	out, err := execute(t, NewRunCmd(&Globals{}), "--input", path, "--format", "json", "--holdout", "12", "--horizon", "3")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotEmpty(t, doc["run_id"])
	assert.Len(t, doc["variants"], 2)
	assert.Len(t, doc["errors"], 4)
}

func TestRunCommandWritesDirectory(t *testing.T) {
	path := writeSeries(t)
	dir := filepath.Join(filepath.Dir(path), "out")

	out, err := execute(t, NewRunCmd(&Globals{}), "--input", path, "--output", dir, "--horizon", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "best ex-post variant")
	assert.Contains(t, out, "[base]")
	assert.Contains(t, out, "log likelihood")

	for _, name := range []string{"errors.csv", "forecasts.csv", "coefficients.csv", "outliers.csv", "fitted.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunCommandErrors(t *testing.T) {
	writeSeries(t)

	_, err := execute(t, NewRunCmd(&Globals{}))
	assert.ErrorContains(t, err, "no input file")

	_, err = execute(t, NewRunCmd(&Globals{}), "--input", "missing.csv")
	assert.Error(t, err)

	_, err = execute(t, NewRunCmd(&Globals{}), "--input", "series.csv", "--format", "xml")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execute(t, NewRunCmd(&Globals{ConfigFile: "missing.yaml"}), "--input", "series.csv")
	assert.Error(t, err)
}

func TestUnitRootCommand(t *testing.T) {
	path := writeSeries(t)

	out, err := execute(t, NewUnitRootCmd(&Globals{}), "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "kpss")
	assert.Contains(t, out, "seasonal_diff")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCmd("1.2.3"))
	require.NoError(t, err)
	assert.Contains(t, out, "sarimax 1.2.3")
}
