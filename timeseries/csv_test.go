package timeseries

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/errs"
)

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-02-01,101
2020-03-01,102
2020-04-01,103
2020-05-01,104`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 5, series.Len())
	assert.Equal(t, []float64{100, 101, 102, 103, 104}, series.Values)
	assert.Equal(t, "2020-05", series.Timestamps[4].Format("2006-01"))
	assert.Equal(t, "y", series.Name)
}

func TestLoadCSVWithFilter(t *testing.T) {
	csvData := `unique_id,ds,y
A,2020-01-01,100
B,2020-01-01,200
A,2020-02-01,101
B,2020-02-01,201
A,2020-03-01,102`

	opts := DefaultCSVOptions()
	opts.IDColumn = "unique_id"
	opts.IDFilter = "A"

	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, series.Values)
}

func TestLoadCSVNamedColumns(t *testing.T) {
	csvData := `date;ipi;other
1990-01;95.1;1
1990-02;97.3;2
1990-03;101.0;3`

	opts := &CSVOptions{
		DateColumn:  "date",
		ValueColumn: "ipi",
		DateFormat:  "2006-01",
		Delimiter:   ';',
		Name:        "IPI",
	}
	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{95.1, 97.3, 101.0}, series.Values)
	assert.Equal(t, "IPI", series.Name)
	assert.Equal(t, "1990-03", series.Timestamps[2].Format("2006-01"))
}

func TestLoadCSVRejectsMissingValues(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-02-01,NA
2020-03-01,102`

	_, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	assert.True(t, errors.Is(err, errs.ErrNonFinite))
}

func TestLoadCSVRejectsGaps(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-03-01,102`

	_, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestLoadCSVMissingColumns(t *testing.T) {
	_, err := LoadCSVFromReader(strings.NewReader("ds,value2\n2020-01-01,1\n"), DefaultCSVOptions())
	assert.Error(t, err)

	_, err = LoadCSVFromReader(strings.NewReader("when,y\n2020-01-01,1\n"), DefaultCSVOptions())
	assert.Error(t, err)

	_, err = LoadCSVFromReader(strings.NewReader("ds,y\n"), DefaultCSVOptions())
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	s := New([]float64{1.5, 2.25, 3})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))

	loaded, err := LoadCSVFromReader(&buf, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, s.Values, loaded.Values)
	assert.Equal(t, s.Timestamps, loaded.Timestamps)
}
