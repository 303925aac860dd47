// Package timeseries provides the monthly time series type consumed by the
// estimation pipeline.
//
// A Series carries a strictly increasing, gap-free monthly index. Build one from
// a start month:
//
//	series, err := timeseries.NewMonthly(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), values)
//
// or load it from a CSV file with a date and a value column:
//
//	series, err := timeseries.LoadCSV("ipi.csv", &timeseries.CSVOptions{
//	    DateColumn:  "date",
//	    ValueColumn: "ipi",
//	    DateFormat:  "2006-01-02",
//	})
//
// Missing values are rejected rather than skipped, since dropping a row would
// open a gap in the monthly index.
//
// # Index helpers
//
//	future := series.FutureIndex(12)     // the next 12 months
//	all := series.ExtendedIndex(12)      // observed + future
//
// # Transformations
//
//	diff := series.Diff()            // first difference
//	sdiff := series.SeasonalDiff(12) // seasonal difference
//	logged, err := series.Log()      // natural log, fails on non-positive values
package timeseries
