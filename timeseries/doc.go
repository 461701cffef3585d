// Package timeseries provides time series data structures and utilities.
//
// This package includes the Series type for target histories and the Frame
// type for regressor columns aligned to a series index, along with CSV
// loading and saving.
//
// # Creating a Series
//
// Create a time series from a slice:
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.New(values)
//
// Or with explicit timestamps (which must be strictly increasing):
//
//	series, err := timeseries.NewWithTimestamps(timestamps, values)
//
// # Regressor Frames
//
// A Frame carries named regressor columns on the same timestamp index as the
// target series. Cells may be absent; accessors always report presence:
//
//	frame, _ := timeseries.NewFrame(series.Timestamps)
//	frame.AddColumn("spread", spreads)
//	v, ok := frame.Value("spread", t)
//
// Restricting a frame to observations strictly before a cutoff:
//
//	known := frame.Before(cutoff)
//
// # Loading from CSV
//
//	series, err := timeseries.LoadCSV("data.csv", nil)
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "price"
//	frame, err := timeseries.LoadFrameCSV("data.csv", []string{"spread", "volume"}, opts)
//
// Empty, NA, NaN, and null cells in regressor columns load as absent values.
package timeseries
