package isoline

import (
	"github.com/montanaflynn/stats"
)

// Description summarizes the valid samples of a grid.
type Description struct {
	Count  int     `json:"count"`
	Valid  int     `json:"valid"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	P1     float64 `json:"p1"`
	P99    float64 `json:"p99"`
}

// Describe computes summary statistics over the valid samples of values.
// All statistics are zero when no sample is valid.
func Describe(values []float64, noData float64) Description {
	d := Description{Count: len(values)}
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if Valid(v, noData) {
			data = append(data, v)
		}
	}
	d.Valid = len(data)
	if d.Valid == 0 {
		return d
	}
	d.Min = statsMustFloat(data.Min, 0)
	d.Max = statsMustFloat(data.Max, 0)
	d.Mean = statsMustFloat(data.Mean, 0)
	d.Median = statsMustFloat(data.Median, 0)
	d.StdDev = statsMustFloat(data.StandardDeviation, 0)
	// Percentiles are undefined for very small samples.
	d.P1 = statsMustFloat(func() (float64, error) { return data.Percentile(1) }, d.Min)
	d.P99 = statsMustFloat(func() (float64, error) { return data.Percentile(99) }, d.Max)
	return d
}

func statsMustFloat(fn func() (float64, error), def float64) float64 {
	v, err := fn()
	if err != nil {
		return def
	}
	return v
}
