package domain

import "time"

// HourlyForecast is an hourly weather series aligned to timestamps.
type HourlyForecast struct {
	Times       []time.Time
	CloudCover  []float64 // percent
	Temperature []float64 // in Unit
	Unit        TempUnit
}

// Len returns the number of aligned samples.
func (f HourlyForecast) Len() int {
	n := len(f.Times)
	if len(f.CloudCover) < n {
		n = len(f.CloudCover)
	}
	if len(f.Temperature) < n {
		n = len(f.Temperature)
	}
	return n
}

// AirSeries is an hourly PM2.5 series. Missing samples are NaN.
type AirSeries struct {
	Times []time.Time
	PM25  []float64
}

// Verdict is the pass/fail result of a signal check. Failed verdicts carry a
// Reason; successful ones carry the measured values.
type Verdict struct {
	OK     bool          `json:"ok"`
	Reason FailureReason `json:"reason,omitempty"`

	// Weather window measurements.
	BestTime      time.Time `json:"best_time,omitempty"`
	CloudCover    float64   `json:"cloud_cover"`
	Temperature   float64   `json:"temperature"`
	AvgCloudCover float64   `json:"avg_cloud_cover"`
	AvgTemp       float64   `json:"avg_temp"`
	ClearSkyHours float64   `json:"clear_sky_hours"`

	// Air quality measurements.
	PM25     float64 `json:"pm25"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Fail returns a failed verdict with the given reason.
func Fail(reason FailureReason) Verdict {
	return Verdict{OK: false, Reason: reason}
}
