package domain

import (
	"fmt"
	"time"
)

// TravelSource records where a travel time came from.
type TravelSource string

const (
	TravelRouted    TravelSource = "routing"
	TravelEstimated TravelSource = "estimate"
)

// EvaluationResult is a site that passed every check, with everything the
// engine derived for it.
type EvaluationResult struct {
	Site          Site         `json:"site"`
	Score         float64      `json:"score"`
	BestStart     time.Time    `json:"best_start"`
	LeaveBy       time.Time    `json:"leave_by"`
	ClearSkyHours float64      `json:"clear_sky_hours"`
	AvgTemp       float64      `json:"avg_temp"`
	AvgCloudCover float64      `json:"avg_cloud_cover"`
	PM25          float64      `json:"pm25"`
	Radiance      float64      `json:"radiance"`
	Bortle        float64      `json:"bortle"`
	NDVI          float64      `json:"ndvi"`
	TravelMinutes float64      `json:"travel_minutes"`
	TravelSource  TravelSource `json:"travel_source"`
	DirectionsURL string       `json:"directions_url"`
	Scorer        string       `json:"scorer"`
}

// LeaveBy returns the departure time needed to arrive at start after a drive
// of travelMinutes plus a lead time.
func LeaveBy(start time.Time, travelMinutes float64, leadMinutes int) time.Time {
	total := time.Duration((travelMinutes + float64(leadMinutes)) * float64(time.Minute))
	return start.Add(-total)
}

// DirectionsURL returns an OpenStreetMap driving directions link.
func DirectionsURL(from, to LatLon) string {
	return fmt.Sprintf(
		"https://www.openstreetmap.org/directions?engine=fossgis_osrm_car&route=%.5f%%2C%.5f%%3B%.5f%%2C%.5f",
		from.Lat, from.Lon, to.Lat, to.Lon,
	)
}
