package pipeline

import (
	"fmt"

	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/features"
)

// measurement gathers everything observed about a site on one night.
type measurement struct {
	site          domain.Site
	window        domain.ObservationWindow
	weather       domain.Verdict
	air           domain.Verdict
	moon          domain.MoonState
	radiance      float64
	ndvi          float64
	travelMinutes float64
	travelSource  domain.TravelSource
}

// vector normalizes the measurement. Weather temperatures arrive in the
// caller's unit and are converted to Fahrenheit here.
func (m measurement) vector(prefs domain.Preferences) features.Vector {
	minF, maxF := prefs.TempBoundsF()
	return features.Normalize(features.Input{
		Radiance:         m.radiance,
		NDVI:             m.ndvi,
		CloudCover:       m.weather.CloudCover,
		PM25:             m.air.PM25,
		MoonIllumination: m.moon.Illumination,
		TemperatureF:     domain.ToFahrenheit(m.weather.Temperature, prefs.TempUnit),
		MinTempF:         minF,
		MaxTempF:         maxF,
		SeasonalMeanF:    features.SeasonalMeanF(m.site.Lat, m.weather.BestTime),
		Rating:           m.site.Rating,
		Trust:            m.site.Trust,
		TravelMinutes:    m.travelMinutes,
		MaxTravelMinutes: prefs.MaxDriveMinutes,
		ClearSkyHours:    m.weather.ClearSkyHours,
		StartOffsetHours: m.weather.BestTime.Sub(m.window.Start).Hours(),
	})
}

// score turns a measurement into a ranked result, or fails when the feature
// vector is not finite.
func (e *Engine) score(m measurement, origin domain.LatLon, prefs domain.Preferences) (domain.EvaluationResult, error) {
	v := m.vector(prefs)
	if err := v.Valid(); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("site %s: %w", m.site.ID, err)
	}

	return domain.EvaluationResult{
		Site:          m.site,
		Score:         e.Scorer.Score(v),
		BestStart:     m.weather.BestTime,
		LeaveBy:       domain.LeaveBy(m.weather.BestTime, m.travelMinutes, prefs.DepartureLeadMinutes),
		ClearSkyHours: m.weather.ClearSkyHours,
		AvgTemp:       m.weather.AvgTemp,
		AvgCloudCover: m.weather.AvgCloudCover,
		PM25:          m.air.PM25,
		Radiance:      m.radiance,
		Bortle:        domain.RadianceToBortle(m.radiance),
		NDVI:          m.ndvi,
		TravelMinutes: m.travelMinutes,
		TravelSource:  m.travelSource,
		DirectionsURL: domain.DirectionsURL(origin, m.site.Position()),
		Scorer:        e.Scorer.Name(),
	}, nil
}
