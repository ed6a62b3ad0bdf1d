package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and within range.
func (p LatLon) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p LatLon) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// SiteKind classifies a candidate site.
type SiteKind string

const (
	KindPark      SiteKind = "park"
	KindReserve   SiteKind = "nature_reserve"
	KindViewpoint SiteKind = "viewpoint"
	KindPeak      SiteKind = "peak"
	KindProtected SiteKind = "protected_area"
)

// Trust factors assigned during discovery.
const (
	TrustOfficial   = 1.0
	TrustUnverified = 0.5
)

// Site is a candidate observing location. Sites are immutable once
// discovered; everything derived during evaluation lives on EvaluationResult.
type Site struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"` // meters
	Rating    *float64 `json:"rating,omitempty"`    // 0-5 public or user rating
	Kind      SiteKind `json:"kind"`
	Trust     float64  `json:"trust"`
}

// Position returns the site's coordinates.
func (s Site) Position() LatLon {
	return LatLon{Lat: s.Lat, Lon: s.Lon}
}

// RawPlace is a point of interest as returned by the discovery provider,
// before the engine's own filtering.
type RawPlace struct {
	ID   string
	Lat  float64
	Lon  float64
	Tags map[string]string
}

const defaultSiteName = "Remote Dark Spot"

var (
	// blacklistTerms reject unsuitable land uses by name or landuse tag.
	blacklistTerms = []string{"landfill", "waste", "dump", "quarry", "treatment", "industrial", "prison"}

	// privateTerms reject names that indicate private property.
	privateTerms = []string{"ranch", "farm", "estate", "residence", "private", "club", "driveway"}

	// officialNameRe matches names of officially managed land.
	officialNameRe = regexp.MustCompile(`(?i)park|reserve|recreation|forest|monument|wilderness|area`)
)

// ClassifyPlace converts a raw point of interest into a Site, applying the
// blacklist and private-land filters. It returns false when the place must be
// rejected or has no usable coordinates.
func ClassifyPlace(p RawPlace) (Site, bool) {
	tags := p.Tags
	if tags == nil {
		tags = map[string]string{}
	}

	name := strings.ToLower(tags["name"])
	landuse := strings.ToLower(tags["landuse"])

	for _, term := range privateTerms {
		if strings.Contains(name, term) {
			return Site{}, false
		}
	}
	for _, term := range blacklistTerms {
		if strings.Contains(name, term) || strings.Contains(landuse, term) {
			return Site{}, false
		}
	}

	pos := LatLon{Lat: p.Lat, Lon: p.Lon}
	if (p.Lat == 0 && p.Lon == 0) || !pos.Valid() {
		return Site{}, false
	}

	official := officialNameRe.MatchString(name) ||
		tags["leisure"] == "nature_reserve" ||
		tags["boundary"] == "protected_area"

	site := Site{
		ID:    p.ID,
		Name:  tags["name"],
		Lat:   p.Lat,
		Lon:   p.Lon,
		Kind:  classifyKind(tags),
		Trust: TrustUnverified,
	}
	if site.Name == "" {
		site.Name = defaultSiteName
	}
	if official {
		site.Trust = TrustOfficial
	}
	if ele, ok := parseElevation(tags["ele"]); ok {
		site.Elevation = &ele
	}
	return site, true
}

func classifyKind(tags map[string]string) SiteKind {
	switch {
	case tags["leisure"] == "nature_reserve":
		return KindReserve
	case tags["boundary"] == "protected_area" || tags["boundary"] == "national_park":
		return KindProtected
	case tags["tourism"] == "viewpoint":
		return KindViewpoint
	case tags["natural"] == "peak":
		return KindPeak
	default:
		return KindPark
	}
}

// parseElevation reads an OSM "ele" tag such as "2345" or "2345 m".
func parseElevation(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "m"))
	if s == "" {
		return 0, false
	}
	v := parseFloatOrZero(s)
	if v == 0 && s != "0" {
		return 0, false
	}
	return v, true
}
