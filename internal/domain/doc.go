// Package domain models the stargazing site suitability data and the
// contracts the engine needs from its external collaborators.
//
// # Units
//
// Coordinates are WGS-84 degrees. Travel times are minutes. Cloud cover is a
// percentage (0-100). PM2.5 is µg/m³. Temperatures carry an explicit
// [TempUnit]; normalization converts everything to Fahrenheit because the
// comfort curve is anchored at 68°F.
//
// # Light pollution
//
// Radiance is the artificial light signal sampled from satellite night-light
// tiles (nW/cm²/sr). The Bortle scale (1 pristine, 9 inner city) is derived
// from it on a log scale:
//
//	radiance(b) = 0.01 * 10^((b-1)/2)
//	b(r)        = 1 + 2*log10(r/0.01), clamped to [1, 9]
//
// so Bortle 1 is 0.01 (the conservative tile fallback) and Bortle 9 is 100.
// See [RadianceToBortle] and [BortleToRadiance].
//
// # Vegetation
//
// NDVI ranges roughly from -0.2 (water, bare rock) to 1.0 (dense canopy).
// Source tiles store NDVI multiplied by 10000.
//
// # Failure reasons
//
// A site that cannot be recommended is tallied under exactly one
// [FailureReason]. Reasons are ordered; ties in the tally resolve to the
// earlier reason. [ReasonDistance] is the residual reason reported when no
// site failed a tracked check (every site was filtered by a hard constraint).
//
// # Site discovery
//
// Candidate sites come from OpenStreetMap points of interest. Upstream
// filtering is not trusted: [ClassifyPlace] applies a name and landuse
// blacklist (landfills, quarries, prisons, ...) and rejects obviously private
// land. Officially protected places get a trust factor of 1.0, everything
// else 0.5.
package domain
