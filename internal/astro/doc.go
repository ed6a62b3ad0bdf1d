// Package astro provides the geometry the engine needs: sun and moon
// positions, twilight-bounded night windows, and a great-circle drive-time
// estimate.
//
// The solar and lunar positions use the low-precision series popularized by
// the suncalc family of libraries (Meeus-derived, arcminute-level accuracy),
// which is more than enough to decide whether the sky is dark or the moon is
// up. Times are instants; calendar days are interpreted in the location of
// the time.Time passed in.
package astro
