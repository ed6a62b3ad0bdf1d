package domain

// FailureReason is the single reason a site was rejected.
type FailureReason string

const (
	ReasonClouds     FailureReason = "clouds"
	ReasonCold       FailureReason = "cold"
	ReasonHot        FailureReason = "hot"
	ReasonAQI        FailureReason = "aqi"
	ReasonMoon       FailureReason = "moon"
	ReasonOutOfRange FailureReason = "out_of_range"
	ReasonNoData     FailureReason = "no_data"

	// ReasonDistance is the residual reason; it is never tallied.
	ReasonDistance FailureReason = "distance"
)

// TrackedReasons lists the tallied reasons in tie-break order.
var TrackedReasons = []FailureReason{
	ReasonClouds,
	ReasonCold,
	ReasonHot,
	ReasonAQI,
	ReasonMoon,
	ReasonOutOfRange,
	ReasonNoData,
}

var reasonMessages = map[FailureReason]string{
	ReasonClouds:     "Hazy vision. The stars continue their dance beyond the veil.",
	ReasonCold:       "Don't become a popsicle! Save the view for a warmer day.",
	ReasonHot:        "You're on fire! Stay indoors and avoid the heat tonight.",
	ReasonAQI:        "Smoke and mirrors. The air is too thick for a clear view tonight.",
	ReasonMoon:       "The Man on the Moon gives his greetings and illuminates the landscape.",
	ReasonOutOfRange: "The forecast doesn't reach that far into the night yet.",
	ReasonNoData:     "Must have forgotten to take the lens cap off, can't get a prediction.",
	ReasonDistance:   "The universe is calling, but it's a bit too far of a drive.",
}

// Message returns the user-facing explanation for the reason.
func (r FailureReason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return reasonMessages[ReasonNoData]
}

// Tracked reports whether the reason participates in the failure tally.
func (r FailureReason) Tracked() bool {
	for _, t := range TrackedReasons {
		if t == r {
			return true
		}
	}
	return false
}
