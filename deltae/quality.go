package deltae

// Quality grades a DeltaE2000 value against the engine's tier thresholds.
type Quality int

const (
	Excellent Quality = iota
	Good
	Acceptable
	Poor
	Unacceptable
)

var qualityNames = map[Quality]string{
	Excellent:    "Excellent",
	Good:         "Good",
	Acceptable:   "Acceptable",
	Poor:         "Poor",
	Unacceptable: "Unacceptable",
}

func (q Quality) String() string {
	return qualityNames[q]
}

// Classify maps a DeltaE2000 value onto a quality tier.
func (e *Engine) Classify(deltaE float64) Quality {
	t := e.Thresholds
	switch {
	case deltaE <= t.Excellent:
		return Excellent
	case deltaE <= t.Good:
		return Good
	case deltaE <= t.Acceptable:
		return Acceptable
	case deltaE <= t.Poor:
		return Poor
	default:
		return Unacceptable
	}
}

// Per-application acceptance tolerances. Keys are the profile names the
// validation layer passes in; values are the maximum acceptable DeltaE2000.
var applicationTolerances = map[string]float64{
	"critical":    1.0,
	"medical":     1.0,
	"printing":    2.0,
	"photography": 2.0,
	"display":     3.0,
	"general":     3.0,
	"industrial":  5.0,
}

// AcceptableFor reports whether deltaE passes the named application profile.
// Unknown profiles fall back to the engine's Acceptable threshold.
func (e *Engine) AcceptableFor(deltaE float64, application string) bool {
	if tol, ok := applicationTolerances[application]; ok {
		return deltaE <= tol
	}
	return deltaE <= e.Thresholds.Acceptable
}
