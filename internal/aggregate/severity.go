package aggregate

// Severity classifies a CRAP value for rendering.
type Severity string

// Severity levels. The bands are fixed and do not follow
// Options.Threshold.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityOf returns high above 30, medium above 15, low otherwise.
func SeverityOf(crap float64) Severity {
	switch {
	case crap > 30:
		return SeverityHigh
	case crap > 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
