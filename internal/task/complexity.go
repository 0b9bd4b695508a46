package task

import "strings"

// Complexity is the declared difficulty tier of a task, as judged by triage.
type Complexity int

const (
	ComplexityLow Complexity = iota
	ComplexityMedium
	ComplexityHigh
)

// ParseComplexity parses a tier string. The parse is total: unrecognized
// values fall back to Medium rather than failing, since the string comes
// from agent output.
func ParseComplexity(s string) Complexity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ComplexityLow
	case "medium":
		return ComplexityMedium
	case "high":
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

func (c Complexity) String() string {
	switch c {
	case ComplexityLow:
		return "low"
	case ComplexityMedium:
		return "medium"
	case ComplexityHigh:
		return "high"
	default:
		return "medium"
	}
}
