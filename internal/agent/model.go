package agent

import (
	"strings"

	"github.com/forgeworks/forge/internal/task"
)

// Full model identifiers for each tier alias.
const (
	ModelHaiku  = "claude-haiku-4-5-20251001"
	ModelSonnet = "claude-sonnet-4-5-20250929"
	ModelOpus   = "claude-opus-4-6"
)

// ResolveModel maps a tier alias to its full model identifier. Unknown
// aliases resolve to sonnet.
func ResolveModel(name string) string {
	switch strings.ToLower(name) {
	case "haiku":
		return ModelHaiku
	case "sonnet":
		return ModelSonnet
	case "opus":
		return ModelOpus
	default:
		return ModelSonnet
	}
}

// SelectModel picks a model for an implementation run based on triage
// complexity: high-complexity tasks get the complex tier, everything else
// the default tier.
func SelectModel(c task.Complexity, defaultModel, complexModel string) string {
	if c == task.ComplexityHigh {
		return ResolveModel(complexModel)
	}
	return ResolveModel(defaultModel)
}
