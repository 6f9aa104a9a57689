// Package schedule derives bookable slots from weekly work rules and decides whether a
// booking attempt is legal. Everything here is pure: the current time is always passed in.
package schedule

import (
	"fmt"
	"strings"
)

// EdgePolicy decides what happens to the last slot of a window.
type EdgePolicy string

const (
	// EdgeOverrun keeps a slot whose start is inside the window even if it ends after it.
	EdgeOverrun EdgePolicy = "overrun"
	// EdgeFit only keeps slots that end at or before the window end.
	EdgeFit EdgePolicy = "fit"
)

// ParseEdgePolicy accepts "overrun" and "fit"; empty means overrun.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch EdgePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EdgeOverrun:
		return EdgeOverrun, nil
	case EdgeFit:
		return EdgeFit, nil
	default:
		return "", fmt.Errorf("unknown slot edge policy %q", s)
	}
}

// Engine holds the policy shared by slot generation and booking validation so both
// agree on which start times exist.
type Engine struct {
	edge EdgePolicy
}

func New(edge EdgePolicy) *Engine {
	if edge == "" {
		edge = EdgeOverrun
	}
	return &Engine{edge: edge}
}

func (e *Engine) Edge() EdgePolicy {
	return e.edge
}
