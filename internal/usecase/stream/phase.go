package stream

import (
	"errors"
	"fmt"
)

// Phase is a step of the search pipeline. Phases only move forward.
type Phase int

// Pipeline phases.
const (
	Analyzing Phase = iota
	Enriching
	Dispatching
	Ranking
	Delivered
	Failed
)

var phaseNames = [...]string{"analyzing", "enriching", "dispatching", "ranking", "delivered", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool { return p == Delivered || p == Failed }

var errBadTransition = errors.New("invalid phase transition")

// canAdvance allows the next phase in order, and Failed from any non-terminal phase.
func canAdvance(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	return to == Failed || to == from+1
}
