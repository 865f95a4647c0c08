// Package decider provides domain.Decider implementations: an interactive
// terminal prompt and fixed policies for unattended runs.
package decider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Strategy names accepted by ForStrategy.
const (
	StrategyInteractive = "interactive"
	StrategyMinimum     = "minimum"
	StrategyMaximum     = "maximum"
)

// ErrUnknownStrategy indicates an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown decision strategy")

// Minimum always picks the smallest candidate, i.e. the package's own
// requirement raised only as far as its dependencies force.
type Minimum struct{}

// Decide returns the first candidate.
func (Minimum) Decide(_ context.Context, d domain.Decision) (domain.Increment, error) {
	if len(d.Candidates) == 0 {
		return domain.NoIncrement, fmt.Errorf("%w: no candidates for %s", domain.ErrInvalidDecision, d.Name)
	}
	return d.Candidates[0], nil
}

// Maximum always picks the largest candidate.
type Maximum struct{}

// Decide returns the last candidate.
func (Maximum) Decide(_ context.Context, d domain.Decision) (domain.Increment, error) {
	if len(d.Candidates) == 0 {
		return domain.NoIncrement, fmt.Errorf("%w: no candidates for %s", domain.ErrInvalidDecision, d.Name)
	}
	return d.Candidates[len(d.Candidates)-1], nil
}

// ForStrategy returns the decider for a strategy name. The interactive
// prompt reads keys from in and draws to out.
func ForStrategy(name string, in io.Reader, out io.Writer) (domain.Decider, error) {
	switch name {
	case StrategyInteractive, "":
		return NewPrompt(in, out), nil
	case StrategyMinimum:
		return Minimum{}, nil
	case StrategyMaximum:
		return Maximum{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}
