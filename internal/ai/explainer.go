// Package ai defines the boundary to the external text-generation service that
// justifies a recommendation list.
package ai

import (
	"context"
	"strings"
)

// FailurePrefix starts every failure text handed back to callers.
const FailurePrefix = "AI Analysis Unavailable: "

// Outcome tells which branch an Explanation represents.
type Outcome int

const (
	// OutcomeSkipped means no call was attempted because no credential was supplied.
	OutcomeSkipped Outcome = iota
	// OutcomeGenerated means Text holds the generated justification.
	OutcomeGenerated
	// OutcomeFailed means the call failed; Text holds a descriptive failure string.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeGenerated:
		return "generated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Explanation is the result of asking for a justification. It is never an
// error: failures are a branch of the value.
type Explanation struct {
	Outcome Outcome
	Text    string
	// Err is the cause of an OutcomeFailed explanation, kept for logging.
	Err error
}

// Generated wraps a successful justification.
func Generated(text string) Explanation {
	return Explanation{Outcome: OutcomeGenerated, Text: strings.TrimSpace(text)}
}

// Failed wraps err into a failure explanation.
func Failed(err error) Explanation {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Explanation{Outcome: OutcomeFailed, Text: FailurePrefix + msg, Err: err}
}

// Skipped is returned when the service was not called.
func Skipped() Explanation {
	return Explanation{Outcome: OutcomeSkipped}
}

// Recommendation is the part of a result the explainer needs.
type Recommendation struct {
	Name      string
	TestTypes []string
}

// Explainer produces a justification for a recommendation list.
type Explainer interface {
	Explain(ctx context.Context, query string, recs []Recommendation) Explanation
}

// ExplainerFactory builds an Explainer bound to a caller-supplied credential.
type ExplainerFactory func(ctx context.Context, credential string) (Explainer, error)
