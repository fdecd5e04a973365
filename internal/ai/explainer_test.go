package ai

import (
	"errors"
	"testing"
)

func TestExplanationConstructors(t *testing.T) {
	t.Parallel()

	generated := Generated("  Balanced selection.  ")
	if generated.Outcome != OutcomeGenerated || generated.Text != "Balanced selection." || generated.Err != nil {
		t.Fatalf("unexpected generated explanation: %+v", generated)
	}

	cause := errors.New("quota exceeded")
	failed := Failed(cause)
	if failed.Outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", failed.Outcome)
	}
	if failed.Text != "AI Analysis Unavailable: quota exceeded" {
		t.Fatalf("unexpected failure text: %q", failed.Text)
	}
	if !errors.Is(failed.Err, cause) {
		t.Fatalf("expected cause to be kept")
	}

	if got := Failed(nil).Text; got != FailurePrefix+"unknown error" {
		t.Fatalf("unexpected nil failure text: %q", got)
	}

	skipped := Skipped()
	if skipped.Outcome != OutcomeSkipped || skipped.Text != "" {
		t.Fatalf("unexpected skipped explanation: %+v", skipped)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	for outcome, want := range map[Outcome]string{
		OutcomeSkipped:   "skipped",
		OutcomeGenerated: "generated",
		OutcomeFailed:    "failed",
		Outcome(42):      "unknown",
	} {
		if got := outcome.String(); got != want {
			t.Fatalf("Outcome(%d).String() = %q, expected %q", outcome, got, want)
		}
	}
}
