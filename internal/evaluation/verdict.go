package evaluation

import (
	"fmt"
	"strings"
)

// Verdict is the grader's correctness judgment for an answer. A tagged
// three-state value; pending means "not yet reviewed", never "incorrect".
type Verdict string

const (
	// VerdictCorrect awards full credit when applied.
	VerdictCorrect Verdict = "correct"
	// VerdictIncorrect zeroes the awarded marks when applied.
	VerdictIncorrect Verdict = "incorrect"
	// VerdictPending marks an answer as awaiting manual review.
	VerdictPending Verdict = "pending"
)

// Valid reports whether the verdict is one of the three known states.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictCorrect, VerdictIncorrect, VerdictPending:
		return true
	default:
		return false
	}
}

// ParseVerdict normalises a raw string into a Verdict.
func ParseVerdict(raw string) (Verdict, error) {
	verdict := Verdict(strings.ToLower(strings.TrimSpace(raw)))
	if !verdict.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVerdict, raw)
	}
	return verdict, nil
}
