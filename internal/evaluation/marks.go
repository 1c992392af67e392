package evaluation

import "fmt"

// ValidateMarks checks a candidate awarded-mark value against a question
// maximum. Fractional values are permitted; the whole-mark convention for
// multiple choice is a UI affordance, not enforced here.
func ValidateMarks(candidate, max float64) error {
	if candidate < 0 || candidate > max {
		return fmt.Errorf("%w: %g not within [0, %g]", ErrOutOfRange, candidate, max)
	}
	return nil
}
