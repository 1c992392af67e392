package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMarksRange(t *testing.T) {
	cases := []struct {
		name      string
		candidate float64
		max       float64
		ok        bool
	}{
		{"zero", 0, 10, true},
		{"max", 10, 10, true},
		{"fractional", 7.5, 10, true},
		{"negative", -0.5, 10, false},
		{"above max", 10.5, 10, false},
		{"zero max zero candidate", 0, 0, true},
		{"zero max positive candidate", 1, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMarks(tc.candidate, tc.max)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestAutoMarksPerVerdict(t *testing.T) {
	state := AnswerState{
		Question:     QuestionRef{ID: 1, Type: QuestionFreeText, MaxMarks: 10},
		AwardedMarks: 4.5,
		Verdict:      VerdictPending,
	}

	require.Equal(t, 10.0, AutoMarks(state, VerdictCorrect))
	require.Equal(t, 0.0, AutoMarks(state, VerdictIncorrect))
	require.Equal(t, 4.5, AutoMarks(state, VerdictPending))

	// Reverting to pending again changes nothing.
	state.AwardedMarks = AutoMarks(state, VerdictPending)
	require.Equal(t, 4.5, AutoMarks(state, VerdictPending))
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	require.Equal(t, 0.0, stats.Percentage)
	require.Equal(t, 0.0, stats.TotalAwarded)
	require.Equal(t, 0.0, stats.TotalPossible)
	require.Equal(t, 0, stats.Evaluated)
	require.Equal(t, 0, stats.Pending)
}

func TestAggregateCounts(t *testing.T) {
	answers := []AnswerState{
		{Question: QuestionRef{ID: 1, Type: QuestionMultipleChoice, MaxMarks: 5}, AwardedMarks: 5, Verdict: VerdictCorrect},
		{Question: QuestionRef{ID: 2, Type: QuestionFreeText, MaxMarks: 10}, AwardedMarks: 7.5, Verdict: VerdictCorrect},
		{Question: QuestionRef{ID: 3, Type: QuestionCode, MaxMarks: 20}, AwardedMarks: 0, Verdict: VerdictPending},
	}

	stats := Aggregate(answers)
	require.Equal(t, 12.5, stats.TotalAwarded)
	require.Equal(t, 35.0, stats.TotalPossible)
	require.InDelta(t, 12.5/35.0*100, stats.Percentage, 1e-9)
	require.Equal(t, 2, stats.Evaluated)
	require.Equal(t, 1, stats.Pending)
}

func TestParseVerdict(t *testing.T) {
	verdict, err := ParseVerdict(" Correct ")
	require.NoError(t, err)
	require.Equal(t, VerdictCorrect, verdict)

	_, err = ParseVerdict("maybe")
	require.ErrorIs(t, err, ErrInvalidVerdict)
}
