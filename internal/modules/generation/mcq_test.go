package generation_test

import (
	"testing"

	"finqa/internal/modules/generation"
)

func TestExtractChoice(t *testing.T) {
	cases := []struct {
		output   string
		expected string
	}{
		{"B", "B"},
		{"b", "B"},
		{" C \n", "C"},
		{"The answer is B.", "B"},
		{"(D)", "D"},
		{"A: annual exclusion", "A"},
		{"Answer: C", "C"},
		// no standalone letter, the normalized output comes back
		{"none of the above", "NONE OF THE ABOVE"},
		{"", ""},
	}

	for _, c := range cases {
		if got := generation.ExtractChoice(c.output); got != c.expected {
			t.Errorf("ExtractChoice(%q) = %q, expected %q", c.output, got, c.expected)
		}
	}
}
