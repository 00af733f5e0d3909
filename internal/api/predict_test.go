package api_test

import (
	"reflect"
	"testing"

	"finqa/internal/api"
)

func TestFormatQuestion(t *testing.T) {
	question := "What is the annual gift tax exclusion?"
	options := []string{"A. $15,000", "B. $17,000", "C. $19,000", "D. $21,000"}

	got := api.FormatQuestion(question, options)
	want := "What is the annual gift tax exclusion?\nA. $15,000\nB. $17,000\nC. $19,000\nD. $21,000"
	if got != want {
		t.Errorf("got %q, expected %q", got, want)
	}
}

func TestFormatQuestionNoOptions(t *testing.T) {
	question := "What is a revocable trust?"
	got := api.FormatQuestion(question, nil)
	if got != question {
		t.Errorf("got %q, expected %q", got, question)
	}
}

func TestQuestionSetFlatten(t *testing.T) {
	qs := api.QuestionSet{
		"chapter_1": {
			{Question: "q1", Answer: "A"},
			{Question: "q2", Answer: "B"},
		},
		"chapter_2": {
			{Question: "q3", Answer: "C"},
		},
	}

	flat := qs.Flatten()
	if len(flat) != 3 {
		t.Fatalf("got %d questions, expected 3", len(flat))
	}

	gotMap := make(map[string]bool)
	for _, q := range flat {
		gotMap[q.Question] = true
	}
	for _, want := range []string{"q1", "q2", "q3"} {
		if !gotMap[want] {
			t.Errorf("expected question '%s' not found", want)
		}
	}
}

func TestQuestionSetFlattenEmpty(t *testing.T) {
	qs := api.QuestionSet{}
	if got := qs.Flatten(); !reflect.DeepEqual(got, []api.Question{}) {
		t.Errorf("got %v, expected empty slice", got)
	}
}
