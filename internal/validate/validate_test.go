package validate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"finqa/internal/api"
	"finqa/internal/validate"
)

// predictServer answers with a fixed letter per question and can fail
// selected questions.
func predictServer(t *testing.T, answers map[string]string, fail map[string]bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// 400 is not retried, keeping the test fast
		if fail[req.Question] {
			http.Error(w, "workflow failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"predicted_answer": answers[req.Question],
			"confidence":       1.0,
		})
	}))
}

func TestValidatorRun(t *testing.T) {
	answers := map[string]string{
		"q1": "A",
		"q2": "b", // normalized before comparison
		"q3": "C",
	}
	srv := predictServer(t, answers, nil)
	defer srv.Close()

	qs := api.QuestionSet{
		"estate": {
			{Question: "q1", Options: []string{"A. one", "B. two"}, Answer: "A"},
			{Question: "q2", Options: []string{"A. one", "B. two"}, Answer: "B"},
			{Question: "q3", Options: []string{"A. one", "B. two"}, Answer: "D"},
		},
	}

	v := validate.NewValidator(srv.URL,
		validate.WithQuiet(true),
		validate.WithRateLimit(1000),
	)

	report, err := v.Run(context.Background(), qs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Total != 3 {
		t.Errorf("got total %d, expected 3", report.Total)
	}
	if report.Correct != 2 {
		t.Errorf("got correct %d, expected 2", report.Correct)
	}
	if len(report.Mismatches) != 1 {
		t.Fatalf("got %d mismatches, expected 1", len(report.Mismatches))
	}

	m := report.Mismatches[0]
	if m.Question != "q3" || m.Expected != "D" || m.Got != "C" {
		t.Errorf("unexpected mismatch: %+v", m)
	}

	want := 2.0 / 3.0
	if got := report.Accuracy(); got != want {
		t.Errorf("got accuracy %v, expected %v", got, want)
	}
}

func TestValidatorSkipsFailedRequests(t *testing.T) {
	answers := map[string]string{"q1": "A", "q2": "B"}
	srv := predictServer(t, answers, map[string]bool{"q2": true})
	defer srv.Close()

	qs := api.QuestionSet{
		"estate": {
			{Question: "q1", Answer: "A"},
			{Question: "q2", Answer: "B"},
		},
	}

	v := validate.NewValidator(srv.URL,
		validate.WithQuiet(true),
		validate.WithRateLimit(1000),
	)

	report, err := v.Run(context.Background(), qs)
	if err != nil {
		t.Fatalf("a failed request must not abort the run, got: %v", err)
	}

	if report.Skipped != 1 {
		t.Errorf("got skipped %d, expected 1", report.Skipped)
	}
	if report.Correct != 1 {
		t.Errorf("got correct %d, expected 1", report.Correct)
	}
	// skipped questions still count against the score
	if got := report.Accuracy(); got != 0.5 {
		t.Errorf("got accuracy %v, expected 0.5", got)
	}
}

func TestValidatorEmptyQuestionSet(t *testing.T) {
	v := validate.NewValidator("http://localhost:1", validate.WithQuiet(true))
	if _, err := v.Run(context.Background(), api.QuestionSet{}); err == nil {
		t.Error("expected error for empty question set")
	}
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	data := []byte(`{
		"gift_tax": [
			{"question": "q1", "options": ["A. one", "B. two"], "answer": "A"}
		],
		"trusts": [
			{"question": "q2", "options": ["A. one", "B. two"], "answer": "B"},
			{"question": "q3", "options": ["A. one", "B. two"], "answer": "C"}
		]
	}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	qs, err := validate.LoadQuestions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(qs) != 2 {
		t.Errorf("got %d categories, expected 2", len(qs))
	}
	if got := len(qs.Flatten()); got != 3 {
		t.Errorf("got %d questions, expected 3", got)
	}
}

func TestReportAccuracy(t *testing.T) {
	r := validate.Report{Total: 4, Correct: 2, Skipped: 2}
	if got := r.Accuracy(); got != 0.5 {
		t.Errorf("got accuracy %v, expected 0.5", got)
	}
}

func TestReportAccuracyEmpty(t *testing.T) {
	r := validate.Report{}
	if got := r.Accuracy(); got != 0 {
		t.Errorf("got accuracy %v, expected 0", got)
	}
}
