package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"finqa/internal/api"
	"finqa/internal/http"
)

const (
	defaultConcurrency  = 4
	defaultRequestRate  = 2 // requests per second
	defaultRequestBurst = 2
)

// Mismatch records a single wrong prediction.
type Mismatch struct {
	Question string
	Expected string
	Got      string
}

type Report struct {
	Total      int
	Correct    int
	Skipped    int
	Mismatches []Mismatch
}

// Accuracy is the share of all questions answered correctly. Skipped
// questions count against the score.
func (r Report) Accuracy() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// LoadQuestions reads a question set file, a JSON object mapping
// category names to lists of questions.
func LoadQuestions(path string) (api.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file %q: %w", path, err)
	}

	var qs api.QuestionSet
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("failed to parse questions file %q: %w", path, err)
	}

	return qs, nil
}

// Validator runs a question set against a prediction endpoint and
// scores the answers.
type Validator struct {
	client      http.Client
	concurrency int
	limiter     *rate.Limiter
	quiet       bool
}

type ValidatorOption func(*Validator)

func NewValidator(endpoint string, opts ...ValidatorOption) *Validator {
	v := &Validator{
		client:      http.NewClient(endpoint),
		concurrency: defaultConcurrency,
		limiter:     rate.NewLimiter(rate.Limit(defaultRequestRate), defaultRequestBurst),
	}

	for _, opt := range opts {
		opt(v)
	}
	return v
}

func WithConcurrency(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

func WithRateLimit(rps float64) ValidatorOption {
	return func(v *Validator) {
		if rps > 0 {
			v.limiter = rate.NewLimiter(rate.Limit(rps), defaultRequestBurst)
		}
	}
}

func WithQuiet(quiet bool) ValidatorOption {
	return func(v *Validator) {
		v.quiet = quiet
	}
}

func (v *Validator) Run(ctx context.Context, qs api.QuestionSet) (*Report, error) {
	questions := qs.Flatten()
	if len(questions) == 0 {
		return nil, fmt.Errorf("question set is empty")
	}

	var bar *progressbar.ProgressBar
	if !v.quiet {
		bar = progressbar.Default(int64(len(questions)), "validating")
	}

	var mu sync.Mutex
	report := &Report{Total: len(questions)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for _, q := range questions {
		g.Go(func() error {
			defer func() {
				if bar != nil {
					bar.Add(1)
				}
			}()

			if err := v.limiter.Wait(gctx); err != nil {
				return err
			}

			got, err := v.predict(q)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				// a single failed request must not abort the run
				report.Skipped += 1
				return nil
			}

			expected := normalizeAnswer(q.Answer)
			if normalizeAnswer(got) == expected {
				report.Correct += 1
			} else {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Question: q.Question,
					Expected: expected,
					Got:      normalizeAnswer(got),
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

func (v *Validator) predict(q api.Question) (string, error) {
	resp, err := v.client.Request(http.MethodPost, "/predict", map[string]any{
		"question": q.Question,
		"options":  q.Options,
	})
	if err != nil {
		return "", err
	}

	answer, ok := resp["predicted_answer"].(string)
	if !ok {
		return "", fmt.Errorf("malformed prediction response: missing 'predicted_answer'")
	}
	return answer, nil
}

func normalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Print renders the report to stdout.
func (r Report) Print() {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Println("Validation results")
	fmt.Printf("  total:    %d\n", r.Total)
	color.Green("  correct:  %d", r.Correct)
	if len(r.Mismatches) > 0 {
		color.Red("  wrong:    %d", len(r.Mismatches))
	}
	if r.Skipped > 0 {
		color.Yellow("  skipped:  %d", r.Skipped)
	}
	bold.Printf("  accuracy: %.2f%%\n", r.Accuracy()*100)

	if len(r.Mismatches) > 0 {
		fmt.Println()
		bold.Println("Mismatches")
		for _, m := range r.Mismatches {
			fmt.Printf("  %s\n", m.Question)
			fmt.Printf("    expected %s, got %s\n", m.Expected, m.Got)
		}
	}
}
