package generation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"finqa/internal/api"
	"finqa/internal/executor"
	"finqa/internal/provider"
	"finqa/internal/registry"
	"finqa/internal/transport"
)

var mcqExecutorDescriptor = "generation.MCQ"

const promptAnswerMCQ = `You are a financial planning expert.
Based ONLY on the provided context, answer the multiple-choice question by returning EXACTLY one letter: A, B, C, or D.

Context:
{{.Context}}

Question: {{.Question}}
Answer:`

// choicePattern matches the first standalone answer letter in the
// model output.
var choicePattern = regexp.MustCompile(`\b([A-D])\b`)

func init() {
	exec, err := NewMCQExecutor()
	if err != nil {
		slog.Error("failed to initialize executor", "name", mcqExecutorDescriptor, "err", err)
		return
	}

	err = registry.RegisterExecutor(mcqExecutorDescriptor, exec)
	if err != nil {
		slog.Error("failed to register executor", "name", mcqExecutorDescriptor)
	}
}

type MCQExecutor struct {
	DefaultLMProvider provider.LM

	operators map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error)

	templateAnswerMCQ template.Template
}

func NewMCQExecutor() (*MCQExecutor, error) {
	lp, err := provider.NewLM(provider.LMTypeGemini)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize default providers: %w", err)
	}

	templ := template.Must(template.New("promptAnswerMCQ").Parse(promptAnswerMCQ))

	e := &MCQExecutor{
		DefaultLMProvider: lp,
		templateAnswerMCQ: *templ,
	}
	e.operators = map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error){
		"answer": e.answer,
	}
	return e, nil
}

func (e MCQExecutor) Execute(ctx context.Context, p *executor.ExecutorParams) *executor.ExecutorResult {
	if p.Operator == "" {
		p.Operator = "answer"
	}
	slog.Info("executing", "name", mcqExecutorDescriptor, "op", p.Operator, "query", p.GetQuery(), "id", p.GetTaskID())

	opFunc, exists := e.operators[p.Operator]
	if !exists {
		return &executor.ExecutorResult{
			Name:     mcqExecutorDescriptor,
			Operator: p.Operator,
			Err: executor.ErrOperatorNotFound{
				ExecutorName: mcqExecutorDescriptor,
				OperatorName: p.Operator,
			},
			Values: nil,
		}
	}

	vals, err := opFunc(ctx, p)

	return &executor.ExecutorResult{
		Name:     mcqExecutorDescriptor,
		Operator: p.Operator,
		Err:      err,
		Values:   vals,
	}
}

func (e MCQExecutor) answer(ctx context.Context, p *executor.ExecutorParams) (map[string]any, error) {
	// 'answer' requires following parameter args:
	// context_docs - slice of scored documents to be used as context
	contextDocs, err := executor.GetTypedArg[[]*api.ScoredDocument](p, "context_docs")
	if err != nil {
		if _, ok := err.(executor.ErrArgMissing); !ok {
			return nil, err
		}
		contextDocs = nil
	}

	modelContext := ""
	for _, sp := range contextDocs {
		modelContext += strings.TrimSpace(sp.Content) + "\n---\n"
	}

	type templatePayload struct {
		Context  string
		Question string
	}
	tp := templatePayload{Context: modelContext, Question: p.GetQuery()}

	var buf bytes.Buffer
	err = e.templateAnswerMCQ.Execute(&buf, tp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template for query '%s': %w", p.GetQuery(), err)
	}

	msgStream, err := p.Transport.GetMessageStream(p.GetTaskID())
	if err != nil {
		return nil, fmt.Errorf("failed to create message stream for task '%s': %w", p.GetTaskID(), err)
	}

	stream, err := e.DefaultLMProvider.Generate(ctx, api.GenerationRequest{
		Prompt:      buf.String(),
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		slog.Warn("error creating completion stream, cancelling task")
		msgStream.Send(ctx, transport.MessageStreamPayload{
			Content: "something went wrong",
			Status:  transport.StatusErr,
		})
		return nil, err
	}
	defer stream.Close()

	output, err := api.StreamReadAll(ctx, stream)
	if err != nil {
		msgStream.Send(ctx, transport.MessageStreamPayload{
			Content: "something went wrong",
			Status:  transport.StatusErr,
		})
		return nil, fmt.Errorf("failed to read completion stream: %w", err)
	}

	answer := ExtractChoice(output)

	err = msgStream.Send(ctx, transport.MessageStreamPayload{
		Type:    transport.MessageTypeContent,
		Status:  transport.StatusOK,
		Content: answer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send answer to message stream: %w", err)
	}

	return map[string]any{
		"answer":     answer,
		"generation": output,
	}, nil
}

// ExtractChoice pulls the answer letter out of a model completion. It
// returns the first standalone A-D found, falling back to the trimmed
// uppercased output when none matches.
func ExtractChoice(output string) string {
	normalized := strings.ToUpper(strings.TrimSpace(output))
	if m := choicePattern.FindStringSubmatch(normalized); m != nil {
		return m[1]
	}
	return normalized
}
