package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"finqa/internal/executor"
	"finqa/internal/registry"
	"finqa/internal/transport"
	"finqa/internal/vector"
)

type TaskHandler struct {
	transport   transport.Transport
	vectorStore vector.Store
}

func NewTaskHandler(transport transport.Transport, vectorStore vector.Store) *TaskHandler {
	return &TaskHandler{
		transport:   transport,
		vectorStore: vectorStore,
	}
}

func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	switch t.Type() {
	case TypePredict:
		return h.processPredict(ctx, t)
	case TypeIndex:
		return h.processIndex(ctx, t)
	default:
		return fmt.Errorf("unrecognized task type (%w)", asynq.SkipRetry)
	}
}

func (h TaskHandler) processPredict(ctx context.Context, t *asynq.Task) error {
	var p predictTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	slog.Info("received predict task", "user", p.User, "query", p.Query, "workflowId", p.WorkflowId)

	args := make(map[string]any)
	for k, v := range p.Args {
		args[k] = v
	}

	workflowId := p.WorkflowId
	if workflowId == "" {
		workflowId = DefaultWorkflowPredict
	}

	id := t.ResultWriter().TaskID()
	slog.Info("task id", "id", id)
	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		slog.Error("failed to initialize message stream", "err", err)
		return fmt.Errorf("failed to initialize message stream: %v (%w)", err, asynq.SkipRetry)
	}

	trace := &transport.RequestTrace{
		ID:          id,
		Status:      transport.TraceStatusRunning,
		StartedAt:   time.Now().UnixNano(),
		CompletedAt: 0,
		Query:       p.Query,
		User:        p.User,
	}
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}

	workflow, err := registry.GetWorkflow(workflowId)
	if err != nil {
		errf := fmt.Errorf("workflow not found: %v (%w)", err, asynq.SkipRetry)
		slog.Error(fmt.Sprintf("%v", errf))
		ms.Send(ctx, transport.MessageStreamPayload{
			Content: "workflow not found",
			Status:  transport.StatusErr,
		})
		h.completeTrace(ctx, trace, transport.TraceStatusFailed)
		return errf
	}

	params := executor.NewExecutorParams(
		id,
		p.Query,
		executor.WithTransport(h.transport),
		executor.WithVectorStore(h.vectorStore),
		executor.WithArgs(args),
	)

	res := workflow.Execute(ctx, params)
	if res.Err != nil {
		ms.Send(ctx, transport.MessageStreamPayload{
			Content: "workflow execution failed",
			Status:  transport.StatusErr,
		})
		h.completeTrace(ctx, trace, transport.TraceStatusFailed)
		return fmt.Errorf("workflow execution failed: %w", asynq.SkipRetry)
	}

	err = ms.Send(ctx, transport.MessageStreamPayload{
		Content: "task finished",
		Status:  transport.StatusDone,
	})
	if err != nil {
		slog.Warn("failed to write DONE message to stream", "id", id)
	}

	h.completeTrace(ctx, trace, transport.TraceStatusCompleted)
	return nil
}

func (h TaskHandler) processIndex(ctx context.Context, t *asynq.Task) error {
	var p indexTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	slog.Info("received index task", "path", p.Path, "collection", p.CollectionName)

	args := make(map[string]any)
	for k, v := range p.Args {
		args[k] = v
	}
	args["path"] = p.Path
	args["collection_name"] = p.CollectionName

	id := t.ResultWriter().TaskID()

	exec, err := registry.GetExecutor("indexing.PDF")
	if err != nil {
		return fmt.Errorf("indexing executor not found: %v (%w)", err, asynq.SkipRetry)
	}

	params := executor.NewExecutorParams(
		id,
		"",
		executor.WithTransport(h.transport),
		executor.WithVectorStore(h.vectorStore),
		executor.WithArgs(args),
	)

	res := exec.Execute(ctx, params)
	if res.Err != nil {
		return fmt.Errorf("indexing failed: %v (%w)", res.Err, asynq.SkipRetry)
	}

	return nil
}

func (h TaskHandler) completeTrace(ctx context.Context, trace *transport.RequestTrace, status int) {
	trace.CompletedAt = time.Now().UnixNano()
	trace.Status = status
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", trace.ID, "err", err)
	}
}
