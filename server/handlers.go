package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finqa/internal/api"
	"finqa/internal/tasks"
)

// predictTimeout bounds how long a request waits for the worker to
// produce an answer.
const predictTimeout = 120 * time.Second

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req api.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing required field 'question'")
		return
	}

	query := api.FormatQuestion(req.Question, req.Options)
	slog.Debug("received predict request", "question", req.Question, "options", req.Options)

	t, err := tasks.NewPredictTask(query, "", "", nil)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	info, err := s.asynqClient.Enqueue(t)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	slog.Info("enqueued task successfully", "id", info.ID)
	traceID := info.ID

	tstream, err := s.transport.GetMessageStream(traceID)
	if err != nil {
		slog.Error("failed to retrieve stream", "id", traceID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), predictTimeout)
	defer cancel()

	answer, err := collectStreamContent(ctx, traceID, tstream)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "prediction timed out")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("predict request completed", "id", traceID, "answer", answer, "elapsed", time.Since(started))

	writeJSON(w, http.StatusOK, api.PredictResponse{
		PredictedAnswer: answer,
		Confidence:      1.0,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")

	trace, err := s.transport.GetTrace(r.Context(), traceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "trace with given id does not exist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trace_id":     trace.ID,
		"status":       trace.Status,
		"started_at":   trace.StartedAt,
		"completed_at": trace.CompletedAt,
		"query":        trace.Query,
		"user":         trace.User,
	})
}
