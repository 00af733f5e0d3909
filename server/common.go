// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finqa/internal/transport"
)

var errStreamFailed = errors.New("message stream failed")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// collectStreamContent reads a message stream until its DONE marker,
// accumulating content messages. Transient read errors are retried a
// bounded number of times.
func collectStreamContent(ctx context.Context, traceID string, tstream transport.MessageStream) (string, error) {
	var content strings.Builder
	readFails := 0

	for {
		msg, err := tstream.Recv(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			slog.Warn("failed to read from stream", "stream", traceID)
			readFails += 1
			if readFails >= 10 {
				slog.Error("exceeded stream read attempts, failed", "id", traceID)
				return "", errStreamFailed
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		readFails = 0

		switch msg.Status {
		case transport.StatusErr:
			return "", errStreamFailed
		case transport.StatusDone:
			slog.Debug("message stream done", "trace", traceID)
			return content.String(), nil
		}

		if msg.Type == transport.MessageTypeContent {
			content.WriteString(msg.Content)
		}
	}
}
