package httpapi

import (
	"context"
	"net/http"
	"strings"

	"web-agent/internal/application/port/input"

	"github.com/go-chi/httplog"
	"github.com/google/uuid"
)

const (
	headerRunID     = "X-Run-ID"
	trailerRunState = "X-Run-Status"
	trailerRunError = "X-Run-Error"
)

func (h *handlers) handleAgent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAgentRequest(r)
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "streaming is unsupported by response writer")
		return
	}

	runID := uuid.NewString()
	httplog.LogEntrySetField(r.Context(), "run_id", runID)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set(headerRunID, runID)
	w.Header().Set("Trailer", trailerRunState+", "+trailerRunError)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The run outlives the caller; a disconnect only stops event delivery.
	ctx := input.WithRunID(context.WithoutCancel(r.Context()), runID)
	emitter := newNDJSONEmitter(w, flusher)

	if _, err := h.runner.Run(ctx, req.Goal, req.Steps, emitter); err != nil {
		h.logger.Error("Agent run failed", "run_id", runID, "error", err)
		w.Header().Set(trailerRunState, "error")
		w.Header().Set(trailerRunError, headerSafe(err.Error()))
		return
	}

	if emitter.Err() != nil {
		h.logger.Warn("Event stream interrupted", "run_id", runID, "error", emitter.Err())
	}
	w.Header().Set(trailerRunState, "ok")
}

func headerSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
