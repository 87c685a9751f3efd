package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/florianilch/preverify/internal/credstore"
	"github.com/florianilch/preverify/internal/preverify"
	"github.com/florianilch/preverify/internal/verifyapi"
)

// PreVerificationResponse reports the outcome of a run to the caller.
type PreVerificationResponse struct {
	// Outcome is "issued", "not_registered" or "failed".
	Outcome string `json:"outcome"`
	// Stage and Error are set when Outcome is "failed".
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`
	// Shared is true when this request joined a run already in flight.
	Shared bool `json:"shared,omitempty"`
}

// PreVerificationHandler runs pre-verification on request. Concurrent
// requests share a single in-flight run.
type PreVerificationHandler struct {
	Generator Generator

	group singleflight.Group
}

// Compile-time check to ensure PreVerificationHandler implements http.Handler
var _ http.Handler = (*PreVerificationHandler)(nil)

// ServeHTTP implements http.Handler interface.
func (h *PreVerificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The run outlives any single caller that disconnects while others wait on it
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := h.group.Do("generate", func() (any, error) {
		return h.Generator.Generate(runCtx)
	})

	if err != nil {
		resp := PreVerificationResponse{Outcome: "failed", Error: err.Error(), Shared: shared}
		var stageErr *preverify.StageError
		if errors.As(err, &stageErr) {
			resp.Stage = stageErr.Stage.String()
		}
		slog.WarnContext(ctx, "pre-verification request failed", "stage", resp.Stage, "shared", shared)
		writeJSON(ctx, w, resp, statusForError(err))
		return
	}

	outcome, _ := v.(preverify.Outcome)
	writeJSON(ctx, w, PreVerificationResponse{Outcome: outcome.String(), Shared: shared}, http.StatusOK)
}

// statusForError maps a failed run to an HTTP status for the local caller.
func statusForError(err error) int {
	var storageErr *credstore.StorageError
	var apiErr *verifyapi.Error
	switch {
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	case errors.As(err, &apiErr) && apiErr.Kind == verifyapi.KindNetwork:
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
