package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/auth"
	"github.com/stefando/zoomSyncAWS/internal/mirror"
	"github.com/stefando/zoomSyncAWS/internal/zoom"
)

// maxWebhookBody bounds the webhook payload read into memory.
const maxWebhookBody = 1 << 20

// mirrorService is the part of mirror.Service the routes call.
type mirrorService interface {
	SyncUser(ctx context.Context) (mirror.Summary, error)
	HandleWebhook(ctx context.Context, body []byte) (mirror.Summary, error)
}

// setupRouter creates and configures the Chi router. /sync is only
// mounted when an operator token verifier is configured.
func setupRouter(svc mirrorService, webhookSecret string, verifier auth.TokenVerifier, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.With(auth.WebhookAuth(webhookSecret, log)).Post("/webhook", handleWebhook(svc, log))
	if verifier != nil {
		r.With(auth.BearerMiddleware(verifier, log)).Post("/sync", handleSync(svc, log))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// handleWebhook uploads the meeting announced by a Zoom recording webhook
func handleWebhook(svc mirrorService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
			return
		}

		sum, err := svc.HandleWebhook(r.Context(), body)
		if errors.Is(err, zoom.ErrInvalidWebhook) {
			log.Warn("invalid webhook body", zap.Error(err))
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		writeSync(w, log, sum, err)
	}
}

// handleSync runs a full sync on behalf of an authenticated operator
func handleSync(svc mirrorService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if op, ok := auth.OperatorFrom(r.Context()); ok {
			log.Info("operator sync requested", zap.String("subject", op.Subject))
		}
		sum, err := svc.SyncUser(r.Context())
		writeSync(w, log, sum, err)
	}
}

func writeSync(w http.ResponseWriter, log *zap.Logger, sum mirror.Summary, err error) {
	status := http.StatusOK
	if err != nil {
		log.Error("sync failed", zap.String("batch", sum.BatchID), zap.Error(err))
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, newSyncResponse(sum, err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
