package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/app"
	"github.com/stefando/zoomSyncAWS/internal/auth"
	"github.com/stefando/zoomSyncAWS/internal/config"
	"github.com/stefando/zoomSyncAWS/internal/logging"
)

// handler dispatches Lambda events: API Gateway proxy requests go through
// the router, EventBridge events run a full sync. Anything else is rejected
// so unauthenticated payloads never reach the sync.
type handler struct {
	router http.Handler
	svc    mirrorService
	log    *zap.Logger
}

// scheduledSource is the source of EventBridge events, schedules included.
const scheduledSource = "aws.events"

// eventProbe holds just enough of an event to tell the sources apart.
type eventProbe struct {
	HTTPMethod string `json:"httpMethod"`
	Source     string `json:"source"`
	DetailType string `json:"detail-type"`
}

// Invoke routes one raw Lambda event.
func (h *handler) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var probe eventProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("unrecognized event: %w", err)
	}

	if probe.HTTPMethod != "" {
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("invalid API Gateway event: %w", err)
		}
		return h.proxy(ctx, req), nil
	}

	if probe.Source != scheduledSource {
		h.log.Warn("rejecting unsupported event", zap.String("source", probe.Source))
		return nil, fmt.Errorf("unsupported event source %q", probe.Source)
	}

	h.log.Info("not a web call, syncing all", zap.String("source", probe.Source), zap.String("detail_type", probe.DetailType))
	sum, err := h.svc.SyncUser(ctx)
	resp := newSyncResponse(sum, err)
	if err != nil {
		h.log.Error("scheduled sync failed", zap.Error(err))
		return resp, err
	}
	return resp, nil
}

// proxy adapts an API Gateway event to the Chi router
func (h *handler) proxy(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	httpReq, err := createHTTPRequest(ctx, req)
	if err != nil {
		h.log.Error("error creating HTTP request", zap.Error(err))
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       "Internal server error",
		}
	}

	respRecorder := newResponseRecorder()
	h.router.ServeHTTP(respRecorder, httpReq)
	return respRecorder.toProxyResponse()
}

func main() {
	ctx := context.Background()

	v, err := config.NewViper("")
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}
	logger := logging.New(v.GetString("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.Load(v)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.ZoomWebhookAuth == "" {
		logger.Warn("ZOOM_WEBHOOK_AUTH not set, all webhook calls will be rejected")
	}

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}

	var verifier auth.TokenVerifier
	if cfg.OIDCEnabled() {
		ov, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			logger.Fatal("failed to initialize OIDC verifier", zap.Error(err))
		}
		verifier = ov
	}

	h := &handler{
		router: setupRouter(deps.Service, cfg.ZoomWebhookAuth, verifier, logger),
		svc:    deps.Service,
		log:    logger,
	}
	lambda.Start(h.Invoke)
}
