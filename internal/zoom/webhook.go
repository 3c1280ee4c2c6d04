package zoom

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WebhookEvent is the body of a recording.completed notification.
type WebhookEvent struct {
	Event         string `json:"event"`
	DownloadToken string `json:"download_token"`
	Payload       struct {
		AccountID string  `json:"account_id"`
		Object    Meeting `json:"object"`
	} `json:"payload"`
}

// ErrInvalidWebhook is returned for bodies without a meeting object.
var ErrInvalidWebhook = errors.New("invalid recording webhook")

// ParseWebhook decodes a recording webhook body.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if ev.Payload.Object.UUID == "" && ev.Payload.Object.ID == 0 {
		return WebhookEvent{}, fmt.Errorf("%w: missing payload.object", ErrInvalidWebhook)
	}
	return ev, nil
}

// Meeting returns the notified meeting.
func (e WebhookEvent) Meeting() Meeting { return e.Payload.Object }
