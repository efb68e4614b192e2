package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"socialnest/internal/featureflags"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
)

// Event is the websocket frame sent to clients.
type Event struct {
	Type    string               `json:"type"`
	Payload *models.Notification `json:"payload"`
}

// Publisher pushes committed notifications to their recipients. With Redis
// the payload goes through pub/sub so every instance can deliver it;
// otherwise it is delivered to this instance's hub directly.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
	flags    *featureflags.Manager
}

func NewPublisher(hub *Hub, notifier *Notifier, flags *featureflags.Manager) *Publisher {
	return &Publisher{hub: hub, notifier: notifier, flags: flags}
}

// Publish never fails the caller; delivery errors are logged.
func (p *Publisher) Publish(ctx context.Context, n *models.Notification) {
	if n == nil || !p.flags.Enabled(featureflags.RealtimeNotifications, n.UserID) {
		return
	}
	payload, err := json.Marshal(Event{Type: "notification", Payload: n})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode notification", slog.String("error", err.Error()))
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishUser(ctx, n.UserID, string(payload))
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "notification publish failed, delivering locally",
			slog.Uint64("recipient", uint64(n.UserID)), slog.String("error", err.Error()))
	}
	if p.hub != nil {
		p.hub.Broadcast(n.UserID, payload)
	}
}
