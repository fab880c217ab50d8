package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// EventsExchange carries one message per workflow transition; the routing
	// key is the event type.
	EventsExchange = "groupbuy.events"
	// NotificationsQueue is drained by the daemon-mode worker.
	NotificationsQueue = "groupbuy.notifications"
	// EventsBinding uses the multi-segment wildcard so keys like
	// group.shipping.updated are matched too.
	EventsBinding = "group.#"
)

const (
	EventGroupCreated          = "group.created"
	EventGroupSubmitted        = "group.submitted"
	EventSubmissionCancelled   = "group.submission.cancelled"
	EventGroupConfirmed        = "group.confirmed"
	EventConfirmationCancelled = "group.confirmation.cancelled"
	EventGroupClosed           = "group.closed"
	EventGroupCompleted        = "group.completed"
	EventShippingUpdated       = "group.shipping.updated"
)

type GroupEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	GroupID    string         `json:"groupId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Publisher emits workflow events. A nil Publisher (or one without a broker
// connection) swallows publishes, so the workflow never depends on the broker
// being up.
type Publisher struct {
	client *Client
	logger *zap.Logger
}

func NewPublisher(client *Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

func EnsureEventsTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchange(EventsExchange); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(NotificationsQueue); err != nil {
		return err
	}
	return qc.BindQueue(NotificationsQueue, EventsExchange, EventsBinding)
}

func (p *Publisher) Publish(ctx context.Context, eventType, groupID string, detail map[string]any) {
	if p == nil || p.client == nil {
		return
	}
	event := GroupEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		GroupID:    groupID,
		OccurredAt: time.Now(),
		Detail:     detail,
	}
	if err := p.client.PublishJSON(ctx, EventsExchange, eventType, event); err != nil && p.logger != nil {
		p.logger.Warn("event publish failed",
			zap.String("type", eventType),
			zap.String("groupId", groupID),
			zap.Error(err))
	}
}
