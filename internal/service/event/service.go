// Package event publishes domain events to the message broker so the
// notification and analytics consumers can react to bookings. Event
// delivery is best effort: a broker failure is logged and never fails
// the operation that produced the event.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campuswell/wellness-api/pkg/messaging"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingStatus    = "booking.status_changed"
	TypeSlotsAdded       = "slots.added"
	TypeSlotRemoved      = "slots.removed"
)

type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Service struct {
	broker  messaging.Broker
	channel string
	logger  zerolog.Logger
}

// NewService creates an event publisher. A nil broker disables
// publishing, which is how tests and broker-less deployments run.
func NewService(broker messaging.Broker, channel string, logger zerolog.Logger) *Service {
	return &Service{
		broker:  broker,
		channel: channel,
		logger:  logger,
	}
}

func (s *Service) Publish(ctx context.Context, eventType string, payload interface{}) {
	if s.broker == nil {
		return
	}

	evt := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	if err := s.broker.Publish(ctx, s.channel, evt); err != nil {
		s.logger.Error().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}
