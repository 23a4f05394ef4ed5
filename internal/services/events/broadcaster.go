package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeShiftStarted      EventType = "shift.started"
	EventTypePassengerAssigned EventType = "passenger.assigned"
	EventTypeAnalysisCompleted EventType = "analysis.completed"
	EventTypeRouteChosen       EventType = "route.chosen"
	EventTypeTellsSurfaced     EventType = "tells.surfaced"
	EventTypeDecisionResolved  EventType = "decision.resolved"
	EventTypeActionPerformed   EventType = "action.performed"
	EventTypeRideCompleted     EventType = "ride.completed"
	EventTypeShiftEnded        EventType = "shift.ended"
)

// Event represents a generic event structure
type Event struct {
	Type    EventType      `json:"type"`
	ShiftID string         `json:"shift_id"`
	Data    map[string]any `json:"data,omitempty"`
}

// Publisher is what the shift service needs from an event sink.
type Publisher interface {
	Publish(ctx context.Context, shiftID uuid.UUID, eventType EventType, data map[string]any) error
}

// Channel returns the Pub/Sub channel for one shift.
func Channel(shiftID uuid.UUID) string {
	return fmt.Sprintf("shift-events:%s", shiftID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish sends one event to the shift's channel.
func (b *Broadcaster) Publish(ctx context.Context, shiftID uuid.UUID, eventType EventType, data map[string]any) error {
	event := Event{
		Type:    eventType,
		ShiftID: shiftID.String(),
		Data:    data,
	}
	channel := Channel(shiftID)

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", eventType)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", eventType,
	)
	return nil
}

// Recorder keeps events in memory. Used by tests and when Redis Pub/Sub
// is not configured.
type Recorder struct {
	Events []Event
}

var _ Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(ctx context.Context, shiftID uuid.UUID, eventType EventType, data map[string]any) error {
	r.Events = append(r.Events, Event{Type: eventType, ShiftID: shiftID.String(), Data: data})
	return nil
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
