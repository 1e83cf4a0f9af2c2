// file: internal/events/events.go
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ===============================
// DOMAIN EVENTS
// ===============================

// Event is a gamification domain event. The set of implementations is
// closed: each event type carries its own typed payload rather than a
// metadata map, so payload shapes are checked at compile time.
type Event interface {
	EventType() string
	User() int64
	OccurredAt() time.Time
}

// PointsAwarded is published after a ledger transaction commits.
type PointsAwarded struct {
	UserID    int64     `json:"user_id"`
	EventName string    `json:"event_name"`
	Points    int       `json:"points"`
	NewTotal  int64     `json:"new_total"`
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

func (e PointsAwarded) EventType() string     { return "points_awarded" }
func (e PointsAwarded) User() int64           { return e.UserID }
func (e PointsAwarded) OccurredAt() time.Time { return e.Timestamp }

// BadgeEarned is published when the evaluator records a new badge.
type BadgeEarned struct {
	UserID    int64     `json:"user_id"`
	BadgeSlug string    `json:"badge_slug"`
	BadgeName string    `json:"badge_name"`
	Bonus     int       `json:"bonus"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BadgeEarned) EventType() string     { return "badge_earned" }
func (e BadgeEarned) User() int64           { return e.UserID }
func (e BadgeEarned) OccurredAt() time.Time { return e.Timestamp }

// LevelUp is published when an award pushes a user past a level threshold.
type LevelUp struct {
	UserID    int64     `json:"user_id"`
	OldLevel  int       `json:"old_level"`
	NewLevel  int       `json:"new_level"`
	Timestamp time.Time `json:"timestamp"`
}

func (e LevelUp) EventType() string     { return "level_up" }
func (e LevelUp) User() int64           { return e.UserID }
func (e LevelUp) OccurredAt() time.Time { return e.Timestamp }

// ===============================
// EVENT BUS
// ===============================

// Handler consumes a single event. Handler errors are logged, never
// propagated: eventing is strictly downstream of the award path.
type Handler func(ctx context.Context, event Event)

// Bus is a small in-process pub/sub fan-out. Publishing never blocks the
// caller; each event is dispatched on its own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
	wg       sync.WaitGroup
	closed   bool
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: map[string][]Handler{},
		logger:   logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish dispatches the event asynchronously to all matching handlers.
// A closed bus drops events silently.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]Handler, 0, len(b.handlers[event.EventType()])+len(b.all))
	targets = append(targets, b.handlers[event.EventType()]...)
	targets = append(targets, b.all...)
	b.wg.Add(len(targets))
	b.mu.RUnlock()

	for _, handler := range targets {
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if p := recover(); p != nil {
					b.logger.Error("event handler panicked",
						zap.String("event_type", event.EventType()),
						zap.Any("panic", p),
					)
				}
			}()
			// Detach from the request context: handlers outlive the
			// request that triggered the award.
			h(context.WithoutCancel(ctx), event)
		}(handler)
	}
}

// Close waits for in-flight handlers and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
