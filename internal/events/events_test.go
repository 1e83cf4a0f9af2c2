// file: internal/events/events_test.go
package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBusDeliversToMatchingHandlers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var pointsHits, allHits atomic.Int64
	bus.Subscribe("points_awarded", func(_ context.Context, _ Event) {
		pointsHits.Add(1)
	})
	bus.Subscribe("badge_earned", func(_ context.Context, _ Event) {
		t.Error("badge handler must not receive points events")
	})
	bus.SubscribeAll(func(_ context.Context, _ Event) {
		allHits.Add(1)
	})

	bus.Publish(context.Background(), PointsAwarded{UserID: 1, Timestamp: time.Now()})
	bus.Close()

	assert.Equal(t, int64(1), pointsHits.Load())
	assert.Equal(t, int64(1), allHits.Load())
}

func TestBusSurvivesHandlerPanic(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered atomic.Bool
	bus.SubscribeAll(func(_ context.Context, _ Event) {
		panic("handler bug")
	})
	bus.SubscribeAll(func(_ context.Context, _ Event) {
		delivered.Store(true)
	})

	bus.Publish(context.Background(), LevelUp{UserID: 1, Timestamp: time.Now()})
	bus.Close()

	assert.True(t, delivered.Load())
}

func TestBusDropsAfterClose(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var hits atomic.Int64
	bus.SubscribeAll(func(_ context.Context, _ Event) {
		hits.Add(1)
	})

	bus.Close()
	bus.Publish(context.Background(), BadgeEarned{UserID: 1, Timestamp: time.Now()})

	// Publish after Close is a silent no-op.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(0), hits.Load())
}

func TestEventCarriesUserAndTime(t *testing.T) {
	ts := time.Now().UTC()
	event := PointsAwarded{UserID: 7, Timestamp: ts}

	assert.Equal(t, "points_awarded", event.EventType())
	assert.Equal(t, int64(7), event.User())
	assert.Equal(t, ts, event.OccurredAt())
}
