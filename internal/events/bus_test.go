package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversByType(t *testing.T) {
	bus := NewBus()
	var movements, payments []Event

	bus.Subscribe(MovementsChanged, func(_ context.Context, e Event) { movements = append(movements, e) })
	bus.Subscribe(PaymentsChanged, func(_ context.Context, e Event) { payments = append(payments, e) })

	bus.Publish(context.Background(), Event{Type: MovementsChanged, EntityID: "3"})

	assert.Len(t, movements, 1)
	assert.Empty(t, payments)
	assert.Equal(t, "3", movements[0].EntityID)
	assert.False(t, movements[0].At.IsZero())
}

func TestBusSubscribeAllAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.SubscribeAll(func(context.Context, Event) { count++ })

	bus.Publish(context.Background(), Event{Type: RatesChanged})
	bus.Publish(context.Background(), Event{Type: OperationsChanged})
	unsubscribe()
	bus.Publish(context.Background(), Event{Type: OperationsChanged})

	assert.Equal(t, 2, count)
}

func TestBusUnsubscribeTyped(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe(PaymentsChanged, func(context.Context, Event) { count++ })
	unsubscribe()

	bus.Publish(context.Background(), Event{Type: PaymentsChanged})
	assert.Zero(t, count)
}
