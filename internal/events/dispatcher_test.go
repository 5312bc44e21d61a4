package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls []string
	d.Subscribe(EventDonorRegistered, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("crm down")
	})
	d.Subscribe(EventDonorRegistered, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTransactionRecorded, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventDonorRegistered, nil, DonorPayload{DonorID: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm down")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherNoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), NewEvent(EventDonorUpdated, nil, nil)))
}

func TestNewEventStampsIdentity(t *testing.T) {
	a := NewEvent(EventTransactionRecorded, &Actor{ID: 7}, nil)
	b := NewEvent(EventTransactionRecorded, nil, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, int64(7), a.Actor.ID)
}
