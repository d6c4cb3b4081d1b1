package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_Publish(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []string
	boom := errors.New("boom")
	d.Subscribe(EventSessionIssued, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.Subject)
		return boom
	})
	d.Subscribe(EventSessionIssued, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.Subject)
		return nil
	})
	d.Subscribe(EventSessionEnded, func(context.Context, Event) error {
		seen = append(seen, "ended")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionIssued, Subject: "alice@example.com"})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"first:alice@example.com", "second:alice@example.com"}, seen)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventPrincipalBanned}))
}
