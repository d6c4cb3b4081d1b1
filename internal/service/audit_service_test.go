package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/college-marketplace/internal/events"
)

func TestAuditService(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID: "evt-1", Type: events.EventSessionIssued, PrincipalID: "p-1", Subject: "alice@example.com", Timestamp: at,
		Payload: events.SessionIssuedPayload{Method: MethodPassword},
	}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID: "evt-2", Type: events.EventPrincipalBanned, Subject: "mallory@example.com", Timestamp: at,
	}))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "session_issued", entries[0].Message)
	require.Equal(t, "audit", entries[0].LoggerName)
	require.Equal(t, "p-1", entries[0].ContextMap()["principal_id"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.NotContains(t, entries[1].ContextMap(), "principal_id")
}
