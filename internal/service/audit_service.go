package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/events"
)

// AuditService writes session lifecycle events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventPrincipalRegistered, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventSessionIssued, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventSessionRefreshed, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventSessionEnded, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventPrincipalBanned, a.handlePrincipalBanned)
}

func (a *AuditService) handleSessionEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), eventFields(event)...)
	return nil
}

func (a *AuditService) handlePrincipalBanned(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp),
	}
	if event.PrincipalID != "" {
		fields = append(fields, zap.String("principal_id", event.PrincipalID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	return fields
}
