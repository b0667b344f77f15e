package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-gateway/internal/events"
)

// AuditService records access-control events in the log.
type AuditService struct {
	logger *zap.Logger
}

// NewAuditService creates the service. A nil logger discards audit records.
func NewAuditService(logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{logger: logger.Named("audit")}
}

// EventTypes lists the events the service records.
func (a *AuditService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventAdminAccessGranted,
		events.EventAdminAccessDenied,
		events.EventEmergencyAccessUsed,
		events.EventAppSessionMissing,
	}
}

// Handle writes one audit record for event.
func (a *AuditService) Handle(_ context.Context, event events.Event) error {
	fields := eventFields(event)
	switch event.Type {
	case events.EventAdminAccessGranted:
		a.logger.Info("AdminAccessGranted", fields...)
	case events.EventAdminAccessDenied:
		a.logger.Info("AdminAccessDenied", fields...)
	case events.EventEmergencyAccessUsed:
		// Emergency grants bypass every identity check and are kept for security review.
		a.logger.Warn("EmergencyAccessUsed", fields...)
	case events.EventAppSessionMissing:
		a.logger.Debug("AppSessionMissing", fields...)
	default:
		return fmt.Errorf("audit: unhandled event type %q", event.Type)
	}
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("path", event.Path),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
}
