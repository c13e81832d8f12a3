package service

import (
	"context"

	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/repository"
	"github.com/rs/zerolog"
)

// AuditService records auth events. Recording failures are logged and
// swallowed — auditing must never fail a login.
type AuditService struct {
	eventRepo *repository.AuthEventRepository
	log       zerolog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(eventRepo *repository.AuthEventRepository, log zerolog.Logger) *AuditService {
	return &AuditService{
		eventRepo: eventRepo,
		log:       log.With().Str("component", "audit_service").Logger(),
	}
}

// Record writes one audit event. userID may be nil for unknown accounts.
func (s *AuditService) Record(ctx context.Context, userID *int, username string, event model.AuthEventType, clientIP string) {
	e := &model.AuthEvent{
		UserID:   userID,
		Username: username,
		Event:    event,
		ClientIP: clientIP,
	}
	if err := s.eventRepo.Insert(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", string(event)).Msg("Failed to record auth event")
	}
}

func (s *AuditService) ListPaginated(ctx context.Context, userID *int, limit, offset int) ([]model.AuthEvent, int, error) {
	return s.eventRepo.ListPaginated(ctx, userID, limit, offset)
}
