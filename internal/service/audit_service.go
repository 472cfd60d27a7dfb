package service

import (
	"context"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const auditPersistTimeout = 5 * time.Second

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an audit entry asynchronously (fire-and-forget). The request
// context is not used for persistence since the request has usually finished.
func (s *auditService) Log(_ context.Context, entry *domain.AuditLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = domain.ActorSystem
	}

	go func() {
		ev := s.log.Info().
			Str("actor", string(entry.Actor)).
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress)
		if entry.SellerID != nil {
			ev = ev.Str("seller_id", entry.SellerID.String())
		}
		ev.Msg("audit")

		if s.repo == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), auditPersistTimeout)
		defer cancel()
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
		}
	}()
}
