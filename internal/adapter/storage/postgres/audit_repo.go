package postgres

import (
	"context"
	"fmt"

	"seller-gateway/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a PostgreSQL-backed audit repository.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends an audit entry. Details must be a JSON document or empty.
func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	var details any
	if entry.Details != "" {
		details = entry.Details
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, seller_id, actor, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.SellerID, entry.Actor, entry.Action, entry.ResourceType,
		entry.ResourceID, details, entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
