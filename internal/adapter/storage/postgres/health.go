package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// HealthCheck implements ports.HealthChecker for PostgreSQL. Besides
// connectivity it reports a schema that lags the embedded migrations, which
// is what a deploy without `gatewayctl migrate` looks like.
type HealthCheck struct {
	pool Pool
	want string
}

// NewHealthCheck creates a PostgreSQL health checker expecting the newest
// embedded migration to be applied.
func NewHealthCheck(pool Pool) *HealthCheck {
	hc := &HealthCheck{pool: pool}
	if migrations, err := Migrations(); err == nil && len(migrations) > 0 {
		hc.want = migrations[len(migrations)-1].Version
	}
	return hc
}

// Ping checks connectivity and the applied schema version.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var applied string
	err := h.pool.QueryRow(ctx,
		`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&applied)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("schema not migrated")
		}
		return err
	}
	if h.want != "" && applied < h.want {
		return fmt.Errorf("schema at %s, want %s", applied, h.want)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
