package service

import (
	"context"
	"io"
	"testing"

	"seller-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTx implements pgx.Tx for testing
type mockTx struct {
	pgx.Tx
	committed bool
}

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

// decEq matches a decimal argument by value.
type decEq struct{ want decimal.Decimal }

func (m decEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decEq) String() string { return "decimal equal to " + m.want.String() }

func eqDec(s string) decEq { return decEq{want: dec(s)} }

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
