package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))

	undefined := &pgconn.PgError{Code: "42P01", Message: `relation "local_storage" does not exist`}
	err := classify(fmt.Errorf("query: %w", undefined))
	require.ErrorIs(t, err, ErrSchemaMissing)

	err = classify(errors.New(`ERROR: relation "local_storage" does not exist (SQLSTATE 42P01)`))
	require.ErrorIs(t, err, ErrSchemaMissing)

	other := &pgconn.PgError{Code: "23505"}
	require.Same(t, error(other), classify(other))
}
