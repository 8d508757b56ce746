package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for range postgisSchema {
		mock.ExpectExec(".+").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_StopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))

	err = EnsureSchema(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSQLiteSchema_Idempotent(t *testing.T) {
	sqldb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer sqldb.Close()

	ctx := context.Background()
	require.NoError(t, EnsureSQLiteSchema(ctx, sqldb))
	require.NoError(t, EnsureSQLiteSchema(ctx, sqldb))

	var fk int
	require.NoError(t, sqldb.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}
