package postgres

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesParseAsASource(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)

	first, err := src.First()
	require.NoError(t, err)

	_, _, err = src.ReadUp(first)
	require.NoError(t, err)
}
