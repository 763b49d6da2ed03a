package database

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"little-lemon/internal/store"
	"little-lemon/migrations"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "cart_lines_menuitem_id_user_id_key"}, store.ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503", ConstraintName: "cart_lines_user_id_fkey"}, store.ErrNotFound},
		{"numeric overflow", &pgconn.PgError{Code: "22003", Message: "numeric field overflow"}, store.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapErr(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, mapErr(other))

	check := &pgconn.PgError{Code: "23514"}
	got := mapErr(check)
	assert.NotErrorIs(t, got, store.ErrConflict)
	assert.NotErrorIs(t, got, store.ErrNotFound)
}

func TestGetMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"002_seed.sql":  {Data: []byte("SELECT 1;")},
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("docs")},
		"010_later.sql": {Data: []byte("SELECT 1;")},
	}

	files, err := getMigrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_seed.sql", "010_later.sql"}, files)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := getMigrationFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
}
