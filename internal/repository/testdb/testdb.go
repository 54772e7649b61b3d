// Package testdb opens migrated in-memory SQLite stores for tests.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/romanzh1/practice-srs/internal/repository"
)

var seq atomic.Int64

// New returns a fresh store closed on test cleanup.
func New(t testing.TB) *repository.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := repository.NewDB(repository.DriverSQLite, dsn, 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Up())

	return db
}
