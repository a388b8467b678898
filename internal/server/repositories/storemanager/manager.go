// Package storemanager selects and wires a storage backend: PostgreSQL when
// a DSN is configured, the flat-file store otherwise.
package storemanager

import (
	"context"

	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
)

// Manager vends the repositories of one storage backend and owns its
// underlying resources (connection pool or file lock).
type Manager interface {
	Accounts() accounts.Repository
	Tasks() tasks.Repository
	Close() error
}

// New picks the backend by DSN: empty means the flat-file store under
// dataDir, anything else is treated as a PostgreSQL DSN.
func New(ctx context.Context, dsn, dataDir string) (Manager, error) {
	if dsn == "" {
		return NewFileManager(dataDir)
	}
	return NewPostgresManager(ctx, dsn)
}
