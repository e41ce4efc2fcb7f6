// FilePath: internal/repository/memory/memory.go

// Package memory provides in-process implementations of the repository
// interfaces. Used by tests and by the "memory" storage backend for
// development setups without a database.
package memory

import (
	"context"
	"database/sql"

	"github.com/aquasense/hub/internal/database"
)

// noopTx satisfies database.Transaction for the in-memory stores, which
// apply every mutation immediately.
type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
func (noopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

var _ database.Transaction = noopTx{}
