// Package db opens and manages the embedded reference-data store. Two
// backends are supported: a file-backed sqlite database for single-node
// deployments and postgres for shared ones. Callers write queries with ?
// placeholders and pass them through Rebind.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DB wraps the sql handle with the backend it was opened against.
type DB struct {
	*sql.DB
	backend string
}

// Open connects to the configured backend and verifies the connection.
// For sqlite the dsn is a file path; for postgres a connection URL.
func Open(ctx context.Context, backend, dsn string, maxConns, minConns int32) (*DB, error) {
	var driver string
	switch backend {
	case BackendSQLite:
		driver = "sqlite"
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			dsn = "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case BackendPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unknown database backend %q", backend)
	}

	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	handle.SetMaxOpenConns(int(maxConns))
	handle.SetMaxIdleConns(int(minConns))

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: handle, backend: backend}, nil
}

// Backend reports which backend the handle was opened against.
func (d *DB) Backend() string {
	return d.backend
}

// Rebind rewrites ? placeholders to the backend's native form. sqlite
// takes ? directly; postgres needs $1..$n.
func (d *DB) Rebind(query string) string {
	if d.backend != BackendPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
