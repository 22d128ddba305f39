// Package testutil provides the in-memory database harness shared by the
// service test suites.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veyronhq/reqforge/internal/db"
	"github.com/veyronhq/reqforge/internal/db/repository"
)

var dbCounter int64

// NewDB opens a fresh in-memory SQLite database with the full schema
// applied. Each call gets its own namespace so parallel tests never share
// state.
func NewDB(t *testing.T) (*sql.DB, *repository.Queries) {
	t.Helper()

	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_fk=1", atomic.AddInt64(&dbCounter, 1))
	conn, err := sql.Open("sqlite3", name)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	// A single connection keeps the shared-cache memory database alive for
	// the duration of the test.
	conn.SetMaxOpenConns(1)

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn, repository.New(conn)
}

// SeedUser inserts a user row.
func SeedUser(t *testing.T, queries *repository.Queries, id, username string) {
	t.Helper()
	_, err := queries.CreateLocalUser(context.Background(), repository.CreateLocalUserParams{
		ID:       id,
		Username: username,
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// GrantPermission assigns a permission flag to a user.
func GrantPermission(t *testing.T, queries *repository.Queries, userID, flag string) {
	t.Helper()
	if err := queries.AssignUserPermission(context.Background(), repository.AssignUserPermissionParams{
		UserID:       userID,
		PermissionID: flag,
	}); err != nil {
		t.Fatalf("failed to grant %s to %s: %v", flag, userID, err)
	}
}

// SeedInstance inserts an enabled arr_services row.
func SeedInstance(t *testing.T, queries *repository.Queries, arg repository.CreateArrServiceParams) {
	t.Helper()
	if arg.QualityTier == "" {
		arg.QualityTier = "standard"
	}
	arg.Enabled = true
	if err := queries.CreateArrService(context.Background(), arg); err != nil {
		t.Fatalf("failed to seed instance %s: %v", arg.Name, err)
	}
}
