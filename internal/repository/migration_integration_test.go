//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetupbot/meetupbot/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_SubmissionsTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)
	if err := testutil.ResetSubmissionsSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	expectedColumns := []string{
		"id",
		"issue_number",
		"issue_url",
		"shape",
		"source",
		"title",
		"organizer",
		"meetup_date",
		"body",
		"failed_fields",
		"labels",
		"created_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "submissions", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in submissions table", col)
			}
		})
	}

	for _, idx := range []string{"idx_submissions_issue_number", "idx_submissions_created_at"} {
		exists, err := indexExists(ctx, pool, idx)
		if err != nil {
			t.Fatalf("indexExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Index %q should exist", idx)
		}
	}
}

func TestIntegrationMigration_ShapeConstraint(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)
	if err := testutil.ResetSubmissionsSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	_, err := pool.Exec(ctx, `INSERT INTO submissions (id, shape, source) VALUES ('01HX', 'carrier-pigeon', 'web')`)
	if err == nil {
		t.Error("inserting an unknown shape should violate the check constraint")
	}
}

func TestIntegrationMigration_RollbackSubmissions(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Apply down migration
	if _, err := pool.Exec(ctx, readMigration(t, "000001_submissions.down.sql")); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}

	exists, err := tableExists(ctx, pool, "submissions")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("submissions table should not exist after rollback")
	}

	// Re-apply up migration for cleanup
	if _, err := pool.Exec(ctx, readMigration(t, "000001_submissions.up.sql")); err != nil {
		t.Fatalf("reapply up migration: %v", err)
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	up := readMigration(t, "000001_submissions.up.sql")
	for i := 0; i < 2; i++ {
		if _, err := pool.Exec(ctx, up); err != nil {
			t.Fatalf("apply %d should not fail: %v", i+1, err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func readMigration(t *testing.T, name string) string {
	t.Helper()
	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}
	sql, err := os.ReadFile(filepath.Join(root, "migrations", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(sql)
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

func indexExists(ctx context.Context, pool *pgxpool.Pool, indexName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM pg_indexes
			WHERE schemaname = 'public'
			AND indexname = $1
		)
	`, indexName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	return ctx, pool
}
