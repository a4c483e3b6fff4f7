package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	for _, table := range []string{"publish_operations", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestCheckStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckStatus(db)
	if !errors.Is(err, ErrNeedsMigration) {
		t.Errorf("CheckStatus() error = %v, want ErrNeedsMigration", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() error = %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() error = %v", err)
	}
	if err := CheckStatus(db); err != nil {
		t.Errorf("CheckStatus() after double migration error = %v", err)
	}
}

func TestSchema_Defaults(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	_, err := db.Exec("INSERT INTO publish_operations (plan_id, started_at) VALUES ('plan-1', datetime('now'))")
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	var status, errText string
	var uploaded int
	err = db.QueryRow("SELECT status, uploaded, error FROM publish_operations WHERE plan_id = 'plan-1'").
		Scan(&status, &uploaded, &errText)
	if err != nil {
		t.Fatalf("select error = %v", err)
	}
	if status != "running" || uploaded != 0 || errText != "" {
		t.Errorf("defaults = (%q, %d, %q), want (running, 0, \"\")", status, uploaded, errText)
	}
}

func TestSchema_PlanIDRequired(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	_, err := db.Exec("INSERT INTO publish_operations (started_at) VALUES (datetime('now'))")
	if err == nil {
		t.Error("expected NOT NULL violation for missing plan_id, insert succeeded")
	}
}

// openTestDB opens a single-connection in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
