package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"afterglow/internal/config"
)

func newTestLog(t *testing.T) *SQLiteLog {
	t.Helper()

	l, err := NewSQLiteLog(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteLog() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

var t0 = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func TestSQLiteLog_StartFinish(t *testing.T) {
	l := newTestLog(t)

	id, err := l.Start("plan-1", "site/", t0)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ops, err := l.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("List() returned %d operations, want 1", len(ops))
	}
	if ops[0].Status != StatusRunning {
		t.Errorf("Status = %q, want running", ops[0].Status)
	}
	if !ops[0].FinishedAt.IsZero() {
		t.Errorf("FinishedAt = %v, want zero", ops[0].FinishedAt)
	}

	err = l.Finish(id, t0.Add(time.Minute), Outcome{Status: StatusSuccess, Uploaded: 3, Deleted: 1, Unchanged: 7})
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err = l.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := ops[0]
	if got.ID != id || got.PlanID != "plan-1" || got.RemoteRoot != "site/" {
		t.Errorf("identity = (%d, %q, %q), want (%d, plan-1, site/)", got.ID, got.PlanID, got.RemoteRoot, id)
	}
	if got.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", got.Status)
	}
	if got.Uploaded != 3 || got.Deleted != 1 || got.Unchanged != 7 {
		t.Errorf("counts = (%d, %d, %d), want (3, 1, 7)", got.Uploaded, got.Deleted, got.Unchanged)
	}
	if !got.StartedAt.Equal(t0) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, t0)
	}
	if !got.FinishedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, t0.Add(time.Minute))
	}
}

func TestSQLiteLog_FinishWithError(t *testing.T) {
	l := newTestLog(t)

	id, err := l.Start("plan-err", "", t0)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := l.Finish(id, t0, Outcome{Status: StatusError, Uploaded: 1, Err: errors.New("put a.jpg: access denied")}); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err := l.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ops[0].Status != StatusError {
		t.Errorf("Status = %q, want error", ops[0].Status)
	}
	if ops[0].Error != "put a.jpg: access denied" {
		t.Errorf("Error = %q, want the recorded message", ops[0].Error)
	}
}

func TestSQLiteLog_FinishUnknownID(t *testing.T) {
	l := newTestLog(t)

	if err := l.Finish(42, t0, Outcome{Status: StatusSuccess}); err == nil {
		t.Error("Finish() expected error for unknown id, got nil")
	}
}

func TestSQLiteLog_ListNewestFirstWithLimit(t *testing.T) {
	l := newTestLog(t)

	for i, plan := range []string{"a", "b", "c"} {
		if _, err := l.Start(plan, "", t0.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Start(%s) error = %v", plan, err)
		}
	}

	ops, err := l.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("List(2) returned %d operations", len(ops))
	}
	if ops[0].PlanID != "c" || ops[1].PlanID != "b" {
		t.Errorf("List(2) = [%s %s], want [c b]", ops[0].PlanID, ops[1].PlanID)
	}
}

func TestSQLiteLog_CheckMigrations(t *testing.T) {
	l := newTestLog(t)

	if err := l.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
}

func TestSQLiteLog_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	l, err := NewSQLiteLog(path)
	if err != nil {
		t.Fatalf("NewSQLiteLog() error = %v", err)
	}
	if _, err := l.Start("plan-1", "", t0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	l.Close()

	l, err = NewSQLiteLog(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer l.Close()

	ops, err := l.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 1 || ops[0].PlanID != "plan-1" {
		t.Errorf("List() after reopen = %+v, want one plan-1 operation", ops)
	}
}

func TestNewLogFromConfig(t *testing.T) {
	t.Run("memory history", func(t *testing.T) {
		got, err := NewLogFromConfig(config.HistoryConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewLogFromConfig() error = %v", err)
		}
		got.Close()
	})

	t.Run("sqlite history", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		got, err := NewLogFromConfig(config.HistoryConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewLogFromConfig() error = %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dir, DatabaseFile)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite history without data_dir", func(t *testing.T) {
		got, err := NewLogFromConfig(config.HistoryConfig{Type: "sqlite"})
		if err == nil {
			t.Error("NewLogFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewLogFromConfig() should return nil on error")
		}
	})

	t.Run("unknown history type", func(t *testing.T) {
		got, err := NewLogFromConfig(config.HistoryConfig{Type: "postgres"})
		if err == nil {
			t.Error("NewLogFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewLogFromConfig() should return nil on error")
		}
	})
}
