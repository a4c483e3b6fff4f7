package history

import (
	"database/sql"
	"fmt"
	"time"

	"afterglow/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteLog implements Log on a SQLite database.
type SQLiteLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteLog opens the database at path (or ":memory:") and migrates it
// to the latest schema.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteLog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database is private to its connection,
	// and the CLI never writes concurrently.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (l *SQLiteLog) Start(planID, remoteRoot string, at time.Time) (int64, error) {
	res, err := l.db.Exec(
		`INSERT INTO publish_operations (plan_id, remote_root, started_at, status) VALUES (?, ?, ?, ?)`,
		planID, remoteRoot, at.UTC(), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("starting publish operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading publish operation id: %w", err)
	}
	return id, nil
}

func (l *SQLiteLog) Finish(id int64, at time.Time, out Outcome) error {
	var errText string
	if out.Err != nil {
		errText = out.Err.Error()
	}

	res, err := l.db.Exec(
		`UPDATE publish_operations
		 SET finished_at = ?, status = ?, uploaded = ?, deleted = ?, unchanged = ?, error = ?
		 WHERE id = ?`,
		at.UTC(), string(out.Status), out.Uploaded, out.Deleted, out.Unchanged, errText, id,
	)
	if err != nil {
		return fmt.Errorf("finishing publish operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing publish operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing publish operation: no operation with id %d", id)
	}
	return nil
}

func (l *SQLiteLog) List(limit int) ([]Operation, error) {
	rows, err := l.db.Query(
		`SELECT id, plan_id, remote_root, started_at, finished_at, status, uploaded, deleted, unchanged, error
		 FROM publish_operations
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing publish operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.PlanID, &op.RemoteRoot, &op.StartedAt, &finished,
			&status, &op.Uploaded, &op.Deleted, &op.Unchanged, &op.Error); err != nil {
			return nil, fmt.Errorf("scanning publish operation: %w", err)
		}
		op.Status = Status(status)
		if finished.Valid {
			op.FinishedAt = finished.Time
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing publish operations: %w", err)
	}
	return ops, nil
}

// Path returns the database location this log was opened with.
func (l *SQLiteLog) Path() string {
	return l.path
}

// CheckMigrations reports whether the schema is current.
func (l *SQLiteLog) CheckMigrations() error {
	return migrations.CheckStatus(l.db)
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

var _ Log = (*SQLiteLog)(nil)
