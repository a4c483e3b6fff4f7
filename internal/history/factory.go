package history

import (
	"fmt"
	"os"
	"path/filepath"

	"afterglow/internal/config"
)

// DatabaseFile is the history database name inside the data directory.
const DatabaseFile = "history.db"

// NewLogFromConfig creates a Log based on the history config type.
func NewLogFromConfig(cfg config.HistoryConfig) (Log, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite history")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating history data directory: %w", err)
		}
		return open(filepath.Join(cfg.DataDir, DatabaseFile))
	case "memory", "":
		return open(":memory:")
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}

func open(path string) (Log, error) {
	l, err := NewSQLiteLog(path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return l, nil
}
