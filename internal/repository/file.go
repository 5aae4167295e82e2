package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/set-night/telegpt/internal/domain"
)

// FileDump persists sessions as a JSON file. A missing file on load is not
// an error: the bot starts with an empty store.
type FileDump struct {
	path string
}

func NewFileDump(path string) *FileDump {
	return &FileDump{path: path}
}

func (d *FileDump) Load(ctx context.Context) (map[int64]*domain.Session, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("session file not found, starting with an empty store", "path", d.path)
			return map[int64]*domain.Session{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	sessions := make(map[int64]*domain.Session)
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return sessions, nil
}

// Save writes the sessions to a temp file and renames it into place, so a
// crash mid-write never corrupts the previous dump.
func (d *FileDump) Save(ctx context.Context, sessions map[int64]*domain.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	slog.Info("sessions dumped", "path", filepath.Clean(d.path), "count", len(sessions))
	return nil
}

func (d *FileDump) Close() {}
