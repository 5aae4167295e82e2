// Package repository persists the session store across restarts. Sessions
// are loaded once at startup and written once at shutdown; a crash loses
// everything since the last successful dump.
package repository

import (
	"context"

	"github.com/set-night/telegpt/internal/domain"
)

// SessionDump loads and saves the full user-to-session mapping.
type SessionDump interface {
	Load(ctx context.Context) (map[int64]*domain.Session, error)
	Save(ctx context.Context, sessions map[int64]*domain.Session) error
	Close()
}
