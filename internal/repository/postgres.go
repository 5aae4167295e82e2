package repository

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/telegpt/internal/domain"
)

// PostgresDump persists sessions in Postgres. Save replaces the stored state
// wholesale inside one transaction, mirroring the dump-once model of the
// file backend.
type PostgresDump struct {
	pool *pgxpool.Pool
}

func NewPostgresDump(ctx context.Context, databaseURL string, migrationsFS fs.FS) (*PostgresDump, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(databaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresDump{pool: pool}, nil
}

func (d *PostgresDump) Load(ctx context.Context) (map[int64]*domain.Session, error) {
	sessions := make(map[int64]*domain.Session)

	rows, err := d.pool.Query(ctx,
		`SELECT user_id, mode, suspended, awaiting_context, system_context FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var mode string
		sess := &domain.Session{}
		if err := rows.Scan(&userID, &mode, &sess.Suspended, &sess.AwaitingContext, &sess.SystemContext); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Mode = domain.Mode(mode)
		sessions[userID] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}

	turnRows, err := d.pool.Query(ctx,
		`SELECT user_id, role, content FROM session_turns ORDER BY user_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer turnRows.Close()

	for turnRows.Next() {
		var userID int64
		var role, content string
		if err := turnRows.Scan(&userID, &role, &content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if sess, ok := sessions[userID]; ok {
			sess.History = append(sess.History, domain.Turn{Role: domain.Role(role), Content: content})
		}
	}
	if err := turnRows.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}

	return sessions, nil
}

func (d *PostgresDump) Save(ctx context.Context, sessions map[int64]*domain.Session) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// session_turns rows go with them via ON DELETE CASCADE.
	if _, err := tx.Exec(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	batch := &pgx.Batch{}
	for userID, sess := range sessions {
		batch.Queue(
			`INSERT INTO sessions (user_id, mode, suspended, awaiting_context, system_context) VALUES ($1, $2, $3, $4, $5)`,
			userID, string(sess.Mode), sess.Suspended, sess.AwaitingContext, sess.SystemContext)
		for i, turn := range sess.History {
			batch.Queue(
				`INSERT INTO session_turns (user_id, position, role, content) VALUES ($1, $2, $3, $4)`,
				userID, i, string(turn.Role), turn.Content)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (d *PostgresDump) Close() {
	d.pool.Close()
}
