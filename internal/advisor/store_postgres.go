package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed SessionStore. Context and history
// are stored as jsonb so the selection state round-trips without a schema
// change every time the conversation model grows a field.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Schema returns the DDL the store expects. Applied by the operator or by
// integration tests, never automatically in production.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS sessions (
    id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id    text NOT NULL,
    context    jsonb NOT NULL DEFAULT '{}'::jsonb,
    history    jsonb NOT NULL DEFAULT '[]'::jsonb,
    started_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now(),
    ended_at   timestamptz
);
CREATE INDEX IF NOT EXISTS sessions_user_active
    ON sessions (user_id, started_at DESC)
    WHERE ended_at IS NULL;

CREATE TABLE IF NOT EXISTS events (
    id         bigserial PRIMARY KEY,
    session_id uuid NOT NULL REFERENCES sessions(id),
    user_id    text NOT NULL,
    event_type text NOT NULL,
    data       jsonb NOT NULL DEFAULT '{}'::jsonb,
    created_at timestamptz NOT NULL DEFAULT now()
);
`
}

func (s *PostgresStore) GetOrCreate(userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	sess, err := s.scanSession(s.pool.QueryRow(ctx,
		`SELECT id::text, user_id, context, history, started_at, updated_at, ended_at
		 FROM sessions
		 WHERE user_id = $1 AND ended_at IS NULL
		 ORDER BY started_at DESC
		 LIMIT 1`,
		userID,
	))
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	sess = &Session{UserID: userID}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id)
		 VALUES ($1)
		 RETURNING id::text, started_at, updated_at`,
		userID,
	).Scan(&sess.ID, &sess.StartedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Get(id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	sess, err := s.scanSession(s.pool.QueryRow(ctx,
		`SELECT id::text, user_id, context, history, started_at, updated_at, ended_at
		 FROM sessions
		 WHERE id = $1::uuid
		 LIMIT 1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Save(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id is required")
	}

	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	history := sess.History
	if history == nil {
		history = []ChatTurn{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET context = $2::jsonb, history = $3::jsonb, updated_at = now()
		 WHERE id = $1::uuid`,
		sess.ID,
		string(contextJSON),
		string(historyJSON),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

func (s *PostgresStore) End(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET ended_at = now()
		 WHERE id = $1::uuid AND ended_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("session not found or already ended: %s", id)
	}
	return nil
}

func (s *PostgresStore) scanSession(row pgx.Row) (*Session, error) {
	sess := &Session{}
	var contextBytes, historyBytes []byte
	var endedAt *time.Time

	if err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&contextBytes,
		&historyBytes,
		&sess.StartedAt,
		&sess.UpdatedAt,
		&endedAt,
	); err != nil {
		return nil, err
	}

	if len(contextBytes) > 0 {
		if err := json.Unmarshal(contextBytes, &sess.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}
	if len(historyBytes) > 0 {
		if err := json.Unmarshal(historyBytes, &sess.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	sess.EndedAt = endedAt
	return sess, nil
}
