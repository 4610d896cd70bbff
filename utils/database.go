package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tablejack/models"
)

// Store wraps the Postgres pool behind the credit/statistics/event contracts
// the game engine consumes. A Store built without a DATABASE_URL runs with a
// nil pool and serves in-memory defaults so the server stays playable.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewStore initializes the connection pool and ensures the schema exists.
// An empty databaseURL yields a poolless store.
func NewStore(ctx context.Context, databaseURL string, log *zap.Logger) (*Store, error) {
	s := &Store{log: log}
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, running without persistence")
		return s, nil
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 20
	config.MinConns = 4
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "tablejack",
		"timezone":         "UTC",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	s.pool = pool
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		credits BIGINT NOT NULL DEFAULT 0,
		earnings BIGINT NOT NULL DEFAULT 0,
		losses BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_credits ON users(credits DESC, user_id);

	CREATE TABLE IF NOT EXISTS game_events (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		group_uid TEXT NOT NULL,
		action TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT '',
		round INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_game_events_group ON game_events(group_uid, round);
	CREATE INDEX IF NOT EXISTS idx_game_events_user ON game_events(user_id);`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// RetrieveCredits returns the stored balance for a user, creating the
// account row with the starting balance on first sight.
func (s *Store) RetrieveCredits(ctx context.Context, userID, name string) (int64, error) {
	if s.pool == nil {
		return StartingCredits, nil
	}

	var credits int64
	err := s.pool.QueryRow(ctx, `SELECT credits FROM users WHERE user_id = $1`, userID).Scan(&credits)
	if err == nil {
		return credits, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (user_id, name, credits) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, name, StartingCredits)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return StartingCredits, nil
}

// UpdateCredits overwrites a user's stored balance with the in-memory value.
func (s *Store) UpdateCredits(ctx context.Context, userID string, credits int64) error {
	if s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE users SET credits = $2 WHERE user_id = $1`, userID, credits)
	if err != nil {
		return fmt.Errorf("failed to update credits: %w", err)
	}
	return nil
}

// UpdateStatistics adds a round's earnings and losses to the cumulative
// counters.
func (s *Store) UpdateStatistics(ctx context.Context, userID string, earnings, losses int64) error {
	if s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET earnings = earnings + $2, losses = losses + $3 WHERE user_id = $1`,
		userID, earnings, losses)
	if err != nil {
		return fmt.Errorf("failed to update statistics: %w", err)
	}
	return nil
}

// SaveEvent appends one row to the durable action log.
func (s *Store) SaveEvent(ctx context.Context, ev models.GameEvent) error {
	if s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_events (user_id, group_uid, action, result, payload, round)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.UserID, ev.GroupUID, ev.Action, ev.Result, ev.Payload, ev.Round)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// Leaderboard returns the top accounts by credits.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, name, credits, earnings, losses, created_at
		 FROM users ORDER BY credits DESC, user_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.Name, &u.Credits, &u.Earnings, &u.Losses, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
