package dal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDAL implements DraftDAL using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute) // recycle connections across failovers
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Retry for Kubernetes DNS propagation delays
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := &PostgresDAL{db: db}

	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS draft_sessions (
		id TEXT PRIMARY KEY,
		settings JSONB NOT NULL,
		strict_turn_order BOOLEAN NOT NULL DEFAULT true,
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS draft_picks (
		session_id TEXT NOT NULL REFERENCES draft_sessions(id) ON DELETE CASCADE,
		pick_number INTEGER NOT NULL,
		player_id TEXT NOT NULL,
		team_id INTEGER NOT NULL,
		slot TEXT NOT NULL,
		drafted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (session_id, pick_number),
		UNIQUE (session_id, player_id)
	);

	CREATE INDEX IF NOT EXISTS idx_draft_sessions_active ON draft_sessions(active) WHERE active;
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}

func (p *PostgresDAL) SaveSession(ctx context.Context, session SessionRecord) error {
	settings, err := encodeSettings(session.Settings)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE draft_sessions SET active = false WHERE active`); err != nil {
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draft_sessions (id, settings, strict_turn_order, active, created_at)
		VALUES ($1, $2::jsonb, $3, true, $4)
	`, session.ID, settings, session.StrictTurnOrder, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, pick := range session.Picks {
		if err := insertPickPostgres(ctx, tx, session.ID, pick); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresDAL) AppendPick(ctx context.Context, sessionID string, pick PickRecord) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPickPostgres(ctx, tx, sessionID, pick); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPickPostgres(ctx context.Context, tx *sql.Tx, sessionID string, pick PickRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO draft_picks (session_id, pick_number, player_id, team_id, slot, drafted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sessionID, pick.PickNumber, pick.PlayerID, pick.TeamID, string(pick.Slot), pick.DraftedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pick %d: %w", pick.PickNumber, err)
	}
	return nil
}

func (p *PostgresDAL) LoadActiveSession(ctx context.Context) (*SessionRecord, error) {
	var (
		session  SessionRecord
		settings string
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, settings::text, strict_turn_order, created_at
		FROM draft_sessions
		WHERE active
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&session.ID, &settings, &session.StrictTurnOrder, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	if session.Settings, err = decodeSettings(settings); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT pick_number, player_id, team_id, slot, drafted_at
		FROM draft_picks
		WHERE session_id = $1
		ORDER BY pick_number
	`, session.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	session.Picks = []PickRecord{}
	for rows.Next() {
		var (
			pick PickRecord
			slot string
		)
		if err := rows.Scan(&pick.PickNumber, &pick.PlayerID, &pick.TeamID, &slot, &pick.DraftedAt); err != nil {
			return nil, err
		}
		pick.Slot = slotOf(slot)
		session.Picks = append(session.Picks, pick)
	}

	return &session, rows.Err()
}

func (p *PostgresDAL) Reset(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `UPDATE draft_sessions SET active = false WHERE active`)
	return err
}

func (p *PostgresDAL) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
