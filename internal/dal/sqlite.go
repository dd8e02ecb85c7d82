package dal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDAL implements DraftDAL using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	dal := &SQLiteDAL{db: db}

	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS draft_sessions (
		id TEXT PRIMARY KEY,
		settings TEXT NOT NULL,
		strict_turn_order INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS draft_picks (
		session_id TEXT NOT NULL,
		pick_number INTEGER NOT NULL,
		player_id TEXT NOT NULL,
		team_id INTEGER NOT NULL,
		slot TEXT NOT NULL,
		drafted_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, pick_number),
		UNIQUE (session_id, player_id),
		FOREIGN KEY (session_id) REFERENCES draft_sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_draft_sessions_active ON draft_sessions(active);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteDAL) SaveSession(ctx context.Context, session SessionRecord) error {
	settings, err := encodeSettings(session.Settings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE draft_sessions SET active = 0 WHERE active = 1`); err != nil {
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draft_sessions (id, settings, strict_turn_order, active, created_at)
		VALUES (?, ?, ?, 1, ?)
	`, session.ID, settings, boolToInt(session.StrictTurnOrder), session.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, p := range session.Picks {
		if err := insertPickSQLite(ctx, tx, session.ID, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteDAL) AppendPick(ctx context.Context, sessionID string, pick PickRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPickSQLite(ctx, tx, sessionID, pick); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPickSQLite(ctx context.Context, tx *sql.Tx, sessionID string, p PickRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO draft_picks (session_id, pick_number, player_id, team_id, slot, drafted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, p.PickNumber, p.PlayerID, p.TeamID, string(p.Slot), p.DraftedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert pick %d: %w", p.PickNumber, err)
	}
	return nil
}

func (s *SQLiteDAL) LoadActiveSession(ctx context.Context) (*SessionRecord, error) {
	var (
		session   SessionRecord
		settings  string
		strict    int
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, settings, strict_turn_order, created_at
		FROM draft_sessions
		WHERE active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&session.ID, &settings, &strict, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	if session.Settings, err = decodeSettings(settings); err != nil {
		return nil, err
	}
	session.StrictTurnOrder = strict == 1
	session.CreatedAt = time.UnixMilli(createdAt).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT pick_number, player_id, team_id, slot, drafted_at
		FROM draft_picks
		WHERE session_id = ?
		ORDER BY pick_number
	`, session.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	session.Picks = []PickRecord{}
	for rows.Next() {
		var (
			p         PickRecord
			slot      string
			draftedAt int64
		)
		if err := rows.Scan(&p.PickNumber, &p.PlayerID, &p.TeamID, &slot, &draftedAt); err != nil {
			return nil, err
		}
		p.Slot = slotOf(slot)
		p.DraftedAt = time.UnixMilli(draftedAt).UTC()
		session.Picks = append(session.Picks, p)
	}

	return &session, rows.Err()
}

func (s *SQLiteDAL) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE draft_sessions SET active = 0 WHERE active = 1`)
	return err
}

func (s *SQLiteDAL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}
