package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MinDraftsForADP is how many recorded picks a player needs before the
// history produces an ADP for them
const MinDraftsForADP = 3

// HistoryWindow bounds which recorded picks feed the historical ADP
const HistoryWindow = 365 * 24 * time.Hour

// PickEvent is one drafted player as recorded for ADP history
type PickEvent struct {
	SessionID  string
	PlayerID   string
	Position   models.Position
	TeamID     int
	PickNumber int
	Round      int
	DraftedAt  time.Time
}

// ADPHistory stores completed picks and aggregates them into an average
// draft position per player
type ADPHistory interface {
	RecordPick(ctx context.Context, pick PickEvent) error
	GetHistoricalADP(ctx context.Context, playerID string) (float64, bool, error)
	GetAllHistoricalADP(ctx context.Context) (map[string]float64, error)
	SyncADP(ctx context.Context, updateFunc func(playerID string, adp float64) error) error
	Close() error
}

// Client provides ClickHouse-backed ADP history
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	c := &Client{conn: conn}
	if err := c.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// EnsureSchema creates the pick history table
func (c *Client) EnsureSchema(ctx context.Context) error {
	err := c.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS draft_pick_history (
			session_id  String,
			player_id   String,
			position    LowCardinality(String),
			team_id     Int32,
			pick_number Int32,
			round       Int32,
			drafted_at  DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (player_id, drafted_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create ClickHouse schema: %w", err)
	}
	return nil
}

// RecordPick appends a pick to the history table
func (c *Client) RecordPick(ctx context.Context, pick PickEvent) error {
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO draft_pick_history")
	if err != nil {
		return fmt.Errorf("failed to prepare pick batch: %w", err)
	}

	err = batch.Append(
		pick.SessionID,
		pick.PlayerID,
		string(pick.Position),
		int32(pick.TeamID),
		int32(pick.PickNumber),
		int32(pick.Round),
		pick.DraftedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append pick %d: %w", pick.PickNumber, err)
	}

	return batch.Send()
}

// GetHistoricalADP returns the average pick number of a player over the
// history window. The bool is false when fewer than MinDraftsForADP picks exist.
func (c *Client) GetHistoricalADP(ctx context.Context, playerID string) (float64, bool, error) {
	var (
		adp   float64
		count uint64
	)

	query := `
		SELECT
			avg(pick_number) AS adp,
			count() AS drafts
		FROM draft_pick_history
		WHERE player_id = $1
		AND drafted_at >= $2
	`

	row := c.conn.QueryRow(ctx, query, playerID, time.Now().Add(-HistoryWindow))
	if err := row.Scan(&adp, &count); err != nil {
		return 0, false, err
	}
	if count < MinDraftsForADP {
		return 0, false, nil
	}
	return adp, true, nil
}

// GetAllHistoricalADP returns the historical ADP of every player with
// enough recorded picks
func (c *Client) GetAllHistoricalADP(ctx context.Context) (map[string]float64, error) {
	adps := make(map[string]float64)

	query := `
		SELECT
			player_id,
			avg(pick_number) AS adp
		FROM draft_pick_history
		WHERE drafted_at >= $1
		GROUP BY player_id
		HAVING count() >= $2
	`

	rows, err := c.conn.Query(ctx, query, time.Now().Add(-HistoryWindow), MinDraftsForADP)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			adp float64
		)
		if err := rows.Scan(&id, &adp); err != nil {
			return nil, err
		}
		adps[id] = adp
	}

	return adps, rows.Err()
}

// SyncADP pushes every historical ADP into updateFunc
func (c *Client) SyncADP(ctx context.Context, updateFunc func(playerID string, adp float64) error) error {
	all, err := c.GetAllHistoricalADP(ctx)
	if err != nil {
		return err
	}

	for playerID, adp := range all {
		if err := updateFunc(playerID, adp); err != nil {
			return fmt.Errorf("failed to update ADP for %s: %w", playerID, err)
		}
	}

	return nil
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
