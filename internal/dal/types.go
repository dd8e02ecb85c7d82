package dal

import (
	"context"
	"errors"
	"time"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// ErrNoSession is returned when there is no active draft session to restore
var ErrNoSession = errors.New("no active draft session")

// PickRecord is one accepted pick in a session's log
type PickRecord struct {
	PickNumber int         `json:"pickNumber"`
	PlayerID   string      `json:"playerId"`
	TeamID     int         `json:"teamId"`
	Slot       models.Slot `json:"slot"`
	DraftedAt  time.Time   `json:"draftedAt"`
}

// SessionRecord is a draft session's settings and its picks in order
type SessionRecord struct {
	ID              string                `json:"id"`
	Settings        models.LeagueSettings `json:"settings"`
	StrictTurnOrder bool                  `json:"strictTurnOrder"`
	CreatedAt       time.Time             `json:"createdAt"`
	Picks           []PickRecord          `json:"picks"`
}

// DraftDAL persists the pick log so a draft can be replayed after a restart.
// Saving a session makes it the only active one.
type DraftDAL interface {
	SaveSession(ctx context.Context, session SessionRecord) error
	AppendPick(ctx context.Context, sessionID string, pick PickRecord) error
	LoadActiveSession(ctx context.Context) (*SessionRecord, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
