package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/catalog"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/clickhouse"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/dal"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/recommend"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/roster"
)

// PickRecorder receives every accepted pick for ADP history
type PickRecorder interface {
	RecordPick(ctx context.Context, pick clickhouse.PickEvent) error
}

// PickResult is returned from a successful pick
type PickResult struct {
	Snapshot        *models.DraftSnapshot `json:"state"`
	Pick            models.DraftedPlayer  `json:"pick"`
	IsDraftComplete bool                  `json:"isDraftComplete"`
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithStore persists sessions and picks so a restart can replay them
func WithStore(store dal.DraftDAL) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithPublisher broadcasts draft events
func WithPublisher(p pubsub.Publisher) SessionOption {
	return func(s *Session) { s.events = p }
}

// WithPickRecorder records accepted picks
func WithPickRecorder(r PickRecorder) SessionOption {
	return func(s *Session) { s.history = r }
}

// WithEngine replaces the default recommendation engine
func WithEngine(e *recommend.Engine) SessionOption {
	return func(s *Session) { s.engine = e }
}

// WithLenientTurns makes new drafts accept picks from any team
func WithLenientTurns() SessionOption {
	return func(s *Session) { s.strict = false }
}

// Session owns the active draft and serialises every mutation of it
type Session struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	state   *DraftState
	id      string
	strict  bool

	engine  *recommend.Engine
	store   dal.DraftDAL
	events  pubsub.Publisher
	history PickRecorder
}

// NewSession creates an uninitialised session drafting from cat
func NewSession(cat *catalog.Catalog, opts ...SessionOption) *Session {
	s := &Session{
		catalog: cat,
		strict:  true,
		engine:  recommend.NewEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize starts a new draft, replacing any draft in progress
func (s *Session) Initialize(ctx context.Context, settings models.LeagueSettings) (*models.DraftSnapshot, error) {
	var opts []Option
	if !s.strict {
		opts = append(opts, WithLenientTurnOrder())
	}
	state, err := NewDraftState(settings, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if s.store != nil {
		record := dal.SessionRecord{
			ID:              id,
			Settings:        settings,
			StrictTurnOrder: s.strict,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.store.SaveSession(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist draft session: %w", err)
		}
	}

	s.state = state
	s.id = id
	logger.Info("Draft initialized", "session_id", id, "teams", settings.TeamCount, "roster_size", settings.RosterSize)

	snap := s.snapshotLocked()
	s.publish(pubsub.EventDraftInitialized, map[string]interface{}{
		"teamCount":  settings.TeamCount,
		"rosterSize": settings.RosterSize,
	})
	return snap, nil
}

// DraftPlayer assigns a catalog player to a team. On error nothing changes.
func (s *Session) DraftPlayer(ctx context.Context, playerID string, teamID int) (*PickResult, error) {
	draftedAt := time.Now().UTC()
	result, sessionID, err := s.commitPick(ctx, playerID, teamID, draftedAt)
	if err != nil {
		return nil, err
	}
	pick := result.Pick

	logger.Info("Player drafted",
		"session_id", sessionID,
		"pick", pick.PickNumber,
		"player", pick.FullName,
		"team_id", pick.TeamID,
		"slot", pick.Slot,
	)

	if s.history != nil {
		event := clickhouse.PickEvent{
			SessionID:  sessionID,
			PlayerID:   pick.ID,
			Position:   pick.Position,
			TeamID:     pick.TeamID,
			PickNumber: pick.PickNumber,
			Round:      RoundForPick(pick.PickNumber, result.Snapshot.Settings.TeamCount),
			DraftedAt:  draftedAt,
		}
		if err := s.history.RecordPick(ctx, event); err != nil {
			logger.Warn("Failed to record pick history", "error", err, "pick", pick.PickNumber)
		}
	}

	return result, nil
}

// commitPick applies, persists and announces a pick while holding the write lock.
// Events go out before the lock is released so subscribers see picks in order.
func (s *Session) commitPick(ctx context.Context, playerID string, teamID int, draftedAt time.Time) (*PickResult, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, "", ErrNotInitialized
	}
	if s.state.IsComplete() {
		return nil, "", ErrDraftAlreadyComplete
	}

	player, ok := s.catalog.Get(playerID)
	if !ok {
		return nil, "", fmt.Errorf("player %s: %w", playerID, ErrUnknownPlayer)
	}

	next := s.state.Clone()
	pick, complete, err := next.DraftPlayer(player, teamID)
	if err != nil {
		return nil, "", err
	}

	if s.store != nil {
		record := dal.PickRecord{
			PickNumber: pick.PickNumber,
			PlayerID:   pick.ID,
			TeamID:     pick.TeamID,
			Slot:       pick.Slot,
			DraftedAt:  draftedAt,
		}
		if err := s.store.AppendPick(ctx, s.id, record); err != nil {
			return nil, "", fmt.Errorf("failed to persist pick %d: %w", pick.PickNumber, err)
		}
	}

	s.state = next
	result := &PickResult{
		Snapshot:        s.snapshotLocked(),
		Pick:            pick,
		IsDraftComplete: complete,
	}
	s.publish(pubsub.EventDraftPick, map[string]interface{}{
		"pickNumber":      pick.PickNumber,
		"playerId":        pick.ID,
		"playerName":      pick.FullName,
		"position":        string(pick.Position),
		"teamId":          pick.TeamID,
		"slot":            string(pick.Slot),
		"isDraftComplete": complete,
	})
	if complete {
		s.publish(pubsub.EventDraftComplete, nil)
	}
	return result, s.id, nil
}

// CurrentTeamID returns the team on the clock
func (s *Session) CurrentTeamID() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return 0, ErrNotInitialized
	}
	return s.state.CurrentTeamID()
}

// Recommend ranks undrafted players for a team
func (s *Session) Recommend(teamID, topN int) ([]models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, ErrNotInitialized
	}
	team, err := s.state.TeamPlayers(teamID)
	if err != nil {
		return nil, err
	}

	available := s.catalog.Filter(func(p models.Player) bool {
		return !s.state.IsDrafted(p.ID)
	})
	return s.engine.Recommend(available, team, s.state.Settings(), topN)
}

// Need returns the positional need map of a team
func (s *Session) Need(teamID int) (recommend.Need, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, ErrNotInitialized
	}
	team, err := s.state.TeamPlayers(teamID)
	if err != nil {
		return nil, err
	}
	return recommend.CalculateNeed(team, s.state.Settings()), nil
}

// TeamRoster returns a team's players grouped by slot
func (s *Session) TeamRoster(teamID int) (map[models.Slot][]models.DraftedPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, ErrNotInitialized
	}
	team, err := s.state.TeamPlayers(teamID)
	if err != nil {
		return nil, err
	}
	return roster.BySlot(team), nil
}

// Reset discards the active draft
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset draft store: %w", err)
		}
	}

	s.publish(pubsub.EventDraftReset, nil)
	logger.Info("Draft reset", "session_id", s.id)
	s.state = nil
	s.id = ""
	return nil
}

// State returns a deep copy of the active draft
func (s *Session) State() (*models.DraftSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, ErrNotInitialized
	}
	return s.snapshotLocked(), nil
}

// Settings returns the league settings of the active draft
func (s *Session) Settings() (models.LeagueSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return models.LeagueSettings{}, ErrNotInitialized
	}
	return s.state.Settings(), nil
}

// Catalog returns the player pool
func (s *Session) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// ApplyAlternateADP records an extra ADP source on every matching catalog player
func (s *Session) ApplyAlternateADP(source string, adp map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = s.catalog.WithAlternateADP(source, adp)
}

// Restore replays the active session from the store. With nothing stored
// the session stays uninitialised.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	record, err := s.store.LoadActiveSession(ctx)
	if errors.Is(err, dal.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load draft session: %w", err)
	}

	var opts []Option
	if !record.StrictTurnOrder {
		opts = append(opts, WithLenientTurnOrder())
	}
	state, err := NewDraftState(record.Settings, opts...)
	if err != nil {
		return fmt.Errorf("stored session %s: %w", record.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range record.Picks {
		if p.PickNumber != state.CurrentPick() {
			return fmt.Errorf("stored session %s: pick %d recorded out of sequence", record.ID, p.PickNumber)
		}
		player, ok := s.catalog.Get(p.PlayerID)
		if !ok {
			return fmt.Errorf("stored session %s: player %s: %w", record.ID, p.PlayerID, ErrUnknownPlayer)
		}
		if _, _, err := state.DraftPlayer(player, p.TeamID); err != nil {
			return fmt.Errorf("stored session %s: replaying pick %d: %w", record.ID, p.PickNumber, err)
		}
	}

	s.state = state
	s.id = record.ID
	logger.Info("Draft restored", "session_id", record.ID, "picks", len(record.Picks))
	return nil
}

func (s *Session) snapshotLocked() *models.DraftSnapshot {
	snap := s.state.Snapshot()
	snap.SessionID = s.id
	return snap
}

func (s *Session) publish(eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(pubsub.NewEvent(eventType, s.id, payload))
}
