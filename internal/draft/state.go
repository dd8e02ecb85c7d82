package draft

import (
	"fmt"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/roster"
)

// Phase is the lifecycle stage of a draft
type Phase string

const (
	PhaseAwaitingFirstPick Phase = "AWAITING_FIRST_PICK"
	PhaseInProgress        Phase = "IN_PROGRESS"
	PhaseComplete          Phase = "COMPLETE"
)

// Option configures a DraftState
type Option func(*DraftState)

// WithLenientTurnOrder accepts picks from any existing team regardless of whose turn it is
func WithLenientTurnOrder() Option {
	return func(d *DraftState) {
		d.strict = false
	}
}

// DraftState is the turn-order state machine for a single snake draft.
// It is not safe for concurrent use; Session serialises access to it.
type DraftState struct {
	settings    models.LeagueSettings
	teams       []models.Team
	currentPick int
	drafted     []models.DraftedPlayer
	draftedIDs  map[string]struct{}
	strict      bool
	complete    bool
}

// NewDraftState creates an empty draft with TeamCount teams and the first pick on the clock
func NewDraftState(settings models.LeagueSettings, opts ...Option) (*DraftState, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	d := &DraftState{
		settings:    settings,
		teams:       make([]models.Team, settings.TeamCount),
		currentPick: 1,
		drafted:     []models.DraftedPlayer{},
		draftedIDs:  make(map[string]struct{}),
		strict:      true,
	}
	for i := range d.teams {
		d.teams[i] = models.Team{ID: i + 1, Players: []models.DraftedPlayer{}}
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// DraftPlayer records a pick for teamID. On error the state is left unchanged.
func (d *DraftState) DraftPlayer(player models.Player, teamID int) (models.DraftedPlayer, bool, error) {
	if d.complete {
		return models.DraftedPlayer{}, true, ErrDraftAlreadyComplete
	}

	team := d.team(teamID)
	if team == nil {
		return models.DraftedPlayer{}, false, fmt.Errorf("team %d: %w", teamID, ErrInvalidTeam)
	}

	if _, taken := d.draftedIDs[player.ID]; taken {
		return models.DraftedPlayer{}, false, fmt.Errorf("%s: %w", player.FullName, ErrPlayerAlreadyDrafted)
	}

	if d.strict {
		expected := d.teams[TeamIndexForPick(d.currentPick, len(d.teams))].ID
		if expected != teamID {
			return models.DraftedPlayer{}, false, fmt.Errorf("pick %d belongs to team %d, not team %d: %w", d.currentPick, expected, teamID, ErrOutOfTurn)
		}
	}

	if len(team.Players) >= d.settings.RosterSize {
		return models.DraftedPlayer{}, false, fmt.Errorf("team %d roster is full: %w", teamID, ErrNoSlotAvailable)
	}

	slot, ok := roster.AssignSlot(player.Position, roster.UsageOf(team.Players), d.settings)
	if !ok {
		return models.DraftedPlayer{}, false, fmt.Errorf("team %d cannot roster another %s: %w", teamID, player.Position, ErrNoSlotAvailable)
	}

	pick := models.DraftedPlayer{
		Player:     player,
		Slot:       slot,
		PickNumber: d.currentPick,
		TeamID:     teamID,
	}

	reflowed, err := roster.Reoptimize(append(clonePlayers(team.Players), pick), d.settings)
	if err != nil {
		return models.DraftedPlayer{}, false, err
	}

	// history keeps the slot the player held right after its own pick
	for _, p := range reflowed {
		if p.ID == player.ID {
			pick.Slot = p.Slot
			break
		}
	}

	team.Players = reflowed
	d.drafted = append(d.drafted, pick)
	d.draftedIDs[player.ID] = struct{}{}
	d.currentPick++
	d.complete = d.allRostersFull()

	return pick, d.complete, nil
}

// CurrentTeamID returns the team on the clock. Strict drafts follow the snake
// order exactly. Lenient drafts can fill a roster early, so the clock moves on
// along the snake order to the next team that still has room.
func (d *DraftState) CurrentTeamID() (int, error) {
	if d.complete {
		return 0, ErrDraftAlreadyComplete
	}
	n := len(d.teams)
	if d.strict {
		return d.teams[TeamIndexForPick(d.currentPick, n)].ID, nil
	}
	// any 2n consecutive picks cover a full round, so every team is visited
	for pick := d.currentPick; pick < d.currentPick+2*n; pick++ {
		team := d.teams[TeamIndexForPick(pick, n)]
		if len(team.Players) < d.settings.RosterSize {
			return team.ID, nil
		}
	}
	return 0, ErrDraftAlreadyComplete
}

// CurrentPick returns the 1-based global pick number on the clock
func (d *DraftState) CurrentPick() int {
	return d.currentPick
}

// Round returns the round the current pick falls in
func (d *DraftState) Round() int {
	return RoundForPick(d.currentPick, len(d.teams))
}

// PickInRound returns the 1-based position of the current pick within its round
func (d *DraftState) PickInRound() int {
	return (d.currentPick-1)%len(d.teams) + 1
}

// StrictTurnOrder reports whether picks must come from the team on the clock
func (d *DraftState) StrictTurnOrder() bool {
	return d.strict
}

// IsComplete reports whether every roster is full
func (d *DraftState) IsComplete() bool {
	return d.complete
}

// IsDrafted reports whether a player has already been picked
func (d *DraftState) IsDrafted(playerID string) bool {
	_, ok := d.draftedIDs[playerID]
	return ok
}

// Phase returns the lifecycle stage
func (d *DraftState) Phase() Phase {
	switch {
	case d.complete:
		return PhaseComplete
	case d.currentPick == 1:
		return PhaseAwaitingFirstPick
	default:
		return PhaseInProgress
	}
}

// Settings returns the league configuration the draft was created with
func (d *DraftState) Settings() models.LeagueSettings {
	return d.settings
}

// TeamPlayers returns a copy of a team's roster
func (d *DraftState) TeamPlayers(teamID int) ([]models.DraftedPlayer, error) {
	team := d.team(teamID)
	if team == nil {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrInvalidTeam)
	}
	return clonePlayers(team.Players), nil
}

// Snapshot returns a deep copy of the draft suitable for handing to readers
func (d *DraftState) Snapshot() *models.DraftSnapshot {
	snap := &models.DraftSnapshot{
		Settings:        d.settings,
		Teams:           make([]models.Team, len(d.teams)),
		CurrentPick:     d.currentPick,
		Round:           d.Round(),
		PickInRound:     d.PickInRound(),
		StrictTurnOrder: d.StrictTurnOrder(),
		DraftedPlayers:  clonePlayers(d.drafted),
		Phase:           string(d.Phase()),
		IsDraftComplete: d.complete,
	}
	for i, t := range d.teams {
		snap.Teams[i] = models.Team{ID: t.ID, Players: clonePlayers(t.Players)}
	}
	if id, err := d.CurrentTeamID(); err == nil {
		snap.CurrentTeamID = id
	}
	return snap
}

// Clone returns an independent copy of the draft
func (d *DraftState) Clone() *DraftState {
	c := &DraftState{
		settings:    d.settings,
		teams:       make([]models.Team, len(d.teams)),
		currentPick: d.currentPick,
		drafted:     clonePlayers(d.drafted),
		draftedIDs:  make(map[string]struct{}, len(d.draftedIDs)),
		strict:      d.strict,
		complete:    d.complete,
	}
	for i, t := range d.teams {
		c.teams[i] = models.Team{ID: t.ID, Players: clonePlayers(t.Players)}
	}
	for id := range d.draftedIDs {
		c.draftedIDs[id] = struct{}{}
	}
	return c
}

func (d *DraftState) team(teamID int) *models.Team {
	if teamID < 1 || teamID > len(d.teams) {
		return nil
	}
	return &d.teams[teamID-1]
}

func (d *DraftState) allRostersFull() bool {
	for _, t := range d.teams {
		if len(t.Players) < d.settings.RosterSize {
			return false
		}
	}
	return true
}

func clonePlayers(players []models.DraftedPlayer) []models.DraftedPlayer {
	out := make([]models.DraftedPlayer, len(players))
	for i, p := range players {
		out[i] = p
		if p.AltADP != nil {
			out[i].AltADP = make(map[string]float64, len(p.AltADP))
			for k, v := range p.AltADP {
				out[i].AltADP[k] = v
			}
		}
	}
	return out
}
