package models

// Position represents an NFL roster position
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDEF Position = "DEF"
)

// Positions lists every draftable position in display order
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE, PositionK, PositionDEF}

// IsFlexEligible reports whether the position can fill a FLEX slot
func (p Position) IsFlexEligible() bool {
	return p == PositionRB || p == PositionWR || p == PositionTE
}

// Valid reports whether p is one of the draftable positions
func (p Position) Valid() bool {
	for _, pos := range Positions {
		if pos == p {
			return true
		}
	}
	return false
}

// Slot is a named roster slot a drafted player occupies
type Slot string

const (
	SlotQB    Slot = "QB"
	SlotRB    Slot = "RB"
	SlotWR    Slot = "WR"
	SlotTE    Slot = "TE"
	SlotFlex  Slot = "FLEX"
	SlotK     Slot = "K"
	SlotDEF   Slot = "DEF"
	SlotBench Slot = "BN"
)

// Slots lists every roster slot in display order
var Slots = []Slot{SlotQB, SlotRB, SlotWR, SlotTE, SlotFlex, SlotK, SlotDEF, SlotBench}

// UnknownADP is the sentinel ADP assigned to players without a ranking
const UnknownADP = 9999

// Player represents a draft-eligible NFL player
type Player struct {
	ID       string   `json:"player_id"`
	FullName string   `json:"full_name"`
	Position Position `json:"position"`
	Team     string   `json:"team"`
	ADP      float64  `json:"adp"`
	Rank     int      `json:"rank,omitempty"`
	// AltADP holds alternate ADP sources keyed by source name (cbs, sleeper, rtsports, history)
	AltADP map[string]float64 `json:"alt_adp,omitempty"`
}

// DraftedPlayer is a player together with the slot and pick it was drafted at
type DraftedPlayer struct {
	Player
	Slot       Slot `json:"slot"`
	PickNumber int  `json:"pickNumber"`
	TeamID     int  `json:"teamId"`
}

// Team represents a draft team
type Team struct {
	ID      int             `json:"id"`
	Players []DraftedPlayer `json:"players"`
}

// LeagueSettings describes roster shape and scoring for a league
type LeagueSettings struct {
	TeamCount              int     `json:"teamCount" toml:"team_count"`
	RosterSize             int     `json:"rosterSize" toml:"roster_size"`
	QBSlots                int     `json:"qbSlots" toml:"qb_slots"`
	RBSlots                int     `json:"rbSlots" toml:"rb_slots"`
	WRSlots                int     `json:"wrSlots" toml:"wr_slots"`
	TESlots                int     `json:"teSlots" toml:"te_slots"`
	FlexSlots              int     `json:"flexSlots" toml:"flex_slots"`
	KSlots                 int     `json:"kSlots" toml:"k_slots"`
	DEFSlots               int     `json:"defSlots" toml:"def_slots"`
	BenchSlots             int     `json:"benchSlots" toml:"bench_slots"`
	PassingTouchdownPoints float64 `json:"passingTouchdownPoints" toml:"passing_touchdown_points"`
	RushingTouchdownPoints float64 `json:"rushingTouchdownPoints" toml:"rushing_touchdown_points"`
	ReceptionPoints        float64 `json:"receptionPoints" toml:"reception_points"`
}

// DefaultLeagueSettings returns a standard 10-team, 16-player PPR league
func DefaultLeagueSettings() LeagueSettings {
	return LeagueSettings{
		TeamCount:              10,
		RosterSize:             16,
		QBSlots:                1,
		RBSlots:                2,
		WRSlots:                3,
		TESlots:                1,
		FlexSlots:              1,
		KSlots:                 1,
		DEFSlots:               1,
		BenchSlots:             6,
		PassingTouchdownPoints: 4,
		RushingTouchdownPoints: 6,
		ReceptionPoints:        1,
	}
}

// SlotCapacity returns the number of slots of the given kind
func (s LeagueSettings) SlotCapacity(slot Slot) int {
	switch slot {
	case SlotQB:
		return s.QBSlots
	case SlotRB:
		return s.RBSlots
	case SlotWR:
		return s.WRSlots
	case SlotTE:
		return s.TESlots
	case SlotFlex:
		return s.FlexSlots
	case SlotK:
		return s.KSlots
	case SlotDEF:
		return s.DEFSlots
	case SlotBench:
		return s.BenchSlots
	default:
		return 0
	}
}

// StartingSlots returns the number of dedicated starting slots for a position
func (s LeagueSettings) StartingSlots(pos Position) int {
	return s.SlotCapacity(PrimarySlot(pos))
}

// TotalSlots sums every slot count including bench
func (s LeagueSettings) TotalSlots() int {
	total := 0
	for _, slot := range Slots {
		total += s.SlotCapacity(slot)
	}
	return total
}

// FlexPoolCapacity is the combined RB+WR+TE+FLEX starting capacity
func (s LeagueSettings) FlexPoolCapacity() int {
	return s.RBSlots + s.WRSlots + s.TESlots + s.FlexSlots
}

// PrimarySlot maps a position to its dedicated slot
func PrimarySlot(pos Position) Slot {
	switch pos {
	case PositionQB:
		return SlotQB
	case PositionRB:
		return SlotRB
	case PositionWR:
		return SlotWR
	case PositionTE:
		return SlotTE
	case PositionK:
		return SlotK
	case PositionDEF:
		return SlotDEF
	default:
		return ""
	}
}

// DraftSnapshot is a read-only copy of a draft's state
type DraftSnapshot struct {
	SessionID       string          `json:"sessionId"`
	Settings        LeagueSettings  `json:"settings"`
	Teams           []Team          `json:"teams"`
	CurrentPick     int             `json:"currentPick"`
	Round           int             `json:"round"`
	PickInRound     int             `json:"pickInRound"`
	StrictTurnOrder bool            `json:"strictTurnOrder"`
	CurrentTeamID   int             `json:"currentTeamId,omitempty"`
	DraftedPlayers  []DraftedPlayer `json:"draftedPlayers"`
	Phase           string          `json:"phase"`
	IsDraftComplete bool            `json:"isDraftComplete"`
}

// Recommendation is a scored candidate for the team on the clock
type Recommendation struct {
	Player Player             `json:"player"`
	Score  float64            `json:"score"`
	Terms  map[string]float64 `json:"terms,omitempty"`
}
