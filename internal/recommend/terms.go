package recommend

import (
	"math"
	"sort"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// Candidate is everything a scoring term may look at for one available player
type Candidate struct {
	Player   models.Player
	Roster   []models.DraftedPlayer
	Settings models.LeagueSettings
	Need     Need
}

// TermFunc scores one aspect of a candidate
type TermFunc func(c Candidate) float64

// Term is a named, additive component of a candidate's score
type Term struct {
	Name  string
	Value TermFunc
}

// Term names
const (
	TermADP          = "adp"
	TermNeed         = "need"
	TermScoring      = "scoring"
	TermBenchSurplus = "bench"
	TermFlexSurplus  = "flex"
)

const (
	flexOpenBonus       = 0.5
	benchSurplusDivisor = 1000
	flexSurplusDivisor  = 2000
)

// DefaultTerms is the standard value function
func DefaultTerms() []Term {
	return []Term{
		{Name: TermADP, Value: ADPValue},
		{Name: TermNeed, Value: PositionalNeedValue},
		{Name: TermScoring, Value: ScoringWeightValue},
		{Name: TermBenchSurplus, Value: BenchSurplusValue},
		{Name: TermFlexSurplus, Value: FlexSurplusValue},
	}
}

// ADPValue rewards earlier ADP; ADP is floored at 1
func ADPValue(c Candidate) float64 {
	return 1 / math.Max(c.Player.ADP, 1)
}

// PositionalNeedValue is the team's need at the candidate's position
func PositionalNeedValue(c Candidate) float64 {
	return c.Need[string(c.Player.Position)]
}

// ScoringWeightValue favours positions the league's scoring rewards
func ScoringWeightValue(c Candidate) float64 {
	switch c.Player.Position {
	case models.PositionQB:
		return c.Settings.PassingTouchdownPoints * 0.1
	case models.PositionRB, models.PositionWR:
		return c.Settings.RushingTouchdownPoints * 0.1
	case models.PositionTE:
		return c.Settings.ReceptionPoints * 0.5
	default:
		return 0
	}
}

// BenchSurplusValue is zero until the position's starters are filled, then rewards
// candidates with a better ADP than the team's worst starter there.
func BenchSurplusValue(c Candidate) float64 {
	limit := positionLimit(c.Player.Position, c.Settings)
	if limit <= 0 {
		return 0
	}

	same := adpsWhere(c.Roster, func(p models.DraftedPlayer) bool {
		return p.Position == c.Player.Position
	})
	if len(same) < limit {
		return 0
	}

	worstStarter := same[limit-1]
	return math.Max(0, (worstStarter-c.Player.ADP)/benchSurplusDivisor)
}

// FlexSurplusValue gives RB/WR/TE a flat bonus while the flex pool has room,
// then rewards beating the worst player in the pool.
func FlexSurplusValue(c Candidate) float64 {
	if !c.Player.Position.IsFlexEligible() {
		return 0
	}

	limit := c.Settings.FlexPoolCapacity()
	pool := adpsWhere(c.Roster, func(p models.DraftedPlayer) bool {
		return p.Position.IsFlexEligible()
	})
	if len(pool) < limit {
		return flexOpenBonus
	}
	if limit <= 0 {
		return 0
	}

	worstFlexStarter := pool[limit-1]
	return math.Max(0, (worstFlexStarter-c.Player.ADP)/flexSurplusDivisor)
}

// positionLimit is how many players at pos can start; RB/WR/TE may also start at FLEX
func positionLimit(pos models.Position, settings models.LeagueSettings) int {
	limit := settings.StartingSlots(pos)
	if pos.IsFlexEligible() {
		limit += settings.FlexSlots
	}
	return limit
}

// adpsWhere returns matching players' ADPs, best first
func adpsWhere(players []models.DraftedPlayer, keep func(models.DraftedPlayer) bool) []float64 {
	adps := []float64{}
	for _, p := range players {
		if keep(p) {
			adps = append(adps, p.ADP)
		}
	}
	sort.Float64s(adps)
	return adps
}
