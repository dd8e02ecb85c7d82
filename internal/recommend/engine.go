// Package recommend ranks available players for the team on the clock.
package recommend

import (
	"errors"
	"sort"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/roster"
)

// ErrNoEligibleCandidates is returned when no available player fits the team's roster
var ErrNoEligibleCandidates = errors.New("no eligible candidates")

// Engine scores candidates as the sum of its terms
type Engine struct {
	terms []Term
}

// NewEngine creates an engine from the given terms, or DefaultTerms when none are given
func NewEngine(terms ...Term) *Engine {
	if len(terms) == 0 {
		terms = DefaultTerms()
	}
	return &Engine{terms: terms}
}

var defaultEngine = NewEngine()

// Recommend ranks candidates with the default terms
func Recommend(available []models.Player, team []models.DraftedPlayer, settings models.LeagueSettings, topN int) ([]models.Recommendation, error) {
	return defaultEngine.Recommend(available, team, settings, topN)
}

// Recommend returns up to topN candidates (all when topN <= 0) sorted by score.
// Players whose position the team can no longer roster are excluded. An empty
// pool yields an empty list; ErrNoEligibleCandidates means players remain but
// none of them fit.
func (e *Engine) Recommend(available []models.Player, team []models.DraftedPlayer, settings models.LeagueSettings, topN int) ([]models.Recommendation, error) {
	if len(available) == 0 {
		return []models.Recommendation{}, nil
	}
	need := CalculateNeed(team, settings)

	eligible := Eligible(available, team, settings)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleCandidates
	}

	recs := make([]models.Recommendation, 0, len(eligible))
	for _, p := range eligible {
		c := Candidate{Player: p, Roster: team, Settings: settings, Need: need}
		rec := models.Recommendation{Player: p, Terms: make(map[string]float64, len(e.terms))}
		for _, t := range e.terms {
			v := t.Value(c)
			rec.Terms[t.Name] = v
			rec.Score += v
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Player.ADP != b.Player.ADP {
			return a.Player.ADP < b.Player.ADP
		}
		return a.Player.ID < b.Player.ID
	})

	if topN > 0 && len(recs) > topN {
		recs = recs[:topN]
	}
	return recs, nil
}

// Eligible filters out players the team has no slot for
func Eligible(available []models.Player, team []models.DraftedPlayer, settings models.LeagueSettings) []models.Player {
	if len(team) >= settings.RosterSize {
		return nil
	}

	usage := roster.UsageOf(team)
	open := make(map[models.Position]bool, len(models.Positions))
	for _, pos := range models.Positions {
		_, open[pos] = roster.AssignSlot(pos, usage, settings)
	}

	out := make([]models.Player, 0, len(available))
	for _, p := range available {
		if open[p.Position] {
			out = append(out, p)
		}
	}
	return out
}
