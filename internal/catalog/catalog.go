// Package catalog holds the immutable, ADP-ranked player pool for a draft.
package catalog

import (
	"fmt"
	"sort"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// Catalog is an ADP-sorted, read-only list of draft-eligible players
type Catalog struct {
	players []models.Player
	byID    map[string]int
}

// New builds a catalog, sorting by ADP (then id) and rejecting duplicate ids
func New(players []models.Player) (*Catalog, error) {
	sorted := make([]models.Player, len(players))
	for i, p := range players {
		sorted[i] = clonePlayer(p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ADP != sorted[j].ADP {
			return sorted[i].ADP < sorted[j].ADP
		}
		return sorted[i].ID < sorted[j].ID
	})

	byID := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if p.ID == "" {
			return nil, fmt.Errorf("player %q has no id", p.FullName)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		byID[p.ID] = i
	}

	return &Catalog{players: sorted, byID: byID}, nil
}

// Len returns the number of players
func (c *Catalog) Len() int {
	return len(c.players)
}

// Get looks up a player by id
func (c *Catalog) Get(id string) (models.Player, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Player{}, false
	}
	return clonePlayer(c.players[i]), true
}

// Players returns a copy of every player, best ADP first
func (c *Catalog) Players() []models.Player {
	return c.Filter(nil)
}

// Filter returns players for which keep returns true, in ADP order. A nil keep returns all.
func (c *Catalog) Filter(keep func(models.Player) bool) []models.Player {
	out := make([]models.Player, 0, len(c.players))
	for _, p := range c.players {
		if keep == nil || keep(p) {
			out = append(out, clonePlayer(p))
		}
	}
	return out
}

// WithAlternateADP returns a new catalog with adp recorded under source for matching players
func (c *Catalog) WithAlternateADP(source string, adp map[string]float64) *Catalog {
	players := make([]models.Player, len(c.players))
	for i, p := range c.players {
		players[i] = clonePlayer(p)
		if v, ok := adp[p.ID]; ok {
			if players[i].AltADP == nil {
				players[i].AltADP = make(map[string]float64)
			}
			players[i].AltADP[source] = v
		}
	}

	byID := make(map[string]int, len(c.byID))
	for id, i := range c.byID {
		byID[id] = i
	}
	return &Catalog{players: players, byID: byID}
}

func clonePlayer(p models.Player) models.Player {
	if p.AltADP == nil {
		return p
	}
	alt := make(map[string]float64, len(p.AltADP))
	for k, v := range p.AltADP {
		alt[k] = v
	}
	p.AltADP = alt
	return p
}
