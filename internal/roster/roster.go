// Package roster places drafted players into named roster slots.
package roster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// ErrNoSlotAvailable is returned when neither a starting slot nor the bench can take a player
var ErrNoSlotAvailable = errors.New("no roster slot available")

// Usage counts how many players currently occupy each slot
type Usage map[models.Slot]int

// UsageOf tallies the slots already assigned on a roster
func UsageOf(players []models.DraftedPlayer) Usage {
	usage := make(Usage, len(models.Slots))
	for _, p := range players {
		usage[p.Slot]++
	}
	return usage
}

// flexPoolUsed is the combined RB+WR+TE+FLEX usage
func (u Usage) flexPoolUsed() int {
	return u[models.SlotRB] + u[models.SlotWR] + u[models.SlotTE] + u[models.SlotFlex]
}

// AssignSlot returns the slot a player at pos would occupy given the current usage.
// The primary slot wins when open; RB/WR/TE fall back to FLEX; everything falls back to bench.
func AssignSlot(pos models.Position, usage Usage, settings models.LeagueSettings) (models.Slot, bool) {
	if !pos.Valid() {
		return "", false
	}

	primary := models.PrimarySlot(pos)
	if usage[primary] < settings.SlotCapacity(primary) {
		return primary, true
	}

	if pos.IsFlexEligible() &&
		usage[models.SlotFlex] < settings.FlexSlots &&
		usage.flexPoolUsed() < settings.FlexPoolCapacity() {
		return models.SlotFlex, true
	}

	if usage[models.SlotBench] < settings.BenchSlots {
		return models.SlotBench, true
	}

	return "", false
}

// Reoptimize rebuilds a team's slot assignments from empty, best ADP first.
// Pick numbers are preserved; the returned slice is ordered by ADP.
func Reoptimize(players []models.DraftedPlayer, settings models.LeagueSettings) ([]models.DraftedPlayer, error) {
	ordered := make([]models.DraftedPlayer, len(players))
	copy(ordered, players)
	SortByADP(ordered)

	usage := make(Usage, len(models.Slots))
	for i := range ordered {
		slot, ok := AssignSlot(ordered[i].Position, usage, settings)
		if !ok {
			return nil, fmt.Errorf("reflow %s (%s): %w", ordered[i].FullName, ordered[i].Position, ErrNoSlotAvailable)
		}
		ordered[i].Slot = slot
		usage[slot]++
	}

	return ordered, nil
}

// SortByADP orders drafted players best-first: ADP, then pick number, then id
func SortByADP(players []models.DraftedPlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.ADP != b.ADP {
			return a.ADP < b.ADP
		}
		if a.PickNumber != b.PickNumber {
			return a.PickNumber < b.PickNumber
		}
		return a.ID < b.ID
	})
}

// BySlot groups a roster by slot in display order
func BySlot(players []models.DraftedPlayer) map[models.Slot][]models.DraftedPlayer {
	grouped := make(map[models.Slot][]models.DraftedPlayer, len(models.Slots))
	for _, p := range players {
		grouped[p.Slot] = append(grouped[p.Slot], p)
	}
	for slot := range grouped {
		SortByADP(grouped[slot])
	}
	return grouped
}
