package recommend

import (
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/roster"
)

// FlexNeedKey is the Need entry for the combined RB/WR/TE/FLEX pool
const FlexNeedKey = "FLEX"

// benchNeed is the need given to a position whose starters are filled while bench room remains
const benchNeed = 0.1

// Need maps a position (and FlexNeedKey) to how urgently a team still needs it
type Need map[string]float64

// CalculateNeed computes positional need for a team from its drafted players.
// A full roster has zero need everywhere.
func CalculateNeed(players []models.DraftedPlayer, settings models.LeagueSettings) Need {
	need := make(Need, len(models.Positions)+1)

	remaining := settings.RosterSize - len(players)
	if remaining <= 0 {
		for _, pos := range models.Positions {
			need[string(pos)] = 0
		}
		need[FlexNeedKey] = 0
		return need
	}

	counts := positionCounts(players)
	benchOpen := roster.UsageOf(players)[models.SlotBench] < settings.BenchSlots

	flexCount := 0
	for _, pos := range models.Positions {
		need[string(pos)] = needValue(counts[pos], settings.StartingSlots(pos), remaining, benchOpen)
		if pos.IsFlexEligible() {
			flexCount += counts[pos]
		}
	}
	need[FlexNeedKey] = needValue(flexCount, settings.FlexPoolCapacity(), remaining, benchOpen)

	return need
}

// needValue scales the unfilled starting slots by the picks left to fill them.
// Partially filled positions are damped by their unfilled share so an empty
// position outranks one that already has a starter. With nothing filled the
// damping factor is 1, so empty positions keep the plain slots/remaining value.
func needValue(filled, required, remaining int, benchOpen bool) float64 {
	if filled < required {
		unfilled := float64(required - filled)
		return (unfilled / float64(remaining)) * (unfilled / float64(required))
	}
	if benchOpen {
		return benchNeed / float64(remaining)
	}
	return 0
}

func positionCounts(players []models.DraftedPlayer) map[models.Position]int {
	counts := make(map[models.Position]int, len(models.Positions))
	for _, p := range players {
		counts[p.Position]++
	}
	return counts
}
