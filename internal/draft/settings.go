package draft

import (
	"fmt"
	"math"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

const (
	MinTeams = 4
	MaxTeams = 16
)

// ValidateSettings checks a league configuration before a draft is created from it
func ValidateSettings(s models.LeagueSettings) error {
	if s.TeamCount < MinTeams || s.TeamCount > MaxTeams {
		return fmt.Errorf("%w: team count %d outside %d-%d", ErrInvalidConfiguration, s.TeamCount, MinTeams, MaxTeams)
	}
	if s.RosterSize <= 0 {
		return fmt.Errorf("%w: roster size must be positive", ErrInvalidConfiguration)
	}

	for _, slot := range models.Slots {
		if s.SlotCapacity(slot) < 0 {
			return fmt.Errorf("%w: negative %s slot count", ErrInvalidConfiguration, slot)
		}
	}

	// Every player is bench-eligible, so slots summing to the roster size
	// guarantees any roster of at most RosterSize players can be reflowed.
	if total := s.TotalSlots(); total != s.RosterSize {
		return fmt.Errorf("%w: slots sum to %d but roster size is %d", ErrInvalidConfiguration, total, s.RosterSize)
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"passing touchdown points", s.PassingTouchdownPoints},
		{"rushing touchdown points", s.RushingTouchdownPoints},
		{"reception points", s.ReceptionPoints},
	}
	for _, w := range weights {
		if math.IsNaN(w.value) || math.IsInf(w.value, 0) || w.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidConfiguration, w.name)
		}
	}

	return nil
}
