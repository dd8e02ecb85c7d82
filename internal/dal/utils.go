package dal

import (
	"encoding/json"
	"fmt"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

func encodeSettings(s models.LeagueSettings) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode league settings: %w", err)
	}
	return string(data), nil
}

func decodeSettings(raw string) (models.LeagueSettings, error) {
	var s models.LeagueSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("failed to decode league settings: %w", err)
	}
	return s, nil
}

func slotOf(s string) models.Slot {
	return models.Slot(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
