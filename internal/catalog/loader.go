package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// DefaultLimit caps the merged catalog size
const DefaultLimit = 400

// RawPlayer is one entry of the NFL player file, keyed by player id
type RawPlayer struct {
	PlayerID    string   `json:"player_id"`
	FullName    string   `json:"full_name"`
	Position    string   `json:"position"`
	Team        string   `json:"team"`
	SearchRank  int      `json:"search_rank"`
	CBSADP      *float64 `json:"cbs_adp"`
	SleeperADP  *float64 `json:"sleeper_adp"`
	RTSportsADP *float64 `json:"rtsports_adp"`
}

// Ranking is one row of an expert rankings sheet
type Ranking struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	Tier     int    `json:"tier"`
}

var nameSuffix = regexp.MustCompile(`\s+(Jr\.|Sr\.|II|III|IV)$`)

// NormalizeName strips generational suffixes so file and ranking names line up
func NormalizeName(name string) string {
	return strings.TrimSpace(nameSuffix.ReplaceAllString(strings.TrimSpace(name), ""))
}

// LoadFile reads a catalog stored as a JSON array of players
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var players []models.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	logger.Info("Loaded player catalog", "file", path, "players", len(players))
	return New(players)
}

// LoadMerged reads an NFL player file and a rankings file and merges them
func LoadMerged(playersPath, rankingsPath string, limit int) (*Catalog, error) {
	data, err := os.ReadFile(playersPath)
	if err != nil {
		return nil, fmt.Errorf("read players file: %w", err)
	}
	var raw map[string]RawPlayer
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse players file: %w", err)
	}

	var rankings []Ranking
	if rankingsPath != "" {
		data, err := os.ReadFile(rankingsPath)
		if err != nil {
			// unranked players still load with the sentinel ADP
			logger.Warn("Failed to read rankings file, continuing without rankings", "file", rankingsPath, "error", err)
		} else if err := json.Unmarshal(data, &rankings); err != nil {
			return nil, fmt.Errorf("parse rankings file: %w", err)
		}
	}

	players := make([]RawPlayer, 0, len(raw))
	for _, p := range raw {
		players = append(players, p)
	}

	merged := Merge(players, rankings, limit)
	logger.Info("Merged player catalog", "file_players", len(players), "rankings", len(rankings), "catalog", len(merged))
	return New(merged)
}

// Merge joins raw players with rankings by normalized name, adds team defenses
// from DST rankings, sorts by ADP and keeps the best limit players (limit <= 0 means DefaultLimit).
func Merge(raw []RawPlayer, rankings []Ranking, limit int) []models.Player {
	if limit <= 0 {
		limit = DefaultLimit
	}

	byName := make(map[string]Ranking, len(rankings))
	for _, r := range rankings {
		if r.Name == "" {
			logger.Warn("Skipping ranking without a name", "rank", r.Rank)
			continue
		}
		byName[NormalizeName(r.Name)] = r
	}

	out := make([]models.Player, 0, len(raw))
	for _, p := range raw {
		if p.Position == "" || p.Team == "" {
			continue
		}
		// there is also a CB named Lamar Jackson
		if p.FullName == "Lamar Jackson" && p.Position != string(models.PositionQB) {
			continue
		}
		if !models.Position(p.Position).Valid() {
			continue
		}

		player := models.Player{
			ID:       p.PlayerID,
			FullName: p.FullName,
			Position: models.Position(p.Position),
			Team:     p.Team,
			ADP:      models.UnknownADP,
			Rank:     p.SearchRank,
		}
		if player.Rank == 0 {
			player.Rank = models.UnknownADP
		}
		if r, ok := byName[NormalizeName(p.FullName)]; ok {
			player.FullName = r.Name
			player.ADP = float64(r.Rank)
		}

		alt := map[string]*float64{"cbs": p.CBSADP, "sleeper": p.SleeperADP, "rtsports": p.RTSportsADP}
		for source, v := range alt {
			if v == nil || *v == 0 {
				continue
			}
			if player.AltADP == nil {
				player.AltADP = make(map[string]float64)
			}
			player.AltADP[source] = *v
		}

		out = append(out, player)
	}

	defenses := 0
	for _, r := range rankings {
		if r.Position != "DST" {
			continue
		}
		defenses++
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("Unknown Defense %d", defenses)
		}
		team := r.Team
		if team == "" {
			team = "Unknown"
		}
		out = append(out, models.Player{
			ID:       fmt.Sprintf("DEF%d", defenses),
			FullName: name,
			Position: models.PositionDEF,
			Team:     team,
			ADP:      float64(r.Rank),
			Rank:     r.Rank,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ADP != out[j].ADP {
			return out[i].ADP < out[j].ADP
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
