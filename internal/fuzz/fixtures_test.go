package fuzz

import (
	"context"
	"fmt"
	"testing"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/catalog"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/dal"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
)

func init() {
	// Initialize logger for tests
	logger.Init()
}

func league() models.LeagueSettings {
	return models.LeagueSettings{
		TeamCount:  4,
		RosterSize: 5,
		QBSlots:    1,
		RBSlots:    1,
		WRSlots:    1,
		FlexSlots:  1,
		BenchSlots: 1,
	}
}

// newSession returns an initialized session over a small player pool
func newSession(t *testing.T) (*draft.Session, *pubsub.PubSub) {
	t.Helper()
	var players []models.Player
	for i := 1; i <= 5; i++ {
		players = append(players,
			models.Player{ID: fmt.Sprint(i), FullName: fmt.Sprintf("QB %d", i), Position: models.PositionQB, ADP: float64(i*3 + 2)},
			models.Player{ID: fmt.Sprint(10 + i), FullName: fmt.Sprintf("RB %d", i), Position: models.PositionRB, ADP: float64(i * 3)},
			models.Player{ID: fmt.Sprint(20 + i), FullName: fmt.Sprintf("WR %d", i), Position: models.PositionWR, ADP: float64(i*3 + 1)},
		)
	}
	cat, err := catalog.New(players)
	if err != nil {
		t.Fatal(err)
	}

	ps := pubsub.New()
	s := draft.NewSession(cat, draft.WithStore(dal.NewMemoryDAL()), draft.WithPublisher(ps))
	if _, err := s.Initialize(context.Background(), league()); err != nil {
		t.Fatal(err)
	}
	return s, ps
}
