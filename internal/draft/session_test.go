package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/catalog"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/dal"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/mocks"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/recommend"
)

// testCatalog has ten players of each of QB, RB and WR; ids are qb01, rb01, ...
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	var players []models.Player
	for i := 1; i <= 10; i++ {
		for j, pos := range []models.Position{models.PositionQB, models.PositionRB, models.PositionWR} {
			id := fmt.Sprintf("%s%02d", map[models.Position]string{
				models.PositionQB: "qb", models.PositionRB: "rb", models.PositionWR: "wr",
			}[pos], i)
			players = append(players, player(id, pos, float64(i*3+j)))
		}
	}
	cat, err := catalog.New(players)
	require.NoError(t, err)
	return cat
}

type failingStore struct {
	dal.DraftDAL
}

func (f failingStore) AppendPick(ctx context.Context, sessionID string, pick dal.PickRecord) error {
	return errors.New("disk full")
}

func drain(ch chan pubsub.Event) []string {
	var types []string
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		case <-time.After(50 * time.Millisecond):
			return types
		}
	}
}

func TestSessionRequiresInitialize(t *testing.T) {
	s := NewSession(testCatalog(t))

	_, err := s.DraftPlayer(context.Background(), "qb01", 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.CurrentTeamID()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Recommend(1, 5)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Settings()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSessionInitializeRejectsInvalidSettings(t *testing.T) {
	store := dal.NewMemoryDAL()
	s := NewSession(testCatalog(t), WithStore(store))

	settings := tinyLeague()
	settings.TeamCount = 2
	_, err := s.Initialize(context.Background(), settings)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = store.LoadActiveSession(context.Background())
	assert.ErrorIs(t, err, dal.ErrNoSession, "nothing persisted for a rejected configuration")
}

func TestSessionDraftFlow(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.New()
	events := bus.Subscribe()
	history := mocks.NewMockADPHistory()
	s := NewSession(testCatalog(t), WithPublisher(bus), WithPickRecorder(history), WithStore(dal.NewMemoryDAL()))

	snap, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, string(PhaseAwaitingFirstPick), snap.Phase)

	result, err := s.DraftPlayer(ctx, "rb01", 1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotRB, result.Pick.Slot)
	assert.Equal(t, 1, result.Pick.PickNumber)
	assert.False(t, result.IsDraftComplete)
	assert.Equal(t, 2, result.Snapshot.CurrentTeamID)
	assert.Equal(t, snap.SessionID, result.Snapshot.SessionID)

	_, err = s.DraftPlayer(ctx, "nobody", 2)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = s.DraftPlayer(ctx, "rb01", 2)
	assert.ErrorIs(t, err, ErrPlayerAlreadyDrafted)
	_, err = s.DraftPlayer(ctx, "rb02", 3)
	assert.ErrorIs(t, err, ErrOutOfTurn)

	team, err := s.CurrentTeamID()
	require.NoError(t, err)
	assert.Equal(t, 2, team)

	assert.Equal(t, []string{pubsub.EventDraftInitialized, pubsub.EventDraftPick}, drain(events))

	recorded := history.Picks()
	require.Len(t, recorded, 1)
	assert.Equal(t, "rb01", recorded[0].PlayerID)
	assert.Equal(t, 1, recorded[0].Round)
	assert.Equal(t, snap.SessionID, recorded[0].SessionID)
}

func TestSessionRecommendExcludesDrafted(t *testing.T) {
	ctx := context.Background()
	s := NewSession(testCatalog(t))
	_, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)

	_, err = s.DraftPlayer(ctx, "qb01", 1)
	require.NoError(t, err)

	recs, err := s.Recommend(2, 0)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, r := range recs {
		assert.NotEqual(t, "qb01", r.Player.ID)
	}

	_, err = s.Recommend(9, 3)
	assert.ErrorIs(t, err, ErrInvalidTeam)

	need, err := s.Need(1)
	require.NoError(t, err)
	assert.Greater(t, need[string(models.PositionRB)], need[string(models.PositionQB)])

	bySlot, err := s.TeamRoster(1)
	require.NoError(t, err)
	require.Len(t, bySlot[models.SlotQB], 1)
	assert.Equal(t, "qb01", bySlot[models.SlotQB][0].ID)
}

func TestSessionPersistenceFailureRejectsPick(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.New()
	events := bus.Subscribe()
	s := NewSession(testCatalog(t), WithStore(failingStore{dal.NewMemoryDAL()}), WithPublisher(bus))
	_, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)
	before, err := s.State()
	require.NoError(t, err)

	_, err = s.DraftPlayer(ctx, "qb01", 1)
	require.Error(t, err)

	after, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{pubsub.EventDraftInitialized}, drain(events))
}

func TestSessionRestoreReplaysPicks(t *testing.T) {
	ctx := context.Background()
	store := dal.NewMemoryDAL()
	cat := testCatalog(t)

	original := NewSession(cat, WithStore(store))
	_, err := original.Initialize(ctx, tinyLeague())
	require.NoError(t, err)
	for i, id := range []string{"qb03", "qb01", "rb01", "wr01", "wr02"} {
		team, err := original.CurrentTeamID()
		require.NoError(t, err)
		_, err = original.DraftPlayer(ctx, id, team)
		require.NoError(t, err, "pick %d", i+1)
	}
	want, err := original.State()
	require.NoError(t, err)

	restored := NewSession(cat, WithStore(store))
	require.NoError(t, restored.Restore(ctx))
	got, err := restored.State()
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestSessionRestoreWithoutStoredSession(t *testing.T) {
	s := NewSession(testCatalog(t), WithStore(dal.NewMemoryDAL()))
	require.NoError(t, s.Restore(context.Background()))

	_, err := s.State()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	store := dal.NewMemoryDAL()
	s := NewSession(testCatalog(t), WithStore(store))
	_, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	_, err = s.State()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.LoadActiveSession(ctx)
	assert.ErrorIs(t, err, dal.ErrNoSession)
}

func TestSessionCompleteDraft(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.New()
	events := bus.Subscribe()
	s := NewSession(testCatalog(t), WithPublisher(bus))

	settings := tinyLeague()
	_, err := s.Initialize(ctx, settings)
	require.NoError(t, err)

	plan := []models.Position{models.PositionQB, models.PositionRB, models.PositionWR, models.PositionRB, models.PositionWR}
	next := map[models.Position]int{}
	prefix := map[models.Position]string{models.PositionQB: "qb", models.PositionRB: "rb", models.PositionWR: "wr"}

	var result *PickResult
	for pick := 1; pick <= settings.TeamCount*settings.RosterSize; pick++ {
		team, err := s.CurrentTeamID()
		require.NoError(t, err)
		pos := plan[RoundForPick(pick, settings.TeamCount)-1]
		next[pos]++
		result, err = s.DraftPlayer(ctx, fmt.Sprintf("%s%02d", prefix[pos], next[pos]), team)
		require.NoError(t, err, "pick %d", pick)
	}

	assert.True(t, result.IsDraftComplete)
	assert.Equal(t, string(PhaseComplete), result.Snapshot.Phase)

	_, err = s.DraftPlayer(ctx, "qb09", 1)
	assert.ErrorIs(t, err, ErrDraftAlreadyComplete)
	_, err = s.CurrentTeamID()
	assert.ErrorIs(t, err, ErrDraftAlreadyComplete)

	// the subscriber buffer only keeps the first ten events; the last pick
	// is followed by a completion event
	types := drain(events)
	assert.Equal(t, pubsub.EventDraftInitialized, types[0])
}

func TestSessionApplyAlternateADP(t *testing.T) {
	s := NewSession(testCatalog(t))
	s.ApplyAlternateADP("history", map[string]float64{"qb01": 7.5})

	p, ok := s.Catalog().Get("qb01")
	require.True(t, ok)
	assert.Equal(t, 7.5, p.AltADP["history"])
}

func TestSessionConcurrentPicks(t *testing.T) {
	ctx := context.Background()
	s := NewSession(testCatalog(t), WithLenientTurns())
	_, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for team := 1; team <= 4; team++ {
		wg.Add(1)
		go func(team int) {
			defer wg.Done()
			for _, pos := range []string{"qb", "rb", "wr"} {
				_, err := s.DraftPlayer(ctx, fmt.Sprintf("%s%02d", pos, team), team)
				assert.NoError(t, err)
			}
		}(team)
	}
	wg.Wait()

	snap, err := s.State()
	require.NoError(t, err)
	assert.Len(t, snap.DraftedPlayers, 12)
	assert.Equal(t, 13, snap.CurrentPick)
	for i, p := range snap.DraftedPlayers {
		assert.Equal(t, i+1, p.PickNumber)
	}
	for _, team := range snap.Teams {
		assert.Len(t, team.Players, 3)
	}
}

func TestSessionWithCustomEngine(t *testing.T) {
	receiversFirst := recommend.NewEngine(
		recommend.Term{Name: recommend.TermADP, Value: recommend.ADPValue},
		recommend.Term{Name: "receiver", Value: func(c recommend.Candidate) float64 {
			if c.Player.Position == models.PositionWR {
				return 1
			}
			return 0
		}},
	)
	s := NewSession(testCatalog(t), WithEngine(receiversFirst))
	_, err := s.Initialize(context.Background(), tinyLeague())
	require.NoError(t, err)

	recs, err := s.Recommend(1, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, models.PositionWR, r.Player.Position)
		assert.Len(t, r.Terms, 2)
	}
	assert.Equal(t, "wr01", recs[0].Player.ID)
}

type panickingPublisher struct{}

func (panickingPublisher) Publish(pubsub.Event) { panic("subscriber gone") }

func TestSessionReleasesLockWhenPublishPanics(t *testing.T) {
	ctx := context.Background()
	s := NewSession(testCatalog(t))
	_, err := s.Initialize(ctx, tinyLeague())
	require.NoError(t, err)

	s.events = panickingPublisher{}
	assert.Panics(t, func() { _, _ = s.DraftPlayer(ctx, "qb01", 1) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.State()
		_, _ = s.CurrentTeamID()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session lock still held after a failed publish")
	}
}
