package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/catalog"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/clickhouse"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/mocks"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func testLeague() models.LeagueSettings {
	return models.LeagueSettings{
		TeamCount:              4,
		RosterSize:             5,
		QBSlots:                1,
		RBSlots:                1,
		WRSlots:                1,
		FlexSlots:              1,
		BenchSlots:             1,
		PassingTouchdownPoints: 4,
		RushingTouchdownPoints: 6,
		ReceptionPoints:        1,
	}
}

func newTestServer(t *testing.T, cfg RouterConfig, store Pinger) (http.Handler, *pubsub.PubSub) {
	t.Helper()
	var players []models.Player
	for i := 1; i <= 6; i++ {
		players = append(players,
			models.Player{ID: fmt.Sprintf("qb%d", i), FullName: fmt.Sprintf("Quarterback %d", i), Position: models.PositionQB, Team: "KC", ADP: float64(i * 10)},
			models.Player{ID: fmt.Sprintf("rb%d", i), FullName: fmt.Sprintf("Runner %d", i), Position: models.PositionRB, Team: "SF", ADP: float64(i*10 + 1)},
			models.Player{ID: fmt.Sprintf("wr%d", i), FullName: fmt.Sprintf("Receiver %d", i), Position: models.PositionWR, Team: "MIA", ADP: float64(i*10 + 2)},
		)
	}
	cat, err := catalog.New(players)
	require.NoError(t, err)

	bus := pubsub.New()
	session := draft.NewSession(cat, draft.WithPublisher(bus))
	h := NewAPIHandlers(session, bus, store, testLeague())
	return NewRouter(h, cfg), bus
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error.Code
}

func TestDraftEndpointsBeforeInitialize(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)

	for _, path := range []string{"/api/draft/state", "/api/draft/current-team", "/api/draft/recommendations"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "NOT_INITIALIZED", errorCode(t, rec), path)
	}

	rec := do(t, h, http.MethodGet, "/api/draft/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Initialized bool                  `json:"initialized"`
		Settings    models.LeagueSettings `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Initialized)
	assert.Equal(t, testLeague(), body.Settings)
}

func TestInitializeDraft(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)

	rec := do(t, h, http.MethodPost, "/api/draft/initialize", `{"teamCount": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CONFIGURATION", errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/api/draft/initialize", `{"teamCount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/draft/initialize", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var snap models.DraftSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Teams, 4)
	assert.Equal(t, 1, snap.CurrentPick)
	assert.Equal(t, 1, snap.CurrentTeamID)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, string(draft.PhaseAwaitingFirstPick), snap.Phase)
}

func TestDraftPickFlow(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)

	rec := do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"rb1","teamId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result draft.PickResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.SlotRB, result.Pick.Slot)
	assert.Equal(t, 1, result.Pick.PickNumber)
	assert.Equal(t, 2, result.Snapshot.CurrentTeamID)
	assert.False(t, result.IsDraftComplete)

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"playerId":"rb1","teamId":2}`, http.StatusConflict, "PLAYER_ALREADY_DRAFTED"},
		{`{"playerId":"nobody","teamId":2}`, http.StatusNotFound, "UNKNOWN_PLAYER"},
		{`{"playerId":"rb2","teamId":3}`, http.StatusConflict, "OUT_OF_TURN"},
		{`{"playerId":"rb2","teamId":9}`, http.StatusBadRequest, "INVALID_TEAM"},
		{`{"teamId":2}`, http.StatusBadRequest, "BAD_REQUEST"},
		{`not json`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, "/api/draft/pick", tc.body)
		assert.Equal(t, tc.status, rec.Code, tc.body)
		assert.Equal(t, tc.code, errorCode(t, rec), tc.body)
	}

	rec = do(t, h, http.MethodGet, "/api/draft/current-team", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"teamId":2}`, rec.Body.String())
}

func TestRecommendationsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"qb1","teamId":1}`).Code)

	rec := do(t, h, http.MethodGet, "/api/draft/recommendations?topN=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		TeamID          int                     `json:"teamId"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TeamID, "defaults to the team on the clock")
	require.Len(t, body.Recommendations, 3)
	for i, r := range body.Recommendations {
		assert.NotEqual(t, "qb1", r.Player.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, body.Recommendations[i-1].Score, r.Score)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/draft/recommendations?teamId=1&topN=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TeamID)
	assert.Len(t, body.Recommendations, 17, "topN=0 returns every undrafted player")

	rec = do(t, h, http.MethodGet, "/api/draft/recommendations?topN=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamRosterEndpoint(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"wr1","teamId":1}`).Code)

	rec := do(t, h, http.MethodGet, "/api/draft/teams/1/roster", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		TeamID int                                    `json:"teamId"`
		Slots  map[models.Slot][]models.DraftedPlayer `json:"slots"`
		Need   map[string]float64                     `json:"need"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Slots[models.SlotWR], 1)
	assert.Equal(t, "wr1", body.Slots[models.SlotWR][0].ID)
	assert.Greater(t, body.Need["QB"], body.Need["WR"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/draft/teams/x/roster", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/draft/teams/7/roster", "").Code)
}

func TestResetEndpoint(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)

	rec := do(t, h, http.MethodPost, "/api/draft/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/draft/state", "")
	assert.Equal(t, "NOT_INITIALIZED", errorCode(t, rec))
}

func TestListPlayers(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"rb1","teamId":1}`).Code)

	var players []models.Player
	rec := do(t, h, http.MethodGet, "/api/players?position=RB&available=true&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	require.Len(t, players, 2)
	assert.Equal(t, "rb2", players[0].ID)
	assert.Equal(t, "rb3", players[1].ID)

	rec = do(t, h, http.MethodGet, "/api/players", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	assert.Len(t, players, 18)
	assert.Equal(t, "qb1", players[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/players?position=LB", "").Code)
}

func TestPickRateLimit(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{RateLimitEnabled: true, RateLimitRequests: 2, RateLimitWindow: time.Minute}, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/draft/initialize", "").Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"rb1","teamId":1}`).Code)

	rec := do(t, h, http.MethodPost, "/api/draft/pick", `{"playerId":"rb2","teamId":2}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/draft/state", "").Code)
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, stubPinger{})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "").Code)

	down, _ := newTestServer(t, RouterConfig{}, stubPinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/readyz", "").Code)
}

func TestTimingHeader(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.True(t, strings.HasSuffix(rec.Header().Get("X-Process-Time"), "ms"))
}

func TestEventsSSE(t *testing.T) {
	h, bus := newTestServer(t, RouterConfig{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"connected\"}\n", line)

	// wait for the stream's subscription before publishing
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	bus.Publish(pubsub.NewEvent(pubsub.EventDraftReset, "s1", nil))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			break
		}
	}
	assert.Equal(t, "event: "+pubsub.EventDraftReset+"\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	var event pubsub.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &event))
	assert.Equal(t, "s1", event.SessionID)
}

func TestStatusForError(t *testing.T) {
	wrapped := fmt.Errorf("pick 3: %w", draft.ErrOutOfTurn)
	status, code := StatusForError(wrapped)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OUT_OF_TURN", code)

	status, code = StatusForError(draft.ErrNoEligibleCandidates)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NO_ELIGIBLE_CANDIDATES", code)

	status, _ = StatusForError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

type fakeEventLog struct {
	events map[string][]pubsub.Event
}

func (f fakeEventLog) SessionEvents(sessionID string, wait time.Duration) ([]pubsub.Event, error) {
	return f.events[sessionID], nil
}

func TestDraftHistory(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	rec := do(t, h, http.MethodGet, "/api/draft/history", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "HISTORY_UNAVAILABLE", errorCode(t, rec))

	cat, err := catalog.New([]models.Player{
		{ID: "rb1", FullName: "Runner 1", Position: models.PositionRB, ADP: 1},
	})
	require.NoError(t, err)
	session := draft.NewSession(cat)
	log := fakeEventLog{events: map[string][]pubsub.Event{}}
	router := NewRouter(NewAPIHandlers(session, pubsub.New(), nil, testLeague()).WithEventLog(log), RouterConfig{})

	rec = do(t, router, http.MethodGet, "/api/draft/history", "")
	assert.Equal(t, "NOT_INITIALIZED", errorCode(t, rec))

	snap, err := session.Initialize(context.Background(), testLeague())
	require.NoError(t, err)
	log.events[snap.SessionID] = []pubsub.Event{pubsub.NewEvent(pubsub.EventDraftInitialized, snap.SessionID, nil)}

	rec = do(t, router, http.MethodGet, "/api/draft/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		SessionID string         `json:"sessionId"`
		Events    []pubsub.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, snap.SessionID, body.SessionID)
	require.Len(t, body.Events, 1)
	assert.Equal(t, pubsub.EventDraftInitialized, body.Events[0].Type)
}

func TestPlayerADPHistory(t *testing.T) {
	h, _ := newTestServer(t, RouterConfig{}, nil)
	rec := do(t, h, http.MethodGet, "/api/players/rb1/adp", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	cat, err := catalog.New([]models.Player{
		{ID: "rb1", FullName: "Runner 1", Position: models.PositionRB, ADP: 4},
		{ID: "wr1", FullName: "Receiver 1", Position: models.PositionWR, ADP: 9},
	})
	require.NoError(t, err)
	history := mocks.NewMockADPHistory()
	for i, pick := range []int{2, 3, 7} {
		require.NoError(t, history.RecordPick(context.Background(), clickhouse.PickEvent{
			SessionID:  fmt.Sprintf("s%d", i),
			PlayerID:   "rb1",
			Position:   models.PositionRB,
			TeamID:     1,
			PickNumber: pick,
			Round:      1,
			DraftedAt:  time.Now().UTC(),
		}))
	}
	api := NewAPIHandlers(draft.NewSession(cat), pubsub.New(), nil, testLeague()).WithADPHistory(history)
	router := NewRouter(api, RouterConfig{})

	var body struct {
		PlayerID      string   `json:"playerId"`
		ADP           float64  `json:"adp"`
		HistoricalADP *float64 `json:"historicalAdp"`
	}
	rec = do(t, router, http.MethodGet, "/api/players/rb1/adp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4.0, body.ADP)
	require.NotNil(t, body.HistoricalADP)
	assert.InDelta(t, 4.0, *body.HistoricalADP, 1e-9)

	body.HistoricalADP = nil
	rec = do(t, router, http.MethodGet, "/api/players/wr1/adp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "wr1", body.PlayerID)
	assert.Nil(t, body.HistoricalADP, "fewer than three drafts recorded")

	rec = do(t, router, http.MethodGet, "/api/players/nobody/adp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
