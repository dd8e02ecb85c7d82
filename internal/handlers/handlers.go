package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/recommend"
)

// DefaultTopN is how many recommendations are returned when the caller does not say
const DefaultTopN = 10

// EventSource is the subscribing half of the event bus
type EventSource interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventLog replays the stored events of a draft session
type EventLog interface {
	SessionEvents(sessionID string, wait time.Duration) ([]pubsub.Event, error)
}

// ADPLookup returns a player's average pick number across past drafts
type ADPLookup interface {
	GetHistoricalADP(ctx context.Context, playerID string) (float64, bool, error)
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	session  *draft.Session
	events   EventSource
	store    Pinger
	log      EventLog
	adp      ADPLookup
	defaults models.LeagueSettings
}

// NewAPIHandlers creates a new API handlers instance. defaults are the league
// settings used when an initialize request omits them.
func NewAPIHandlers(session *draft.Session, events EventSource, store Pinger, defaults models.LeagueSettings) *APIHandlers {
	return &APIHandlers{
		session:  session,
		events:   events,
		store:    store,
		defaults: defaults,
	}
}

// WithEventLog enables the draft history endpoint
func (h *APIHandlers) WithEventLog(log EventLog) *APIHandlers {
	h.log = log
	return h
}

// WithADPHistory enables the per-player historical ADP endpoint
func (h *APIHandlers) WithADPHistory(adp ADPLookup) *APIHandlers {
	h.adp = adp
	return h
}

// GetDraftState returns the current draft state
func (h *APIHandlers) GetDraftState(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.State()
	if err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// InitializeDraft starts a new draft. Fields missing from the body keep the default league settings.
func (h *APIHandlers) InitializeDraft(w http.ResponseWriter, r *http.Request) {
	settings := h.defaults
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to decode initialize request", "error", err)
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	state, err := h.session.Initialize(r.Context(), settings)
	if err != nil {
		logger.Warn("Failed to initialize draft", "error", err)
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// DraftPick handles player draft selection
func (h *APIHandlers) DraftPick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		TeamID   int    `json:"teamId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode draft pick request", "error", err)
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "playerId is required")
		return
	}

	result, err := h.session.DraftPlayer(r.Context(), req.PlayerID, req.TeamID)
	if err != nil {
		logger.Warn("Failed to draft player", "error", err, "player_id", req.PlayerID, "team_id", req.TeamID)
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CurrentTeam returns the team on the clock
func (h *APIHandlers) CurrentTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.session.CurrentTeamID()
	if err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"teamId": teamID})
}

// Recommendations ranks available players for ?teamId= (default: the team on the clock)
func (h *APIHandlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	topN, err := queryInt(r, "topN", DefaultTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	teamID, err := queryInt(r, "teamId", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if teamID == 0 {
		if teamID, err = h.session.CurrentTeamID(); err != nil {
			writeDraftError(w, err)
			return
		}
	}

	recs, err := h.session.Recommend(teamID, topN)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teamId":          teamID,
		"recommendations": recs,
	})
}

// TeamRoster returns a team's players grouped by slot with its positional need
func (h *APIHandlers) TeamRoster(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "teamID must be an integer")
		return
	}

	bySlot, err := h.session.TeamRoster(teamID)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	need, err := h.session.Need(teamID)
	if err != nil {
		writeDraftError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		TeamID int                                    `json:"teamId"`
		Slots  map[models.Slot][]models.DraftedPlayer `json:"slots"`
		Need   recommend.Need                         `json:"need"`
	}{teamID, bySlot, need})
}

// ResetDraft discards the active draft
func (h *APIHandlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(r.Context()); err != nil {
		logger.Error("Failed to reset draft", "error", err)
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LeagueSettings returns the active draft's settings, or the defaults before a draft starts
func (h *APIHandlers) LeagueSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.session.Settings()
	initialized := err == nil
	if !initialized {
		settings = h.defaults
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"initialized": initialized,
		"settings":    settings,
	})
}

// ListPlayers lists catalog players in ADP order.
// Filters: ?position=RB, ?available=true (undrafted only), ?limit=50.
func (h *APIHandlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	position := models.Position(r.URL.Query().Get("position"))
	if position != "" && !position.Valid() {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("unknown position %q", position))
		return
	}

	drafted := map[string]bool{}
	if r.URL.Query().Get("available") == "true" {
		if state, err := h.session.State(); err == nil {
			for _, p := range state.DraftedPlayers {
				drafted[p.ID] = true
			}
		}
	}

	players := h.session.Catalog().Filter(func(p models.Player) bool {
		return (position == "" || p.Position == position) && !drafted[p.ID]
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	writeJSON(w, http.StatusOK, players)
}

// PlayerADPHistory compares a player's catalog ADP with its average pick
// number in past drafts. historicalAdp is null until enough drafts are recorded.
func (h *APIHandlers) PlayerADPHistory(w http.ResponseWriter, r *http.Request) {
	if h.adp == nil {
		writeError(w, http.StatusNotImplemented, "HISTORY_UNAVAILABLE", "ADP history is not configured")
		return
	}
	playerID := chi.URLParam(r, "playerID")
	player, ok := h.session.Catalog().Get(playerID)
	if !ok {
		writeDraftError(w, fmt.Errorf("player %s: %w", playerID, draft.ErrUnknownPlayer))
		return
	}

	adp, found, err := h.adp.GetHistoricalADP(r.Context(), playerID)
	if err != nil {
		logger.Error("Failed to read historical ADP", "error", err, "player_id", playerID)
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}

	resp := struct {
		PlayerID      string   `json:"playerId"`
		ADP           float64  `json:"adp"`
		HistoricalADP *float64 `json:"historicalAdp"`
	}{PlayerID: player.ID, ADP: player.ADP}
	if found {
		resp.HistoricalADP = &adp
	}
	writeJSON(w, http.StatusOK, resp)
}

// DraftHistory returns the stored events of the active draft, oldest first
func (h *APIHandlers) DraftHistory(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeError(w, http.StatusNotImplemented, "HISTORY_UNAVAILABLE", "draft history requires a NATS event bus")
		return
	}
	state, err := h.session.State()
	if err != nil {
		writeDraftError(w, err)
		return
	}

	events, err := h.log.SessionEvents(state.SessionID, time.Second)
	if err != nil {
		logger.Error("Failed to read draft history", "error", err, "session_id", state.SessionID)
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if events == nil {
		events = []pubsub.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": state.SessionID,
		"events":    events,
	})
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan := h.events.Subscribe()
	defer h.events.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Warn("Failed to encode event", "error", err, "type", event.Type)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// Health reports service status
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "gridiron-draft-assistant",
		"players": h.session.Catalog().Len(),
	})
}

// Liveness is the Kubernetes liveness probe
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Readiness is the Kubernetes readiness probe; it fails while the store is unreachable
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			logger.Warn("Readiness check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
