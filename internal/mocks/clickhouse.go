package mocks

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/clickhouse"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

// MockADPHistory keeps pick history in memory for local development
type MockADPHistory struct {
	mu     sync.RWMutex
	totals map[string]int
	counts map[string]int
	picks  []clickhouse.PickEvent
}

// NewMockADPHistory creates an empty in-memory ADP history
func NewMockADPHistory() *MockADPHistory {
	logger.Info("Using MOCK ClickHouse ADP history for local development")

	return &MockADPHistory{
		totals: make(map[string]int),
		counts: make(map[string]int),
	}
}

// RecordPick stores a pick
func (m *MockADPHistory) RecordPick(ctx context.Context, pick clickhouse.PickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.picks = append(m.picks, pick)
	m.totals[pick.PlayerID] += pick.PickNumber
	m.counts[pick.PlayerID]++
	return nil
}

// GetHistoricalADP returns the running average pick number of a player
func (m *MockADPHistory) GetHistoricalADP(ctx context.Context, playerID string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.counts[playerID]
	if n < clickhouse.MinDraftsForADP {
		return 0, false, nil
	}
	return float64(m.totals[playerID]) / float64(n), true, nil
}

// GetAllHistoricalADP returns every player with enough recorded picks
func (m *MockADPHistory) GetAllHistoricalADP(ctx context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]float64)
	for id, n := range m.counts {
		if n >= clickhouse.MinDraftsForADP {
			result[id] = float64(m.totals[id]) / float64(n)
		}
	}
	return result, nil
}

// SyncADP pushes every historical ADP into updateFunc
func (m *MockADPHistory) SyncADP(ctx context.Context, updateFunc func(playerID string, adp float64) error) error {
	all, err := m.GetAllHistoricalADP(ctx)
	if err != nil {
		return err
	}

	for playerID, adp := range all {
		if err := updateFunc(playerID, adp); err != nil {
			logger.Warn("Mock ClickHouse: failed to update ADP", "player_id", playerID, "error", err)
		}
	}

	logger.Debug("Mock ClickHouse: Synced historical ADP", "players", len(all))
	return nil
}

// Picks returns a copy of every recorded pick
func (m *MockADPHistory) Picks() []clickhouse.PickEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]clickhouse.PickEvent(nil), m.picks...)
}

// Close is a no-op for the mock
func (m *MockADPHistory) Close() error {
	return nil
}

var _ clickhouse.ADPHistory = (*MockADPHistory)(nil)
