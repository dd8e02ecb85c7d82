package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// turnFromHistory walks the draft one pick at a time, reversing direction at
// either end of the order, and returns the index on the clock after picks picks
func turnFromHistory(picks, teamCount int) int {
	idx, dir := 0, 1
	for i := 0; i < picks; i++ {
		next := idx + dir
		if next < 0 || next >= teamCount {
			dir = -dir
			continue
		}
		idx = next
	}
	return idx
}

func TestTeamIndexForPickTenTeams(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 10: 9, 11: 9, 12: 8, 20: 0, 21: 0, 30: 9, 31: 9}
	for pick, want := range cases {
		assert.Equal(t, want, TeamIndexForPick(pick, 10), "pick %d", pick)
	}
}

func TestTeamIndexForPickEachRoundIsAPermutation(t *testing.T) {
	for n := MinTeams; n <= MaxTeams; n++ {
		for round := 1; round <= 6; round++ {
			seen := make(map[int]bool, n)
			for i := 0; i < n; i++ {
				idx := TeamIndexForPick((round-1)*n+i+1, n)
				assert.True(t, idx >= 0 && idx < n, "n=%d round=%d index %d", n, round, idx)
				seen[idx] = true
			}
			assert.Len(t, seen, n, "n=%d round=%d is not a bijection", n, round)
		}
	}
}

func TestTeamIndexForPickAlternatesDirection(t *testing.T) {
	for n := MinTeams; n <= MaxTeams; n++ {
		for round := 1; round <= 4; round++ {
			first := TeamIndexForPick((round-1)*n+1, n)
			last := TeamIndexForPick(round*n, n)
			if round%2 == 1 {
				assert.Equal(t, 0, first)
				assert.Equal(t, n-1, last)
			} else {
				assert.Equal(t, n-1, first)
				assert.Equal(t, 0, last)
			}
		}
	}
}

func TestTeamIndexForPickMatchesHistoryWalk(t *testing.T) {
	for n := MinTeams; n <= MaxTeams; n++ {
		for pick := 1; pick <= n*8; pick++ {
			assert.Equal(t, turnFromHistory(pick-1, n), TeamIndexForPick(pick, n), "n=%d pick=%d", n, pick)
		}
	}
}

func TestTeamIndexForPickInvalidInput(t *testing.T) {
	assert.Equal(t, -1, TeamIndexForPick(0, 10))
	assert.Equal(t, -1, TeamIndexForPick(1, 0))
	assert.Equal(t, 0, RoundForPick(0, 10))
}

func TestRoundForPick(t *testing.T) {
	assert.Equal(t, 1, RoundForPick(1, 10))
	assert.Equal(t, 1, RoundForPick(10, 10))
	assert.Equal(t, 2, RoundForPick(11, 10))
	assert.Equal(t, 16, RoundForPick(160, 10))
}
