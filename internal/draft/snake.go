package draft

// TeamIndexForPick returns the 0-based team index on the clock for a 1-based pick
// using snake order: odd rounds run 0..n-1, even rounds run n-1..0.
func TeamIndexForPick(pick, teamCount int) int {
	if pick < 1 || teamCount < 1 {
		return -1
	}

	round := RoundForPick(pick, teamCount)
	positionInRound := (pick - 1) % teamCount

	if round%2 == 1 {
		return positionInRound
	}
	return teamCount - 1 - positionInRound
}

// RoundForPick returns the 1-based round a pick falls in
func RoundForPick(pick, teamCount int) int {
	if pick < 1 || teamCount < 1 {
		return 0
	}
	return (pick + teamCount - 1) / teamCount
}
