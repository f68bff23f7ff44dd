package services

import "geo-duel-service/models"

// formatRules is the per-format half of the round pipeline: how a scored
// round mutates the match, and when the match is over. One implementation
// is selected per match at creation time.
type formatRules interface {
	// applyRoundOutcome folds one scored round into health/wins.
	// Nil scores are treated as 0 for damage purposes.
	applyRoundOutcome(m *models.Match, p1Score, p2Score *int)

	// checkCompletion decides whether the match just ended and who won
	// (nil winner = draw). Totals are cumulative round scores.
	checkCompletion(m *models.Match, roundsPlayed, p1Total, p2Total int) (bool, *string)
}

func rulesFor(format string) formatRules {
	switch format {
	case models.FormatBo3, models.FormatBo5, models.FormatBo7:
		return bestOfRules{}
	case models.FormatRush:
		return rushRules{}
	default:
		return classicRules{}
	}
}

func scoreOrZero(s *int) int {
	if s == nil {
		return 0
	}
	return *s
}

// classicRules: health war. The lower scorer loses the score gap; the
// match ends when somebody's health crosses zero.
type classicRules struct{}

func (classicRules) applyRoundOutcome(m *models.Match, p1Score, p2Score *int) {
	applyDamage(m, p1Score, p2Score)
}

func (classicRules) checkCompletion(m *models.Match, _, _, _ int) (bool, *string) {
	if m.Player1Health <= 0 {
		winner := m.Player2ID
		return true, &winner
	}
	if m.Player2Health <= 0 {
		winner := m.Player1ID
		return true, &winner
	}
	return false, nil
}

// applyDamage subtracts |score gap| from the lower scorer. Health may go
// negative; clamping is the completion check's job, not ours.
func applyDamage(m *models.Match, p1Score, p2Score *int) {
	s1, s2 := scoreOrZero(p1Score), scoreOrZero(p2Score)
	switch {
	case s1 > s2:
		m.Player2Health -= s1 - s2
	case s2 > s1:
		m.Player1Health -= s2 - s1
	}
}

// rushRules: fixed round count decided on cumulative score. Health
// bookkeeping still runs for display but never ends the match early.
type rushRules struct{}

func (rushRules) applyRoundOutcome(m *models.Match, p1Score, p2Score *int) {
	applyDamage(m, p1Score, p2Score)
}

func (rushRules) checkCompletion(m *models.Match, roundsPlayed, p1Total, p2Total int) (bool, *string) {
	if roundsPlayed < m.MaxRounds {
		return false, nil
	}
	switch {
	case p1Total > p2Total:
		winner := m.Player1ID
		return true, &winner
	case p2Total > p1Total:
		winner := m.Player2ID
		return true, &winner
	}
	return true, nil // draw
}

// bestOfRules: first to a majority of round wins. A tied round awards
// nobody; exhausting all N rounds forces a decision on the win counters.
type bestOfRules struct{}

func (bestOfRules) applyRoundOutcome(m *models.Match, p1Score, p2Score *int) {
	s1, s2 := scoreOrZero(p1Score), scoreOrZero(p2Score)
	switch {
	case s1 > s2:
		m.Player1Wins++
	case s2 > s1:
		m.Player2Wins++
	}
}

func (bestOfRules) checkCompletion(m *models.Match, roundsPlayed, _, _ int) (bool, *string) {
	winsNeeded := (m.MaxRounds + 1) / 2
	if m.Player1Wins >= winsNeeded {
		winner := m.Player1ID
		return true, &winner
	}
	if m.Player2Wins >= winsNeeded {
		winner := m.Player2ID
		return true, &winner
	}
	if roundsPlayed >= m.MaxRounds {
		switch {
		case m.Player1Wins > m.Player2Wins:
			winner := m.Player1ID
			return true, &winner
		case m.Player2Wins > m.Player1Wins:
			winner := m.Player2ID
			return true, &winner
		}
		return true, nil // draw
	}
	return false, nil
}
