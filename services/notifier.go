package services

import (
	"log"

	"geo-duel-service/models"
)

// Snapshot is the per-match health/wins view attached to round events.
type Snapshot struct {
	Player1Health int `json:"player1_health"`
	Player2Health int `json:"player2_health"`
	Player1Wins   int `json:"player1_wins"`
	Player2Wins   int `json:"player2_wins"`
}

func snapshotOf(m *models.Match) Snapshot {
	return Snapshot{
		Player1Health: m.Player1Health,
		Player2Health: m.Player2Health,
		Player1Wins:   m.Player1Wins,
		Player2Wins:   m.Player2Wins,
	}
}

type RoundStartedEvent struct {
	Match    *models.Match `json:"match"`
	Round    *models.Round `json:"round"`
	Snapshot Snapshot      `json:"snapshot"`
}

type RoundFinishedEvent struct {
	Match     *models.Match `json:"match"`
	Round     *models.Round `json:"round"`
	Player1Km *float64      `json:"player1_distance_km,omitempty"`
	Player2Km *float64      `json:"player2_distance_km,omitempty"`
	Snapshot  Snapshot      `json:"snapshot"`
}

type MatchFinishedEvent struct {
	Match         *models.Match       `json:"match"`
	WinnerID      *string             `json:"winner_id,omitempty"`
	Snapshot      Snapshot            `json:"snapshot"`
	RatingChanges []models.EloHistory `json:"rating_changes,omitempty"`
}

type MatchReadyEvent struct {
	Match *models.Match `json:"match"`
}

// Notifier is the fire-and-forget broadcasting collaborator. Implementations
// must never block the scoring path.
type Notifier interface {
	RoundStarted(ev RoundStartedEvent)
	RoundFinished(ev RoundFinishedEvent)
	MatchFinished(ev MatchFinishedEvent)
	MatchReady(ev MatchReadyEvent)
}

// LogNotifier writes events to the service log. Useful standalone and as
// the fallback when no stream hub is wired.
type LogNotifier struct{}

func (LogNotifier) RoundStarted(ev RoundStartedEvent) {
	log.Printf("[Notify] round %d started for match %s", ev.Round.RoundNumber, ev.Match.ID)
}

func (LogNotifier) RoundFinished(ev RoundFinishedEvent) {
	log.Printf("[Notify] round %s finished", ev.Round.ID)
}

func (LogNotifier) MatchFinished(ev MatchFinishedEvent) {
	winner := "draw"
	if ev.WinnerID != nil {
		winner = *ev.WinnerID
	}
	log.Printf("[Notify] match %s finished, winner: %s", ev.Match.ID, winner)
}

func (LogNotifier) MatchReady(ev MatchReadyEvent) {
	log.Printf("[Notify] match %s ready", ev.Match.ID)
}
