package models

import "time"

// Round is the smallest scoring unit of a match. A round is finalized
// exactly once: FinishedAt doubles as the idempotency guard between a
// late lock-in and an already-fired force-timeout.
type Round struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	MatchID     string `json:"match_id" gorm:"index;not null"`
	RoundNumber int    `json:"round_number" gorm:"not null"` // 1-based

	// The true location for this round
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`

	Player1GuessLat *float64   `json:"player1_guess_lat,omitempty"`
	Player1GuessLng *float64   `json:"player1_guess_lng,omitempty"`
	Player1LockedIn bool       `json:"player1_locked_in" gorm:"default:false"`
	Player1LockedAt *time.Time `json:"player1_locked_at,omitempty"`
	Player1Score    *int       `json:"player1_score,omitempty"`

	Player2GuessLat *float64   `json:"player2_guess_lat,omitempty"`
	Player2GuessLng *float64   `json:"player2_guess_lng,omitempty"`
	Player2LockedIn bool       `json:"player2_locked_in" gorm:"default:false"`
	Player2LockedAt *time.Time `json:"player2_locked_at,omitempty"`
	Player2Score    *int       `json:"player2_score,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty" gorm:"index"`

	Timestamps
}

func (Round) TableName() string {
	return "rounds"
}

// SlotOf maps a participant to guess slot 1 or 2, or 0 for a non-participant.
func (r *Round) SlotOf(m *Match, playerID string) int {
	switch playerID {
	case m.Player1ID:
		return 1
	case m.Player2ID:
		return 2
	}
	return 0
}

// GuessOf returns the guess for a slot, or nil when the player never answered.
func (r *Round) GuessOf(slot int) (lat, lng *float64) {
	if slot == 1 {
		return r.Player1GuessLat, r.Player1GuessLng
	}
	return r.Player2GuessLat, r.Player2GuessLng
}

// LockedIn reports whether the slot's guess is frozen.
func (r *Round) LockedIn(slot int) bool {
	if slot == 1 {
		return r.Player1LockedIn
	}
	return r.Player2LockedIn
}

// LockedAt returns when the slot locked in, or nil if it never did.
func (r *Round) LockedAt(slot int) *time.Time {
	if slot == 1 {
		return r.Player1LockedAt
	}
	return r.Player2LockedAt
}
