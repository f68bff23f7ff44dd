package services

import "time"

// Config holds the engine's tuning parameters. Defaults are the shipped
// product values; tests construct their own.
type Config struct {
	// Matchmaking
	BaseEloWindow         int           // rating gap allowed at wait time 0
	WindowExpansionPerSec float64       // rating points the window grows per waiting second
	StartDelay            time.Duration // gap between match creation and round 1 start

	// Rounds
	RoundTimeout     time.Duration // classic and bo-N
	RushRoundTimeout time.Duration
	LockInTimeout    time.Duration // safety net once a single side has locked

	// Formats
	StartingHealth   int
	RushMaxRounds    int
	NoGuessThreshold int // consecutive zero-guess rounds before a forfeit draw

	// Scoring
	MaxScore         int
	PerfectEpsilonKm float64
	ScoreDecayKm     float64 // e-folding distance of the score curve
	MaxSpeedBonus    int

	// Elo
	DefaultRating int
	RatingFloor   int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		BaseEloWindow:         100,
		WindowExpansionPerSec: 5,
		StartDelay:            3 * time.Second,

		RoundTimeout:     60 * time.Second,
		RushRoundTimeout: 30 * time.Second,
		LockInTimeout:    15 * time.Second,

		StartingHealth:   6000,
		RushMaxRounds:    5,
		NoGuessThreshold: 3,

		MaxScore:         5000,
		PerfectEpsilonKm: 0.025,
		ScoreDecayKm:     1492.7,
		MaxSpeedBonus:    1000,

		DefaultRating: 1000,
		RatingFloor:   100,
	}
}

// RoundTimeoutFor returns the full-round deadline for a format.
func (c Config) RoundTimeoutFor(format string) time.Duration {
	if format == "rush" {
		return c.RushRoundTimeout
	}
	return c.RoundTimeout
}
