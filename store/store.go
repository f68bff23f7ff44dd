package store

import (
	"errors"
	"time"

	"geo-duel-service/models"
)

// ErrNotFound is returned by lookups for missing records regardless of backend.
var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator for the duel engine. Everything the
// engine mutates concurrently goes through the three atomic primitives:
// TryMatchmakingLock, SubmitGuess (check-and-set on locked_in) and
// FinalizeRound (check-and-set on finished_at).
type Store interface {
	// Players
	GetPlayer(id string) (*models.Player, error)
	SavePlayer(p *models.Player) error

	// Matchmaking queue. Enqueue upserts by player id so queue membership
	// behaves as a set.
	Enqueue(e *models.QueueEntry) error
	RemoveFromQueue(playerID string) error
	QueueEntry(playerID string) (*models.QueueEntry, error)
	ListQueue() ([]models.QueueEntry, error) // oldest joined first

	// TryMatchmakingLock acquires the global pairing lock without blocking.
	// A false return means another tick holds it; callers must treat that
	// as a normal no-op.
	TryMatchmakingLock() bool
	ReleaseMatchmakingLock()

	// Maps
	GetMap(id string) (*models.WorldMap, error)
	FirstActiveMapWithLocations() (*models.WorldMap, error)
	ListLocations(mapID string) ([]models.Location, error) // stable order

	// Matches and rounds
	CreateMatch(m *models.Match) error
	GetMatch(id string) (*models.Match, error)
	SaveMatch(m *models.Match) error
	CreateRound(r *models.Round) error
	GetRound(id string) (*models.Round, error)
	ListRounds(matchID string) ([]models.Round, error) // by round number
	MarkRoundStarted(roundID string, at time.Time) error

	// SubmitGuess records a guess for one slot of a round. It refuses the
	// write (false, nil) once that slot is locked in; passing lockIn=true
	// freezes the slot and stamps its lock-in time (at) in the same atomic
	// step, so the slot's answering speed survives a later force-timeout.
	SubmitGuess(roundID string, slot int, lat, lng float64, lockIn bool, at time.Time) (bool, error)

	// FinalizeRound sets both scores and finished_at in a single
	// check-and-set gated on finished_at being null. Exactly one of the
	// racing callers (second lock-in vs force-timeout) gets true.
	FinalizeRound(roundID string, p1Score, p2Score *int, at time.Time) (bool, error)

	// Rating audit
	CreateEloHistory(rec *models.EloHistory) error
	ListEloHistory(playerID string) ([]models.EloHistory, error)
}
