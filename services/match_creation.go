package services

import (
	"errors"
	"log"
	"math/rand"

	"geo-duel-service/models"
	"geo-duel-service/store"

	"github.com/google/uuid"
)

// MatchCreationService bridges the scheduler's pairings into live matches:
// map pick, seed, round 1, and the delayed start transition.
type MatchCreationService struct {
	Store store.Store
	Sched TaskScheduler
	Match *MatchService
	Cfg   Config
}

func NewMatchCreationService(st store.Store, sched TaskScheduler, match *MatchService, cfg Config) *MatchCreationService {
	return &MatchCreationService{Store: st, Sched: sched, Match: match, Cfg: cfg}
}

// Create builds a pending match for the two players. mapID and format come
// from queue preferences; empty strings mean "whatever is available" and
// classic. Returns ErrNoLocationsAvailable when no playable map exists —
// that one is surfaced, it means the content catalog is broken.
func (s *MatchCreationService) Create(player1ID, player2ID, mapID, format string) (*models.Match, error) {
	worldMap, err := s.pickMap(mapID)
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = models.FormatClassic
	}

	m := &models.Match{
		ID:        uuid.NewString(),
		Player1ID: player1ID,
		Player2ID: player2ID,
		MapID:     worldMap.ID,
		Seed:      rand.Int63(),
		Format:    format,
		Status:    models.MatchStatusPending,
		MaxRounds: maxRoundsFor(format, s.Cfg),
	}
	if format == models.FormatClassic || format == models.FormatRush {
		m.Player1Health = s.Cfg.StartingHealth
		m.Player2Health = s.Cfg.StartingHealth
	}

	first, err := BuildRound(s.Store, m, 1)
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateMatch(m); err != nil {
		return nil, err
	}
	if err := s.Store.CreateRound(first); err != nil {
		return nil, err
	}

	// The round clock starts a beat after creation so both clients can
	// attach their event stream before round 1 is live.
	matchID := m.ID
	s.Sched.After(s.Cfg.StartDelay, func() {
		s.Match.StartMatch(matchID)
	})

	log.Printf("[MatchCreation] %s match %s: %s vs %s on %s", format, m.ID, player1ID, player2ID, worldMap.Name)
	return m, nil
}

func (s *MatchCreationService) pickMap(mapID string) (*models.WorldMap, error) {
	if mapID != "" {
		worldMap, err := s.Store.GetMap(mapID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNoLocationsAvailable
			}
			return nil, err
		}
		locs, err := s.Store.ListLocations(worldMap.ID)
		if err != nil {
			return nil, err
		}
		if !worldMap.IsActive || len(locs) == 0 {
			return nil, ErrNoLocationsAvailable
		}
		return worldMap, nil
	}

	worldMap, err := s.Store.FirstActiveMapWithLocations()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoLocationsAvailable
		}
		return nil, err
	}
	return worldMap, nil
}

func maxRoundsFor(format string, cfg Config) int {
	switch format {
	case models.FormatBo3:
		return 3
	case models.FormatBo5:
		return 5
	case models.FormatBo7:
		return 7
	case models.FormatRush:
		return cfg.RushMaxRounds
	}
	return 0 // classic runs until a health threshold or forfeit
}
