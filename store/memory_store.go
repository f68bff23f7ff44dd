package store

import (
	"sort"
	"sync"
	"time"

	"geo-duel-service/models"
)

// MemoryStore implements Store entirely in memory with the same atomicity
// contract as GormStore. It backs the test suite and local development
// without a database.
type MemoryStore struct {
	mu sync.Mutex

	players    map[string]*models.Player
	queue      map[string]*models.QueueEntry
	maps       map[string]*models.WorldMap
	mapOrder   []string
	locations  map[string][]models.Location
	matches    map[string]*models.Match
	rounds     map[string]*models.Round
	eloHistory []models.EloHistory

	mmLock sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:   make(map[string]*models.Player),
		queue:     make(map[string]*models.QueueEntry),
		maps:      make(map[string]*models.WorldMap),
		locations: make(map[string][]models.Location),
		matches:   make(map[string]*models.Match),
		rounds:    make(map[string]*models.Round),
	}
}

func (s *MemoryStore) GetPlayer(id string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SavePlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.players[p.ID] = &cp
	return nil
}

func (s *MemoryStore) Enqueue(e *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.queue[e.PlayerID]; ok {
		existing.MapPreference = e.MapPreference
		existing.FormatPreference = e.FormatPreference
		return nil
	}
	cp := *e
	if cp.JoinedAt.IsZero() {
		cp.JoinedAt = time.Now()
	}
	s.queue[e.PlayerID] = &cp
	return nil
}

func (s *MemoryStore) RemoveFromQueue(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, playerID)
	return nil
}

func (s *MemoryStore) QueueEntry(playerID string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.queue[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) ListQueue() ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.QueueEntry, 0, len(s.queue))
	for _, e := range s.queue {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].PlayerID < entries[j].PlayerID
		}
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries, nil
}

func (s *MemoryStore) TryMatchmakingLock() bool {
	return s.mmLock.TryLock()
}

func (s *MemoryStore) ReleaseMatchmakingLock() {
	s.mmLock.Unlock()
}

func (s *MemoryStore) AddMap(m *models.WorldMap, locs []models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.maps[m.ID] = &cp
	s.mapOrder = append(s.mapOrder, m.ID)
	s.locations[m.ID] = append([]models.Location{}, locs...)
}

func (s *MemoryStore) GetMap(id string) (*models.WorldMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) FirstActiveMapWithLocations() (*models.WorldMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.mapOrder {
		m := s.maps[id]
		if m.IsActive && len(s.locations[id]) > 0 {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListLocations(mapID string) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Location{}, s.locations[mapID]...), nil
}

func (s *MemoryStore) CreateMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

// ListMatches returns every stored match. Test/introspection helper, not
// part of the Store contract.
func (s *MemoryStore) ListMatches() []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

func (s *MemoryStore) GetMatch(id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) SaveMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateRound(r *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rounds[r.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRound(id string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListRounds(matchID string) ([]models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rounds []models.Round
	for _, r := range s.rounds {
		if r.MatchID == matchID {
			rounds = append(rounds, *r)
		}
	}
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].RoundNumber < rounds[j].RoundNumber
	})
	return rounds, nil
}

func (s *MemoryStore) MarkRoundStarted(roundID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return ErrNotFound
	}
	if r.StartedAt == nil {
		t := at
		r.StartedAt = &t
	}
	return nil
}

func (s *MemoryStore) SubmitGuess(roundID string, slot int, lat, lng float64, lockIn bool, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return false, ErrNotFound
	}
	la, ln, t := lat, lng, at
	if slot == 1 {
		if r.Player1LockedIn {
			return false, nil
		}
		r.Player1GuessLat, r.Player1GuessLng = &la, &ln
		r.Player1LockedIn = lockIn
		if lockIn {
			r.Player1LockedAt = &t
		}
	} else {
		if r.Player2LockedIn {
			return false, nil
		}
		r.Player2GuessLat, r.Player2GuessLng = &la, &ln
		r.Player2LockedIn = lockIn
		if lockIn {
			r.Player2LockedAt = &t
		}
	}
	return true, nil
}

func (s *MemoryStore) FinalizeRound(roundID string, p1Score, p2Score *int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return false, ErrNotFound
	}
	if r.FinishedAt != nil {
		return false, nil
	}
	t := at
	r.FinishedAt = &t
	r.Player1Score = p1Score
	r.Player2Score = p2Score
	return true, nil
}

func (s *MemoryStore) CreateEloHistory(rec *models.EloHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eloHistory = append(s.eloHistory, *rec)
	return nil
}

func (s *MemoryStore) ListEloHistory(playerID string) ([]models.EloHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []models.EloHistory
	for _, rec := range s.eloHistory {
		if rec.PlayerID == playerID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
