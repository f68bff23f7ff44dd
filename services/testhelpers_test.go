package services

import (
	"sync"
	"time"

	"geo-duel-service/models"
	"geo-duel-service/store"

	"github.com/google/uuid"
)

// manualScheduler captures delayed tasks so tests decide when timers fire.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []manualTask
}

type manualTask struct {
	delay time.Duration
	fn    func()
}

func (s *manualScheduler) After(d time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, manualTask{delay: d, fn: task})
}

// runDue runs (and removes) every captured task with delay <= max. Tasks
// scheduled by the tasks themselves are captured, not run.
func (s *manualScheduler) runDue(max time.Duration) {
	s.mu.Lock()
	due := make([]manualTask, 0, len(s.tasks))
	rest := s.tasks[:0]
	for _, t := range s.tasks {
		if t.delay <= max {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	s.tasks = rest
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// engine bundles a fully wired in-memory instance of the match engine.
type engine struct {
	store       *store.MemoryStore
	sched       *manualScheduler
	elo         *EloService
	match       *MatchService
	creation    *MatchCreationService
	matchmaking *MatchmakingService
	cfg         Config
}

func newEngine(cfg Config) *engine {
	st := store.NewMemoryStore()
	sched := &manualScheduler{}
	elo := NewEloService(st, cfg)
	match := NewMatchService(st, sched, LogNotifier{}, elo, cfg)
	creation := NewMatchCreationService(st, sched, match, cfg)
	matchmaking := NewMatchmakingService(st, creation, cfg)
	return &engine{
		store:       st,
		sched:       sched,
		elo:         elo,
		match:       match,
		creation:    creation,
		matchmaking: matchmaking,
		cfg:         cfg,
	}
}

func (e *engine) addPlayer(rating, gamesPlayed int) *models.Player {
	p := &models.Player{
		ID:          uuid.NewString(),
		Username:    "player-" + uuid.NewString()[:8],
		EloRating:   rating,
		GamesPlayed: gamesPlayed,
	}
	if err := e.store.SavePlayer(p); err != nil {
		panic(err)
	}
	return p
}

// addMap registers an active map whose only location is the given point, so
// every round of a match on it lands there.
func (e *engine) addMap(lat, lng float64) *models.WorldMap {
	m := &models.WorldMap{
		ID:       uuid.NewString(),
		Name:     "Test Map",
		Slug:     uuid.NewString(),
		IsActive: true,
	}
	e.store.AddMap(m, []models.Location{
		{ID: uuid.NewString(), MapID: m.ID, Lat: lat, Lng: lng},
	})
	return m
}

// startedMatch creates a match and runs the delayed start transition.
func (e *engine) startedMatch(p1, p2 *models.Player, format string) (*models.Match, *models.Round) {
	m, err := e.creation.Create(p1.ID, p2.ID, "", format)
	if err != nil {
		panic(err)
	}
	e.sched.runDue(e.cfg.StartDelay)
	m, err = e.store.GetMatch(m.ID)
	if err != nil {
		panic(err)
	}
	rounds, err := e.store.ListRounds(m.ID)
	if err != nil {
		panic(err)
	}
	return m, &rounds[0]
}

// currentRound is the highest-numbered round of a match.
func (e *engine) currentRound(matchID string) *models.Round {
	rounds, err := e.store.ListRounds(matchID)
	if err != nil || len(rounds) == 0 {
		panic("no rounds")
	}
	return &rounds[len(rounds)-1]
}

func (e *engine) reload(matchID string) *models.Match {
	m, err := e.store.GetMatch(matchID)
	if err != nil {
		panic(err)
	}
	return m
}
