package services

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"geo-duel-service/models"
	"geo-duel-service/store"

	"github.com/google/uuid"
)

// MatchService is the round state machine. Every round moves through
// awaiting guesses → locked/forced → scored → health-or-wins update →
// next round or completion, and the scoring step runs exactly once per
// round no matter how many callers race into it.
type MatchService struct {
	Store    store.Store
	Sched    TaskScheduler
	Notifier Notifier
	Elo      *EloService
	Cfg      Config
}

func NewMatchService(st store.Store, sched TaskScheduler, notifier Notifier, elo *EloService, cfg Config) *MatchService {
	return &MatchService{Store: st, Sched: sched, Notifier: notifier, Elo: elo, Cfg: cfg}
}

// StartMatch runs the delayed pending → in_progress transition: round 1
// gets its started_at, the round clock is armed, and both players are told
// the match is live. Scheduled shortly after creation so clients have time
// to attach their event stream first.
func (s *MatchService) StartMatch(matchID string) {
	m, err := s.Store.GetMatch(matchID)
	if err != nil {
		log.Printf("[Match] start %s: %v", matchID, err)
		return
	}
	if m.Status != models.MatchStatusPending {
		return
	}
	rounds, err := s.Store.ListRounds(matchID)
	if err != nil || len(rounds) == 0 {
		log.Printf("[Match] start %s: no rounds (%v)", matchID, err)
		return
	}
	first := rounds[0]

	m.Status = models.MatchStatusInProgress
	if err := s.Store.SaveMatch(m); err != nil {
		log.Printf("[Match] start %s: %v", matchID, err)
		return
	}
	s.beginRound(m, &first)
	s.Notifier.MatchReady(MatchReadyEvent{Match: m})
}

// beginRound stamps started_at, arms the full-round force-timeout and
// announces the round.
func (s *MatchService) beginRound(m *models.Match, r *models.Round) {
	now := time.Now()
	if err := s.Store.MarkRoundStarted(r.ID, now); err != nil {
		log.Printf("[Match] mark round %s started: %v", r.ID, err)
	}
	r.StartedAt = &now

	roundID := r.ID
	s.Sched.After(s.Cfg.RoundTimeoutFor(m.Format), func() {
		s.ForceTimeoutFired(roundID)
	})

	s.Notifier.RoundStarted(RoundStartedEvent{Match: m, Round: r, Snapshot: snapshotOf(m)})
}

// SubmitGuess records a player's guess for a round. Unlocked guesses may be
// resubmitted freely (live preview); a locked slot silently refuses further
// writes. The second lock-in of a round triggers scoring.
func (s *MatchService) SubmitGuess(matchID, roundID, playerID string, lat, lng float64, lockIn bool) error {
	m, err := s.Store.GetMatch(matchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if !m.HasPlayer(playerID) {
		return ErrUnauthorized
	}
	if m.Status == models.MatchStatusPending {
		// Guess raced the delayed start; the round clock has not begun.
		return ErrMatchNotStarted
	}
	if m.Status != models.MatchStatusInProgress {
		return ErrAlreadyFinished
	}

	r, err := s.Store.GetRound(roundID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoundNotFound
		}
		return err
	}
	if r.MatchID != matchID {
		return ErrRoundNotFound
	}
	if r.FinishedAt != nil {
		// Late guess racing a finished round: expected, ignored.
		return nil
	}

	slot := r.SlotOf(m, playerID)
	accepted, err := s.Store.SubmitGuess(roundID, slot, lat, lng, lockIn, time.Now())
	if err != nil {
		return err
	}
	if !accepted || !lockIn {
		return nil
	}

	// This player just locked in. If the opponent already has, score now;
	// otherwise arm the short safety timer so the round cannot stall on a
	// vanished opponent.
	r, err = s.Store.GetRound(roundID)
	if err != nil {
		return err
	}
	otherSlot := 3 - slot
	if r.LockedIn(otherSlot) {
		s.scoreRound(m, r)
		return nil
	}

	delay := s.Cfg.LockInTimeout
	if r.StartedAt != nil {
		remaining := r.StartedAt.Add(s.Cfg.RoundTimeoutFor(m.Format)).Sub(time.Now())
		if remaining < delay {
			delay = remaining
		}
	}
	if delay < 0 {
		delay = 0
	}
	s.Sched.After(delay, func() {
		s.ForceTimeoutFired(roundID)
	})
	return nil
}

// ForceTimeoutFired finalizes a stalled round with whatever guesses exist.
// Firing after the round already finished is the normal case for the
// safety timers and must stay a cheap no-op.
func (s *MatchService) ForceTimeoutFired(roundID string) {
	r, err := s.Store.GetRound(roundID)
	if err != nil {
		log.Printf("[Match] timeout for round %s: %v", roundID, err)
		return
	}
	if r.FinishedAt != nil {
		return
	}
	m, err := s.Store.GetMatch(r.MatchID)
	if err != nil {
		log.Printf("[Match] timeout for round %s: %v", roundID, err)
		return
	}
	if m.Status != models.MatchStatusInProgress {
		return
	}
	s.scoreRound(m, r)
}

// scoreRound is the single scoring path. The FinalizeRound check-and-set
// picks exactly one winner between a racing lock-in and force-timeout; the
// loser returns here without side effects.
func (s *MatchService) scoreRound(m *models.Match, r *models.Round) {
	now := time.Now()

	p1Score := s.scoreSlot(m, r, 1)
	p2Score := s.scoreSlot(m, r, 2)

	finalized, err := s.Store.FinalizeRound(r.ID, p1Score, p2Score, now)
	if err != nil {
		log.Printf("[Match] finalize round %s: %v", r.ID, err)
		return
	}
	if !finalized {
		// Lost the race; the other caller owns the pipeline.
		return
	}
	r.Player1Score = p1Score
	r.Player2Score = p2Score
	r.FinishedAt = &now

	rules := rulesFor(m.Format)
	rules.applyRoundOutcome(m, p1Score, p2Score)

	// A player with no guess scores nil, not zero: "didn't answer" and
	// "answered badly" are different things in the stats.
	noGuess1 := r.Player1GuessLat == nil
	noGuess2 := r.Player2GuessLat == nil
	if noGuess1 && noGuess2 {
		m.NoGuessRounds++
	} else {
		m.NoGuessRounds = 0
	}

	p1Total, p2Total := s.cumulativeScores(m.ID)

	var completed bool
	var winnerID *string
	if m.NoGuessRounds >= s.Cfg.NoGuessThreshold {
		// Both sides idle for too many rounds in a row: forfeit draw,
		// regardless of format.
		completed, winnerID = true, nil
	} else {
		completed, winnerID = rules.checkCompletion(m, r.RoundNumber, p1Total, p2Total)
	}

	s.Notifier.RoundFinished(RoundFinishedEvent{
		Match:     m,
		Round:     r,
		Player1Km: s.distanceOf(r, 1),
		Player2Km: s.distanceOf(r, 2),
		Snapshot:  snapshotOf(m),
	})

	if completed {
		s.completeMatch(m, winnerID, p1Total, p2Total)
		return
	}

	if err := s.Store.SaveMatch(m); err != nil {
		log.Printf("[Match] save %s: %v", m.ID, err)
		return
	}
	s.nextRound(m, r.RoundNumber)
}

// scoreSlot computes one player's score for the round, nil when they never
// guessed. Rush stacks the speed bonus on top of the distance score; the
// bonus measures the player's own lock-in time against the round clock, so
// an opponent running out the timeout cannot erode it.
func (s *MatchService) scoreSlot(m *models.Match, r *models.Round, slot int) *int {
	lat, lng := r.GuessOf(slot)
	if lat == nil || lng == nil {
		return nil
	}
	score := s.Cfg.DistanceScore(HaversineKm(*lat, *lng, r.Lat, r.Lng))
	if m.Format == models.FormatRush && r.StartedAt != nil {
		if lockedAt := r.LockedAt(slot); lockedAt != nil {
			score += s.Cfg.SpeedBonus(lockedAt.Sub(*r.StartedAt), s.Cfg.RushRoundTimeout)
		}
	}
	return &score
}

func (s *MatchService) distanceOf(r *models.Round, slot int) *float64 {
	lat, lng := r.GuessOf(slot)
	if lat == nil || lng == nil {
		return nil
	}
	km := HaversineKm(*lat, *lng, r.Lat, r.Lng)
	return &km
}

func (s *MatchService) cumulativeScores(matchID string) (int, int) {
	rounds, err := s.Store.ListRounds(matchID)
	if err != nil {
		log.Printf("[Match] list rounds for %s: %v", matchID, err)
		return 0, 0
	}
	var p1, p2 int
	for _, r := range rounds {
		p1 += scoreOrZero(r.Player1Score)
		p2 += scoreOrZero(r.Player2Score)
	}
	return p1, p2
}

func (s *MatchService) completeMatch(m *models.Match, winnerID *string, p1Total, p2Total int) {
	m.Status = models.MatchStatusCompleted
	m.WinnerID = winnerID
	if err := s.Store.SaveMatch(m); err != nil {
		log.Printf("[Match] complete %s: %v", m.ID, err)
		return
	}

	// Rating changes apply uniformly across formats.
	changes := s.Elo.Apply(m, p1Total, p2Total)

	s.Notifier.MatchFinished(MatchFinishedEvent{
		Match:         m,
		WinnerID:      winnerID,
		Snapshot:      snapshotOf(m),
		RatingChanges: changes,
	})
}

// nextRound creates round N+1 at the next seeded location and starts it.
func (s *MatchService) nextRound(m *models.Match, lastNumber int) {
	r, err := BuildRound(s.Store, m, lastNumber+1)
	if err != nil {
		log.Printf("[Match] build round %d for %s: %v", lastNumber+1, m.ID, err)
		return
	}
	if err := s.Store.CreateRound(r); err != nil {
		log.Printf("[Match] create round %d for %s: %v", lastNumber+1, m.ID, err)
		return
	}
	s.beginRound(m, r)
}

// BuildRound picks the location for a round number deterministically from
// the match seed: a seeded permutation of the map's locations, so rounds
// never repeat until the pool is exhausted and replays are reproducible.
func BuildRound(st store.Store, m *models.Match, number int) (*models.Round, error) {
	locs, err := st.ListLocations(m.MapID)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, ErrNoLocationsAvailable
	}
	rng := rand.New(rand.NewSource(m.Seed))
	perm := rng.Perm(len(locs))
	loc := locs[perm[(number-1)%len(locs)]]

	return &models.Round{
		ID:          uuid.NewString(),
		MatchID:     m.ID,
		RoundNumber: number,
		Lat:         loc.Lat,
		Lng:         loc.Lng,
		Heading:     loc.Heading,
	}, nil
}
