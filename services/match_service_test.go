package services

import (
	"testing"
	"time"

	"geo-duel-service/models"
)

const (
	parisLat = 48.8566
	parisLng = 2.3522
	// Roughly Lyon: far enough from Paris for a clearly lower score.
	lyonLat = 45.764
	lyonLng = 4.8357
)

func TestDelayedStartTransition(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)

	m, err := e.creation.Create(p1.ID, p2.ID, "", models.FormatClassic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Status != models.MatchStatusPending {
		t.Fatalf("fresh match status = %q, want pending", m.Status)
	}

	round := e.currentRound(m.ID)
	if round.StartedAt != nil {
		t.Fatal("round 1 must not have started_at before the scheduled transition runs")
	}

	e.sched.runDue(e.cfg.StartDelay)

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusInProgress {
		t.Fatalf("status after start transition = %q, want in_progress", m.Status)
	}
	round = e.currentRound(m.ID)
	if round.StartedAt == nil {
		t.Fatal("round 1 should have started_at after the transition")
	}
}

func TestCreateWithoutLocationsFails(t *testing.T) {
	e := newEngine(DefaultConfig())
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)

	if _, err := e.creation.Create(p1.ID, p2.ID, "", ""); err != ErrNoLocationsAvailable {
		t.Fatalf("Create without maps = %v, want ErrNoLocationsAvailable", err)
	}
}

func TestClassicDamageGoesToLowerScorer(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	// Player one nails it, player two is hundreds of km off.
	if err := e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true); err != nil {
		t.Fatalf("SubmitGuess p1: %v", err)
	}
	if err := e.match.SubmitGuess(m.ID, round.ID, p2.ID, lyonLat, lyonLng, true); err != nil {
		t.Fatalf("SubmitGuess p2: %v", err)
	}

	scored, _ := e.store.GetRound(round.ID)
	if scored.FinishedAt == nil {
		t.Fatal("both lock-ins should finalize the round")
	}
	s1, s2 := *scored.Player1Score, *scored.Player2Score
	if s1 != e.cfg.MaxScore {
		t.Fatalf("exact guess scored %d, want %d", s1, e.cfg.MaxScore)
	}
	if s2 >= s1 {
		t.Fatalf("distant guess scored %d, want < %d", s2, s1)
	}

	m = e.reload(m.ID)
	damage := s1 - s2
	if m.Player2Health != e.cfg.StartingHealth-damage {
		t.Fatalf("loser health = %d, want %d", m.Player2Health, e.cfg.StartingHealth-damage)
	}
	if m.Player1Health != e.cfg.StartingHealth {
		t.Fatalf("winner health = %d, want unchanged %d", m.Player1Health, e.cfg.StartingHealth)
	}
}

func TestDamageIsScoreGap(t *testing.T) {
	m := &models.Match{Player1Health: 6000, Player2Health: 6000}
	s1, s2 := 4000, 1000
	applyDamage(m, &s1, &s2)
	if m.Player2Health != 3000 {
		t.Fatalf("loser health = %d, want 3000 after 4000 vs 1000", m.Player2Health)
	}
	if m.Player1Health != 6000 {
		t.Fatalf("winner health = %d, want unchanged", m.Player1Health)
	}
}

func TestScoringIsIdempotent(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
	e.match.SubmitGuess(m.ID, round.ID, p2.ID, lyonLat, lyonLng, true)

	first, _ := e.store.GetRound(round.ID)
	healthAfter := e.reload(m.ID).Player2Health

	// A stale force-timeout firing after the round finished must change
	// nothing: not scores, not finished_at, not health.
	e.match.ForceTimeoutFired(round.ID)
	e.match.ForceTimeoutFired(round.ID)

	second, _ := e.store.GetRound(round.ID)
	if *second.Player1Score != *first.Player1Score || *second.Player2Score != *first.Player2Score {
		t.Fatal("re-scoring changed round scores")
	}
	if !second.FinishedAt.Equal(*first.FinishedAt) {
		t.Fatal("re-scoring changed finished_at")
	}
	if e.reload(m.ID).Player2Health != healthAfter {
		t.Fatal("re-scoring changed match health")
	}
}

func TestLockedGuessIsFrozen(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
	// A later write for the locked slot is ignored without error.
	if err := e.match.SubmitGuess(m.ID, round.ID, p1.ID, lyonLat, lyonLng, true); err != nil {
		t.Fatalf("resubmission after lock errored: %v", err)
	}

	r, _ := e.store.GetRound(round.ID)
	if *r.Player1GuessLat != parisLat {
		t.Fatalf("locked guess mutated: lat %f", *r.Player1GuessLat)
	}
}

func TestUnlockedGuessCanBeRevised(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	e.match.SubmitGuess(m.ID, round.ID, p1.ID, lyonLat, lyonLng, false)
	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, false)

	r, _ := e.store.GetRound(round.ID)
	if *r.Player1GuessLat != parisLat {
		t.Fatalf("unlocked guess not revised: lat %f", *r.Player1GuessLat)
	}
	if r.FinishedAt != nil {
		t.Fatal("unlocked guesses must not trigger scoring")
	}
}

func TestGuessFromNonParticipantRejected(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	stranger := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	if err := e.match.SubmitGuess(m.ID, round.ID, stranger.ID, parisLat, parisLng, true); err != ErrUnauthorized {
		t.Fatalf("stranger guess = %v, want ErrUnauthorized", err)
	}
	r, _ := e.store.GetRound(round.ID)
	if r.Player1GuessLat != nil || r.Player2GuessLat != nil {
		t.Fatal("rejected guess must not touch round state")
	}
}

func TestSingleLockInArmsSafetyTimer(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	before := e.sched.pending()
	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
	if e.sched.pending() != before+1 {
		t.Fatal("first lock-in should schedule the short safety timeout")
	}
}

func TestForceTimeoutScoresMissingGuessAsNull(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatClassic)

	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
	e.match.ForceTimeoutFired(round.ID)

	r, _ := e.store.GetRound(round.ID)
	if r.FinishedAt == nil {
		t.Fatal("force timeout should finalize the round")
	}
	if r.Player2Score != nil {
		t.Fatalf("absent guess scored %d, want nil", *r.Player2Score)
	}
	if *r.Player1Score != e.cfg.MaxScore {
		t.Fatalf("perfect guess scored %d, want %d", *r.Player1Score, e.cfg.MaxScore)
	}

	// Null deducts health like a zero.
	m = e.reload(m.ID)
	if m.Player2Health != e.cfg.StartingHealth-e.cfg.MaxScore {
		t.Fatalf("loser health = %d, want %d", m.Player2Health, e.cfg.StartingHealth-e.cfg.MaxScore)
	}
}

func TestBo3CompletesAtTwoWins(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatBo3)

	for i := 0; i < 2; i++ {
		round := e.currentRound(m.ID)
		e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
		e.match.SubmitGuess(m.ID, round.ID, p2.ID, lyonLat, lyonLng, true)
	}

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusCompleted {
		t.Fatalf("status after two straight wins = %q, want completed", m.Status)
	}
	if m.Player1Wins != 2 {
		t.Fatalf("winner has %d round wins, want 2", m.Player1Wins)
	}
	if m.WinnerID == nil || *m.WinnerID != p1.ID {
		t.Fatal("winner should be player one")
	}
	rounds, _ := e.store.ListRounds(m.ID)
	if len(rounds) != 2 {
		t.Fatalf("bo3 decided in straight rounds should have 2 rounds, got %d", len(rounds))
	}
}

func TestBo3AllTiedRoundsEndsInDraw(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatBo3)

	// Identical guesses every round: no round wins for either side.
	for i := 0; i < 3; i++ {
		round := e.currentRound(m.ID)
		e.match.SubmitGuess(m.ID, round.ID, p1.ID, lyonLat, lyonLng, true)
		e.match.SubmitGuess(m.ID, round.ID, p2.ID, lyonLat, lyonLng, true)
	}

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusCompleted {
		t.Fatalf("status after max rounds = %q, want completed", m.Status)
	}
	if m.WinnerID != nil {
		t.Fatalf("tied bo3 should be a draw, got winner %s", *m.WinnerID)
	}
}

func TestRushCompletesByCumulativeScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RushMaxRounds = 2
	e := newEngine(cfg)
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatRush)

	for i := 0; i < 2; i++ {
		round := e.currentRound(m.ID)
		e.match.SubmitGuess(m.ID, round.ID, p2.ID, parisLat, parisLng, true)
		e.match.SubmitGuess(m.ID, round.ID, p1.ID, lyonLat, lyonLng, true)
	}

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusCompleted {
		t.Fatalf("rush status after %d rounds = %q, want completed", cfg.RushMaxRounds, m.Status)
	}
	if m.WinnerID == nil || *m.WinnerID != p2.ID {
		t.Fatal("rush winner should be the higher cumulative scorer")
	}
	// Health bookkeeping ran but never decides rush.
	if m.Player1Health == cfg.StartingHealth {
		t.Fatal("rush should still track display health")
	}
}

func TestRushNeverEndsEarlyOnHealth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RushMaxRounds = 5
	cfg.StartingHealth = 100 // first round damage blows way past this
	e := newEngine(cfg)
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatRush)

	e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
	e.match.ForceTimeoutFired(round.ID)

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusInProgress {
		t.Fatalf("rush ended early on health: status %q", m.Status)
	}
	if m.Player2Health >= 0 {
		t.Fatalf("expected deep negative display health, got %d", m.Player2Health)
	}
}

func TestRushSpeedBonusUsesLockInTime(t *testing.T) {
	cfg := DefaultConfig()
	e := newEngine(cfg)
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, round := e.startedMatch(p1, p2, models.FormatRush)

	if err := e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}

	// The opponent stalls: shift the round 20s deeper into its window
	// before the timeout fires. The bonus was earned at lock-in and must
	// not shrink with the opponent's delay.
	r, _ := e.store.GetRound(round.ID)
	started := r.StartedAt.Add(-20 * time.Second)
	locked := r.Player1LockedAt.Add(-20 * time.Second)
	r.StartedAt, r.Player1LockedAt = &started, &locked
	e.store.CreateRound(r) // memory store create overwrites by id

	e.match.ForceTimeoutFired(round.ID)

	scored, _ := e.store.GetRound(round.ID)
	want := cfg.MaxScore + cfg.MaxSpeedBonus
	if *scored.Player1Score < want-1 {
		t.Fatalf("instant perfect rush guess scored %d, want ~%d", *scored.Player1Score, want)
	}
}

func TestGuessDuringPendingWindowIsNotStarted(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)

	m, err := e.creation.Create(p1.ID, p2.ID, "", models.FormatClassic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	round := e.currentRound(m.ID)

	if err := e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true); err != ErrMatchNotStarted {
		t.Fatalf("guess before start = %v, want ErrMatchNotStarted", err)
	}

	// Once the delayed start runs, the same guess goes through.
	e.sched.runDue(e.cfg.StartDelay)
	if err := e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true); err != nil {
		t.Fatalf("guess after start: %v", err)
	}
}

func TestNoGuessForfeitDraw(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatClassic)

	for i := 0; i < e.cfg.NoGuessThreshold; i++ {
		round := e.currentRound(m.ID)
		e.match.ForceTimeoutFired(round.ID)
	}

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusCompleted {
		t.Fatalf("status after %d idle rounds = %q, want completed", e.cfg.NoGuessThreshold, m.Status)
	}
	if m.WinnerID != nil {
		t.Fatal("forfeit completion should be a draw")
	}
	if m.NoGuessRounds != e.cfg.NoGuessThreshold {
		t.Fatalf("no_guess_rounds = %d, want %d", m.NoGuessRounds, e.cfg.NoGuessThreshold)
	}
}

func TestOneGuessResetsForfeitCounter(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatClassic)

	round := e.currentRound(m.ID)
	e.match.ForceTimeoutFired(round.ID)
	if e.reload(m.ID).NoGuessRounds != 1 {
		t.Fatal("idle round should bump the forfeit counter")
	}

	round = e.currentRound(m.ID)
	e.match.SubmitGuess(m.ID, round.ID, p1.ID, lyonLat, lyonLng, true)
	e.match.ForceTimeoutFired(round.ID)
	if e.reload(m.ID).NoGuessRounds != 0 {
		t.Fatal("any guess should reset the forfeit counter")
	}
}

func TestClassicCompletionAppliesElo(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)
	m, _ := e.startedMatch(p1, p2, models.FormatClassic)

	// Perfect vs absent: 5000 damage per round, 6000 starting health,
	// so the second round ends it.
	for i := 0; i < 2; i++ {
		round := e.currentRound(m.ID)
		e.match.SubmitGuess(m.ID, round.ID, p1.ID, parisLat, parisLng, true)
		e.match.ForceTimeoutFired(round.ID)
	}

	m = e.reload(m.ID)
	if m.Status != models.MatchStatusCompleted {
		t.Fatalf("status = %q, want completed", m.Status)
	}
	if m.WinnerID == nil || *m.WinnerID != p1.ID {
		t.Fatal("player one should win on health")
	}

	w, _ := e.store.GetPlayer(p1.ID)
	l, _ := e.store.GetPlayer(p2.ID)
	if w.EloRating <= 1000 || l.EloRating >= 1000 {
		t.Fatalf("elo not applied on completion: %d / %d", w.EloRating, l.EloRating)
	}
	if hist, _ := e.store.ListEloHistory(p1.ID); len(hist) != 1 {
		t.Fatalf("winner elo history rows = %d, want 1", len(hist))
	}
}

// Full scenario: queue → tick → delayed start → perfect guess → timeout.
func TestEndToEndDuel(t *testing.T) {
	e := newEngine(DefaultConfig())
	e.addMap(parisLat, parisLng)
	p1 := e.addPlayer(1000, 10)
	p2 := e.addPlayer(1000, 10)

	if err := e.matchmaking.JoinQueue(p1.ID, "", ""); err != nil {
		t.Fatalf("JoinQueue p1: %v", err)
	}
	if err := e.matchmaking.JoinQueue(p2.ID, "", ""); err != nil {
		t.Fatalf("JoinQueue p2: %v", err)
	}
	if created := e.matchmaking.Tick(); created != 1 {
		t.Fatalf("Tick() = %d, want 1", created)
	}

	entries, _ := e.store.ListQueue()
	if len(entries) != 0 {
		t.Fatal("queue should be drained")
	}
	ms := e.store.ListMatches()
	if len(ms) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(ms))
	}
	m := ms[0]
	if !m.HasPlayer(p1.ID) || !m.HasPlayer(p2.ID) {
		t.Fatal("match should pair the two queued players")
	}

	round := e.currentRound(m.ID)
	if round.StartedAt != nil {
		t.Fatal("round clock must not start before the delayed transition")
	}
	e.sched.runDue(e.cfg.StartDelay)
	round = e.currentRound(m.ID)
	if round.StartedAt == nil {
		t.Fatal("round clock should start with the delayed transition")
	}

	if err := e.match.SubmitGuess(m.ID, round.ID, m.Player1ID, parisLat, parisLng, true); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	// Opponent never answers; the safety timer fires.
	e.match.ForceTimeoutFired(round.ID)

	scored, _ := e.store.GetRound(round.ID)
	if *scored.Player1Score != 5000 {
		t.Fatalf("exact guess scored %d, want 5000", *scored.Player1Score)
	}
	if scored.Player2Score != nil {
		t.Fatal("silent opponent should score nil")
	}

	m = e.reload(m.ID)
	if m.Player2Health != e.cfg.StartingHealth-5000 {
		t.Fatalf("loser health = %d, want %d", m.Player2Health, e.cfg.StartingHealth-5000)
	}
}
