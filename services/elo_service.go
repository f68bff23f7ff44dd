package services

import (
	"errors"
	"log"
	"math"

	"geo-duel-service/models"
	"geo-duel-service/store"

	"github.com/google/uuid"
)

// EloService applies rating adjustments once a match completes and writes
// the audit trail. It is deliberately forgiving: a missing player record
// makes the whole application a silent no-op.
type EloService struct {
	Store store.Store
	Cfg   Config
}

func NewEloService(st store.Store, cfg Config) *EloService {
	return &EloService{Store: st, Cfg: cfg}
}

// ExpectedScore is the standard base-400 logistic win probability.
func ExpectedScore(rating, opponentRating int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponentRating-rating)/400.0))
}

// kFactor tiers by experience: new players swing hardest, experienced
// high-rated players the least.
func kFactor(p *models.Player) float64 {
	switch {
	case p.GamesPlayed < 10:
		return 40
	case p.GamesPlayed < 30:
		return 32
	case p.EloRating >= 2000:
		return 16
	default:
		return 24
	}
}

// marginOf expresses how dominant the win was as a fraction in [0, 1].
// Classic: winner's remaining health fraction. Rush: cumulative score gap.
// bo-N: wins gap over the wins needed.
func (s *EloService) marginOf(m *models.Match, p1Total, p2Total int) float64 {
	if m.WinnerID == nil {
		return 0
	}
	switch m.Format {
	case models.FormatClassic:
		winnerHealth := m.Player1Health
		if *m.WinnerID == m.Player2ID {
			winnerHealth = m.Player2Health
		}
		return clamp01(float64(winnerHealth) / float64(s.Cfg.StartingHealth))
	case models.FormatRush:
		total := p1Total + p2Total
		if total == 0 {
			return 0
		}
		gap := math.Abs(float64(p1Total - p2Total))
		return clamp01(gap / float64(total))
	default: // bo-N
		winsNeeded := (m.MaxRounds + 1) / 2
		if winsNeeded == 0 {
			return 0
		}
		gap := math.Abs(float64(m.Player1Wins - m.Player2Wins))
		return clamp01(gap / float64(winsNeeded))
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Apply adjusts both players' ratings for a completed match and records
// one EloHistory row per player. Totals are each side's cumulative round
// score (only the rush margin reads them). Returns the history rows, or
// nil when either player record is missing.
func (s *EloService) Apply(m *models.Match, p1Total, p2Total int) []models.EloHistory {
	p1, err := s.Store.GetPlayer(m.Player1ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Elo] load player %s: %v", m.Player1ID, err)
		}
		return nil
	}
	p2, err := s.Store.GetPlayer(m.Player2ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Elo] load player %s: %v", m.Player2ID, err)
		}
		return nil
	}

	var actual1 float64
	switch {
	case m.WinnerID == nil:
		actual1 = 0.5
	case *m.WinnerID == p1.ID:
		actual1 = 1
	default:
		actual1 = 0
	}

	// Dominant wins move rating further; draws use the plain K.
	marginMul := 1 + 0.5*s.marginOf(m, p1Total, p2Total)

	before1, before2 := p1.EloRating, p2.EloRating
	delta1 := int(math.Round(kFactor(p1) * marginMul * (actual1 - ExpectedScore(before1, before2))))
	delta2 := int(math.Round(kFactor(p2) * marginMul * ((1 - actual1) - ExpectedScore(before2, before1))))

	p1.EloRating = s.clampFloor(before1 + delta1)
	p2.EloRating = s.clampFloor(before2 + delta2)
	p1.GamesPlayed++
	p2.GamesPlayed++
	switch actual1 {
	case 1:
		p1.Wins++
		p2.Losses++
	case 0:
		p1.Losses++
		p2.Wins++
	default:
		p1.Draws++
		p2.Draws++
	}

	if err := s.Store.SavePlayer(p1); err != nil {
		log.Printf("[Elo] save player %s: %v", p1.ID, err)
	}
	if err := s.Store.SavePlayer(p2); err != nil {
		log.Printf("[Elo] save player %s: %v", p2.ID, err)
	}

	records := []models.EloHistory{
		{
			ID:             uuid.NewString(),
			PlayerID:       p1.ID,
			MatchID:        m.ID,
			RatingBefore:   before1,
			RatingAfter:    p1.EloRating,
			RatingChange:   p1.EloRating - before1,
			OpponentRating: before2,
		},
		{
			ID:             uuid.NewString(),
			PlayerID:       p2.ID,
			MatchID:        m.ID,
			RatingBefore:   before2,
			RatingAfter:    p2.EloRating,
			RatingChange:   p2.EloRating - before2,
			OpponentRating: before1,
		},
	}
	for i := range records {
		if err := s.Store.CreateEloHistory(&records[i]); err != nil {
			log.Printf("[Elo] history write for %s: %v", records[i].PlayerID, err)
		}
	}
	return records
}

func (s *EloService) clampFloor(rating int) int {
	if rating < s.Cfg.RatingFloor {
		return s.Cfg.RatingFloor
	}
	return rating
}
