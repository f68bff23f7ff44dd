package services

import (
	"math"
	"testing"
	"time"
)

func TestHaversineParisToLondon(t *testing.T) {
	km := HaversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(km-344) > 5 {
		t.Fatalf("Paris-London distance = %.1f km, want ~344", km)
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	if km := HaversineKm(48.8566, 2.3522, 48.8566, 2.3522); km != 0 {
		t.Fatalf("distance to self = %f, want 0", km)
	}
}

func TestDistanceScorePerfect(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DistanceScore(0); got != cfg.MaxScore {
		t.Fatalf("score(0) = %d, want %d", got, cfg.MaxScore)
	}
	// Anything inside the perfect epsilon is a perfect round.
	if got := cfg.DistanceScore(cfg.PerfectEpsilonKm); got != cfg.MaxScore {
		t.Fatalf("score(epsilon) = %d, want %d", got, cfg.MaxScore)
	}
}

func TestDistanceScoreMonotonicAndBounded(t *testing.T) {
	cfg := DefaultConfig()
	distances := []float64{1, 10, 100, 500, 1000, 5000, 10000, 20000}
	prev := cfg.MaxScore
	for _, d := range distances {
		score := cfg.DistanceScore(d)
		if score < 0 {
			t.Fatalf("score(%.0f) = %d, negative", d, score)
		}
		if score > prev {
			t.Fatalf("score not decreasing: score(%.0f) = %d > %d", d, score, prev)
		}
		prev = score
	}
	// Asymptotic toward zero at antipodal distances.
	if score := cfg.DistanceScore(20000); score > 10 {
		t.Fatalf("score(20000km) = %d, want near 0", score)
	}
}

func TestSpeedBonusBounds(t *testing.T) {
	cfg := DefaultConfig()
	timeout := 30 * time.Second

	if got := cfg.SpeedBonus(0, timeout); got != cfg.MaxSpeedBonus {
		t.Fatalf("bonus at t=0 = %d, want %d", got, cfg.MaxSpeedBonus)
	}
	if got := cfg.SpeedBonus(timeout, timeout); got != 0 {
		t.Fatalf("bonus at timeout = %d, want 0", got)
	}
	if got := cfg.SpeedBonus(45*time.Second, timeout); got != 0 {
		t.Fatalf("bonus past timeout = %d, want 0", got)
	}

	mid := cfg.SpeedBonus(15*time.Second, timeout)
	if mid <= 0 || mid >= cfg.MaxSpeedBonus {
		t.Fatalf("bonus at midpoint = %d, want strictly between 0 and %d", mid, cfg.MaxSpeedBonus)
	}

	// Faster answers always earn at least as much.
	if fast, slow := cfg.SpeedBonus(5*time.Second, timeout), cfg.SpeedBonus(20*time.Second, timeout); fast <= slow {
		t.Fatalf("bonus not decreasing: 5s=%d 20s=%d", fast, slow)
	}
}
