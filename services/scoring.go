package services

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// HaversineKm is the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// DistanceScore maps a guess distance to [0, MaxScore]. Anything within the
// perfect epsilon scores the maximum; beyond that the score decays
// exponentially toward 0 and never goes negative.
func (c Config) DistanceScore(distanceKm float64) int {
	if distanceKm <= c.PerfectEpsilonKm {
		return c.MaxScore
	}
	score := int(math.Round(float64(c.MaxScore) * math.Exp(-distanceKm/c.ScoreDecayKm)))
	if score < 0 {
		return 0
	}
	if score > c.MaxScore {
		return c.MaxScore
	}
	return score
}

// SpeedBonus decays linearly from MaxSpeedBonus at elapsed=0 to zero at the
// round timeout. Rush-only; added on top of the distance score.
func (c Config) SpeedBonus(elapsed, timeout time.Duration) int {
	if timeout <= 0 || elapsed >= timeout {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	frac := 1 - elapsed.Seconds()/timeout.Seconds()
	return int(math.Round(float64(c.MaxSpeedBonus) * frac))
}
