package workers

import (
	"context"
	"log"
	"time"

	"geo-duel-service/services"
)

// PollMatchmaking drives the pairing scheduler on a fixed interval until
// the context is cancelled. A tick that loses the pairing lock returns 0
// and simply waits for the next interval — no retry inside a tick.
func PollMatchmaking(ctx context.Context, matchmaking *services.MatchmakingService, interval time.Duration) {
	log.Printf("[Matchmaker] polling every %v", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Matchmaker] stopping")
			return
		case <-ticker.C:
			if created := matchmaking.Tick(); created > 0 {
				log.Printf("[Matchmaker] created %d match(es)", created)
			}
		}
	}
}
