package services

import (
	"errors"
	"log"
	"math"
	"time"

	"geo-duel-service/models"
	"geo-duel-service/store"

	"github.com/google/uuid"
)

// MatchmakingService owns the waiting queue and the pairing policy. Tick
// runs the pairing pass; everything else is queue membership plumbing.
type MatchmakingService struct {
	Store    store.Store
	Creation *MatchCreationService
	Cfg      Config
}

func NewMatchmakingService(st store.Store, creation *MatchCreationService, cfg Config) *MatchmakingService {
	return &MatchmakingService{Store: st, Creation: creation, Cfg: cfg}
}

// JoinQueue adds a player to the waiting queue. Re-joining refreshes
// preferences instead of duplicating the entry.
func (s *MatchmakingService) JoinQueue(playerID, mapPref, formatPref string) error {
	if _, err := s.Store.GetPlayer(playerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if formatPref == models.FormatClassic {
		formatPref = "" // classic is the absence value
	}
	return s.Store.Enqueue(&models.QueueEntry{
		ID:               uuid.NewString(),
		PlayerID:         playerID,
		MapPreference:    mapPref,
		FormatPreference: formatPref,
		JoinedAt:         time.Now(),
	})
}

// LeaveQueue removes a player; leaving while not queued is a no-op.
func (s *MatchmakingService) LeaveQueue(playerID string) error {
	return s.Store.RemoveFromQueue(playerID)
}

// IsQueued reports whether the player is currently waiting.
func (s *MatchmakingService) IsQueued(playerID string) bool {
	_, err := s.Store.QueueEntry(playerID)
	return err == nil
}

// candidate is a queue entry joined with its live player record.
type candidate struct {
	entry  models.QueueEntry
	player *models.Player
}

// Tick runs one pairing pass and returns the number of matches created.
// A held lock, an empty queue and an all-incompatible queue are all normal
// zero returns; the next tick retries.
func (s *MatchmakingService) Tick() int {
	if !s.Store.TryMatchmakingLock() {
		// Another tick is already pairing. Never wait for it.
		return 0
	}
	defer s.Store.ReleaseMatchmakingLock()

	candidates := s.loadCandidates()
	if len(candidates) < 2 {
		return 0
	}

	now := time.Now()
	created := 0
	for {
		i, j, ok := s.firstCompatiblePair(candidates, now)
		if !ok {
			break
		}
		a, b := candidates[i], candidates[j]
		if s.createFor(a, b) {
			created++
		}
		// Whether creation succeeded or not, drop the pair from this
		// pass: a failed creation means a content problem a retry in
		// the same pass won't fix, and the entries stay queued.
		candidates = append(candidates[:j], candidates[j+1:]...)
		candidates = append(candidates[:i], candidates[i+1:]...)
		if len(candidates) < 2 {
			break
		}
	}
	return created
}

// loadCandidates returns the queue oldest-first, de-duplicated, with any
// entry whose player record vanished dropped silently.
func (s *MatchmakingService) loadCandidates() []candidate {
	entries, err := s.Store.ListQueue()
	if err != nil {
		log.Printf("[Matchmaking] list queue: %v", err)
		return nil
	}

	seen := make(map[string]bool, len(entries))
	candidates := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if seen[e.PlayerID] {
			continue
		}
		seen[e.PlayerID] = true

		p, err := s.Store.GetPlayer(e.PlayerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted player still queued: drop the entry.
				if rmErr := s.Store.RemoveFromQueue(e.PlayerID); rmErr != nil {
					log.Printf("[Matchmaking] drop stale entry %s: %v", e.PlayerID, rmErr)
				}
				continue
			}
			log.Printf("[Matchmaking] load player %s: %v", e.PlayerID, err)
			continue
		}
		candidates = append(candidates, candidate{entry: e, player: p})
	}
	return candidates
}

// firstCompatiblePair scans unordered pairs in queue order and returns the
// first that passes all three compatibility checks.
func (s *MatchmakingService) firstCompatiblePair(candidates []candidate, now time.Time) (int, int, bool) {
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if !s.eloCompatible(a, b, now) {
				continue
			}
			if !mapCompatible(a.entry, b.entry) {
				continue
			}
			if !formatCompatible(a.entry, b.entry) {
				continue
			}
			return i, j, true
		}
	}
	return 0, 0, false
}

// eloCompatible widens the allowed rating gap with the longer of the two
// wait times, so nobody waits forever once any opponent exists at all.
func (s *MatchmakingService) eloCompatible(a, b candidate, now time.Time) bool {
	wait := math.Max(a.entry.WaitSeconds(now), b.entry.WaitSeconds(now))
	window := float64(s.Cfg.BaseEloWindow) + s.Cfg.WindowExpansionPerSec*wait
	gap := math.Abs(float64(a.player.EloRating - b.player.EloRating))
	return gap <= window
}

func mapCompatible(a, b models.QueueEntry) bool {
	return a.MapPreference == "" || b.MapPreference == "" || a.MapPreference == b.MapPreference
}

func formatCompatible(a, b models.QueueEntry) bool {
	return a.FormatPreference == "" || b.FormatPreference == "" || a.FormatPreference == b.FormatPreference
}

// createFor makes the match and removes both queue entries in the same
// logical step. On ErrNoLocationsAvailable the entries are NOT consumed.
func (s *MatchmakingService) createFor(a, b candidate) bool {
	mapID := a.entry.MapPreference
	if mapID == "" {
		mapID = b.entry.MapPreference
	}
	format := a.entry.FormatPreference
	if format == "" {
		format = b.entry.FormatPreference
	}

	if _, err := s.Creation.Create(a.player.ID, b.player.ID, mapID, format); err != nil {
		log.Printf("[Matchmaking] ❌ match creation for %s vs %s failed: %v", a.player.ID, b.player.ID, err)
		return false
	}

	if err := s.Store.RemoveFromQueue(a.player.ID); err != nil {
		log.Printf("[Matchmaking] dequeue %s: %v", a.player.ID, err)
	}
	if err := s.Store.RemoveFromQueue(b.player.ID); err != nil {
		log.Printf("[Matchmaking] dequeue %s: %v", b.player.ID, err)
	}
	return true
}
