package store

import (
	"errors"
	"log"
	"time"

	"geo-duel-service/models"

	"gorm.io/gorm"
)

// matchmakingLockKey is the advisory lock id serializing scheduler ticks.
const matchmakingLockKey int64 = 0x6d6d6c6b // "mmlk"

// GormStore backs the engine with Postgres through GORM.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) GetPlayer(id string) (*models.Player, error) {
	var p models.Player
	if err := s.DB.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SavePlayer(p *models.Player) error {
	return s.DB.Save(p).Error
}

func (s *GormStore) Enqueue(e *models.QueueEntry) error {
	// Set semantics: re-joining refreshes preferences but keeps one row.
	var existing models.QueueEntry
	err := s.DB.First(&existing, "player_id = ?", e.PlayerID).Error
	if err == nil {
		return s.DB.Model(&existing).Updates(map[string]interface{}{
			"map_preference":    e.MapPreference,
			"format_preference": e.FormatPreference,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.DB.Create(e).Error
}

func (s *GormStore) RemoveFromQueue(playerID string) error {
	return s.DB.Unscoped().Where("player_id = ?", playerID).Delete(&models.QueueEntry{}).Error
}

func (s *GormStore) QueueEntry(playerID string) (*models.QueueEntry, error) {
	var e models.QueueEntry
	if err := s.DB.First(&e, "player_id = ?", playerID).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) ListQueue() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := s.DB.Order("joined_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormStore) TryMatchmakingLock() bool {
	var acquired bool
	if err := s.DB.Raw("SELECT pg_try_advisory_lock(?)", matchmakingLockKey).Scan(&acquired).Error; err != nil {
		log.Printf("[Store] advisory lock error: %v", err)
		return false
	}
	return acquired
}

func (s *GormStore) ReleaseMatchmakingLock() {
	if err := s.DB.Exec("SELECT pg_advisory_unlock(?)", matchmakingLockKey).Error; err != nil {
		log.Printf("[Store] advisory unlock error: %v", err)
	}
}

func (s *GormStore) GetMap(id string) (*models.WorldMap, error) {
	var m models.WorldMap
	if err := s.DB.First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) FirstActiveMapWithLocations() (*models.WorldMap, error) {
	var m models.WorldMap
	err := s.DB.
		Where("is_active = ?", true).
		Where("EXISTS (SELECT 1 FROM locations WHERE locations.map_id = world_maps.id AND locations.deleted_at IS NULL)").
		Order("created_at ASC").
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) ListLocations(mapID string) ([]models.Location, error) {
	var locs []models.Location
	if err := s.DB.Where("map_id = ?", mapID).Order("id ASC").Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

func (s *GormStore) CreateMatch(m *models.Match) error {
	return s.DB.Create(m).Error
}

func (s *GormStore) GetMatch(id string) (*models.Match, error) {
	var m models.Match
	if err := s.DB.First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) SaveMatch(m *models.Match) error {
	return s.DB.Save(m).Error
}

func (s *GormStore) CreateRound(r *models.Round) error {
	return s.DB.Create(r).Error
}

func (s *GormStore) GetRound(id string) (*models.Round, error) {
	var r models.Round
	if err := s.DB.First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) ListRounds(matchID string) ([]models.Round, error) {
	var rounds []models.Round
	if err := s.DB.Where("match_id = ?", matchID).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *GormStore) MarkRoundStarted(roundID string, at time.Time) error {
	return s.DB.Model(&models.Round{}).
		Where("id = ? AND started_at IS NULL", roundID).
		Update("started_at", at).Error
}

func (s *GormStore) SubmitGuess(roundID string, slot int, lat, lng float64, lockIn bool, at time.Time) (bool, error) {
	var latCol, lngCol, lockCol, lockAtCol string
	if slot == 1 {
		latCol, lngCol, lockCol, lockAtCol = "player1_guess_lat", "player1_guess_lng", "player1_locked_in", "player1_locked_at"
	} else {
		latCol, lngCol, lockCol, lockAtCol = "player2_guess_lat", "player2_guess_lng", "player2_locked_in", "player2_locked_at"
	}

	// Conditional update is the atomicity guard: a locked slot matches no
	// rows, so a late write is refused without a read-then-write race.
	updates := map[string]interface{}{
		latCol:  lat,
		lngCol:  lng,
		lockCol: lockIn,
	}
	if lockIn {
		updates[lockAtCol] = at
	}
	tx := s.DB.Model(&models.Round{}).
		Where("id = ? AND "+lockCol+" = ?", roundID, false).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (s *GormStore) FinalizeRound(roundID string, p1Score, p2Score *int, at time.Time) (bool, error) {
	tx := s.DB.Model(&models.Round{}).
		Where("id = ? AND finished_at IS NULL", roundID).
		Updates(map[string]interface{}{
			"player1_score": p1Score,
			"player2_score": p2Score,
			"finished_at":   at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (s *GormStore) CreateEloHistory(rec *models.EloHistory) error {
	return s.DB.Create(rec).Error
}

func (s *GormStore) ListEloHistory(playerID string) ([]models.EloHistory, error) {
	var recs []models.EloHistory
	if err := s.DB.Where("player_id = ?", playerID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
