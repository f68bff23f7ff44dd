package models

// EloHistory is the append-only rating audit trail — one row per player
// per completed match.
type EloHistory struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID       string `gorm:"index;not null" json:"player_id"`
	MatchID        string `gorm:"index;not null" json:"match_id"`
	RatingBefore   int    `gorm:"not null" json:"rating_before"`
	RatingAfter    int    `gorm:"not null" json:"rating_after"`
	RatingChange   int    `gorm:"not null" json:"rating_change"`
	OpponentRating int    `gorm:"not null" json:"opponent_rating"`

	Timestamps
}

func (EloHistory) TableName() string {
	return "elo_history"
}
