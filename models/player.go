package models

// Player is the service-local competitive profile for a user.
// EloRating and GamesPlayed are mutated only after a completed match.
type Player struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"index;not null" json:"username"`
	EloRating   int    `gorm:"default:1000" json:"elo_rating"`
	GamesPlayed int    `gorm:"default:0" json:"games_played"`
	Wins        int    `gorm:"default:0" json:"wins"`
	Losses      int    `gorm:"default:0" json:"losses"`
	Draws       int    `gorm:"default:0" json:"draws"`

	Timestamps

	// Relationships
	EloHistory []EloHistory `json:"elo_history,omitempty" gorm:"foreignKey:PlayerID"`
}

func (Player) TableName() string {
	return "players"
}
