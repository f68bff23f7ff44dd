package models

// Match formats
const (
	FormatClassic = "classic"
	FormatBo3     = "bo3"
	FormatBo5     = "bo5"
	FormatBo7     = "bo7"
	FormatRush    = "rush"
)

// Match statuses — pending → in_progress → completed, never backward
const (
	MatchStatusPending    = "pending"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
)

// Match is a head-to-head duel between two players on a single map.
// Health fields drive classic/rush, win counters drive the bo-N formats.
type Match struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	Player1ID string `json:"player1_id" gorm:"index;not null"`
	Player2ID string `json:"player2_id" gorm:"index;not null"`
	MapID     string `json:"map_id" gorm:"index;not null"`

	// Seed deterministically orders this match's round locations so a
	// match is reproducible for replay/audit.
	Seed   int64  `json:"seed" gorm:"not null"`
	Format string `json:"format" gorm:"type:varchar(16);default:'classic'"`
	Status string `json:"status" gorm:"type:varchar(16);default:'pending';index"`

	Player1Health int `json:"player1_health" gorm:"default:0"`
	Player2Health int `json:"player2_health" gorm:"default:0"`
	Player1Wins   int `json:"player1_wins" gorm:"default:0"`
	Player2Wins   int `json:"player2_wins" gorm:"default:0"`

	// MaxRounds is 0 for classic (open-ended), N for bo-N, the fixed
	// round count for rush.
	MaxRounds int `json:"max_rounds" gorm:"default:0"`

	// NoGuessRounds counts consecutive rounds where neither side guessed.
	NoGuessRounds int `json:"no_guess_rounds" gorm:"default:0"`

	// WinnerID stays nil for a draw.
	WinnerID *string `json:"winner_id,omitempty"`

	Timestamps

	// Relationships
	Rounds []Round `json:"rounds,omitempty" gorm:"foreignKey:MatchID"`
}

func (Match) TableName() string {
	return "matches"
}

// HasPlayer reports whether the given player is one of the two participants.
func (m *Match) HasPlayer(playerID string) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// OpponentOf returns the other participant's id.
func (m *Match) OpponentOf(playerID string) string {
	if m.Player1ID == playerID {
		return m.Player2ID
	}
	return m.Player1ID
}
