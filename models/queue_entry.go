package models

import "time"

// QueueEntry is a waiting player. Membership is a set keyed by PlayerID;
// the row disappears when the player is matched or leaves.
type QueueEntry struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	PlayerID string `json:"player_id" gorm:"uniqueIndex;not null"`

	// Empty string means "no preference"; classic is the absence value
	// for format.
	MapPreference    string `json:"map_preference,omitempty" gorm:"type:varchar(64)"`
	FormatPreference string `json:"format_preference,omitempty" gorm:"type:varchar(16)"`

	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime;index"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

// WaitSeconds is how long the entry has been waiting at the given instant.
func (q *QueueEntry) WaitSeconds(now time.Time) float64 {
	return now.Sub(q.JoinedAt).Seconds()
}
