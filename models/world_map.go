package models

import (
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// WorldMap is a playable pool of street-view locations. The duel engine
// only reads maps; content management lives elsewhere.
type WorldMap struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	Name     string `json:"name" gorm:"not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex;not null"`
	IsActive bool   `json:"is_active" gorm:"default:true;index"`

	Timestamps

	// Relationships
	Locations []Location `json:"locations,omitempty" gorm:"foreignKey:MapID"`
}

func (WorldMap) TableName() string {
	return "world_maps"
}

// EnsureSlug derives the URL slug from the map name when unset.
func (w *WorldMap) EnsureSlug() {
	if w.Slug == "" {
		w.Slug = slug.Make(w.Name)
	}
}

// BeforeCreate fills the slug on insert so map seeders may omit it.
func (w *WorldMap) BeforeCreate(tx *gorm.DB) error {
	w.EnsureSlug()
	return nil
}

// Location is a single playable panorama position on a map.
type Location struct {
	ID      string  `json:"id" gorm:"primaryKey;type:uuid"`
	MapID   string  `json:"map_id" gorm:"index;not null"`
	Lat     float64 `json:"lat" gorm:"not null"`
	Lng     float64 `json:"lng" gorm:"not null"`
	Heading float64 `json:"heading" gorm:"default:0"`

	Timestamps
}

func (Location) TableName() string {
	return "locations"
}
