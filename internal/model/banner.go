package model

import "time"

// Banner is a home page slide.
type Banner struct {
	ID        uint64    `json:"id"`         // banners.id
	Cover     string    `json:"cover"`      // banners.cover
	Link      string    `json:"link"`       // banners.link
	Position  int       `json:"position"`   // banners.position
	IsActive  bool      `json:"is_active"`  // banners.is_active
	CreatedAt time.Time `json:"created_at"` // banners.created_at
	UpdatedAt time.Time `json:"updated_at"` // banners.updated_at
}
