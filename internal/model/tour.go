package model

import "time"

// Tour groups several events, usually the same show played in different
// cities. Whether a tour is publicly visible depends both on IsActive and on
// the archival state of its events.
//
// Fields:
//
//	ID        – primary key identifier.
//	Title     – display title.
//	Poster    – card image path relative to the media root.
//	Cover     – page image path relative to the media root.
//	Slug      – unique URL key, generated once.
//	IsActive  – editor switch; inactive tours are never shown.
//	CreatedAt – creation timestamp, tours are listed newest first.
//	UpdatedAt – last update timestamp.
type Tour struct {
	ID        uint64    `json:"id"`         // tours.id
	Title     string    `json:"title"`      // tours.title
	Poster    string    `json:"poster"`     // tours.poster
	Cover     string    `json:"cover"`      // tours.cover
	Slug      string    `json:"slug"`       // tours.slug
	IsActive  bool      `json:"is_active"`  // tours.is_active
	CreatedAt time.Time `json:"created_at"` // tours.created_at
	UpdatedAt time.Time `json:"updated_at"` // tours.updated_at
}

// TourEvent links an event to a tour. A pair appears at most once.
type TourEvent struct {
	ID        uint64    `json:"id"`         // tour_events.id
	TourID    uint64    `json:"tour_id"`    // tour_events.tour_id
	EventID   uint64    `json:"event_id"`   // tour_events.event_id
	CreatedAt time.Time `json:"created_at"` // tour_events.created_at
}
