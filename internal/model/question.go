package model

import "time"

// Question is a FAQ entry, ordered by Position.
type Question struct {
	ID        uint64    `json:"id"`         // questions.id
	Title     string    `json:"title"`      // questions.title
	Content   string    `json:"content"`    // questions.content
	Position  int       `json:"position"`   // questions.position
	CreatedAt time.Time `json:"created_at"` // questions.created_at
	UpdatedAt time.Time `json:"updated_at"` // questions.updated_at
}
