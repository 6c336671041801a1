package repository

import (
	"context"
	"database/sql"
)

// MediaUsage lists every image path stored in the database.
type MediaUsage struct {
	db *sql.DB
}

func NewMediaUsage(db *sql.DB) *MediaUsage { return &MediaUsage{db: db} }

// UsedMedia returns the non-empty image paths of events, tours and banners.
func (m *MediaUsage) UsedMedia(ctx context.Context) ([]string, error) {
	const q = `SELECT poster FROM events WHERE poster <> ''
		UNION SELECT cover FROM events WHERE cover <> ''
		UNION SELECT poster FROM tours WHERE poster <> ''
		UNION SELECT cover FROM tours WHERE cover <> ''
		UNION SELECT cover FROM banners WHERE cover <> ''`
	rows, err := m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
