package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/slug"
)

// ErrTourNotFound is returned when no tour matches a lookup.
var ErrTourNotFound = errors.New("tour not found")

// TourRepo encapsulates queries over tours and their event links.
type TourRepo struct {
	db *sql.DB
}

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

const tourColumns = "t.id, t.title, t.poster, t.cover, t.slug, t.is_active, t.created_at, t.updated_at"

func scanTour(s rowScanner) (*model.Tour, error) {
	var t model.Tour
	if err := s.Scan(&t.ID, &t.Title, &t.Poster, &t.Cover, &t.Slug, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TourRepo) query(ctx context.Context, q string, args ...any) ([]*model.Tour, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListActive returns active tours, newest first.
func (r *TourRepo) ListActive(ctx context.Context) ([]*model.Tour, error) {
	return r.query(ctx, "SELECT "+tourColumns+" FROM tours t WHERE t.is_active = TRUE ORDER BY t.created_at DESC, t.id DESC")
}

// TourSummary is a tour row for the back-office list.
type TourSummary struct {
	*model.Tour
	EventsCount int `json:"events_count"`
}

// List returns all tours with the number of linked events, newest first.
func (r *TourRepo) List(ctx context.Context) ([]TourSummary, error) {
	const q = `SELECT ` + tourColumns + `, COUNT(te.id)
		FROM tours t LEFT JOIN tour_events te ON te.tour_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TourSummary{}
	for rows.Next() {
		var (
			t model.Tour
			n int
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Poster, &t.Cover, &t.Slug, &t.IsActive, &t.CreatedAt, &t.UpdatedAt, &n); err != nil {
			return nil, err
		}
		out = append(out, TourSummary{Tour: &t, EventsCount: n})
	}
	return out, rows.Err()
}

// ActiveEventsByTour returns the ACTIVE events of each tour in ids, keyed by
// tour id and ordered by (date, time) ascending. Tours without active events
// are absent from the map.
func (r *TourRepo) ActiveEventsByTour(ctx context.Context, ids []uint64) (map[uint64][]*model.Event, error) {
	out := map[uint64][]*model.Event{}
	if len(ids) == 0 {
		return out, nil
	}
	q := "SELECT te.tour_id, " + eventColumns + eventFrom +
		" JOIN tour_events te ON te.event_id = e.id" +
		" WHERE e.status = ? AND te.tour_id IN (" + placeholders(len(ids)) + ")" +
		" ORDER BY e.date ASC, e.time ASC, e.id ASC"
	args := append([]any{string(model.StatusActive)}, uint64Args(ids)...)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tourID uint64
		ev, err := scanEvent(prefixScanner{rows: rows, first: &tourID})
		if err != nil {
			return nil, err
		}
		out[tourID] = append(out[tourID], ev)
	}
	return out, rows.Err()
}

// prefixScanner scans one leading column before the event columns.
type prefixScanner struct {
	rows  *sql.Rows
	first any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append([]any{p.first}, dest...)...)
}

// Events returns every event linked to the tour, any status, by date.
func (r *TourRepo) Events(ctx context.Context, tourID uint64) ([]*model.Event, error) {
	q := "SELECT " + eventColumns + eventFrom +
		" JOIN tour_events te ON te.event_id = e.id WHERE te.tour_id = ?" +
		" ORDER BY e.date ASC, e.time ASC, e.id ASC"
	return NewEventRepo(r.db).query(ctx, q, tourID)
}

// GetBySlug returns a tour regardless of its active flag.
func (r *TourRepo) GetBySlug(ctx context.Context, s string) (*model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourColumns+" FROM tours t WHERE t.slug = ?", s))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	return t, err
}

// GetActiveBySlug reports inactive tours as not found.
func (r *TourRepo) GetActiveBySlug(ctx context.Context, s string) (*model.Tour, error) {
	t, err := r.GetBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTourNotFound
	}
	return t, nil
}

func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourColumns+" FROM tours t WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	return t, err
}

func insertTour(ctx context.Context, db execer, t *model.Tour) error {
	generated := t.Slug == ""
	for attempt := 0; ; attempt++ {
		if generated {
			t.Slug = slug.New(t.Title)
		}
		res, err := db.ExecContext(ctx,
			"INSERT INTO tours (title, poster, cover, slug, is_active) VALUES (?, ?, ?, ?, ?)",
			t.Title, t.Poster, t.Cover, t.Slug, t.IsActive)
		if err != nil {
			if generated && isDuplicate(err) && attempt+1 < slugAttempts {
				continue
			}
			return translate(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
		return nil
	}
}

// Create inserts t, generating the slug when it is empty.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	return insertTour(ctx, r.db, t)
}

// Update writes title and active flag. The slug never changes.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tours SET title = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		t.Title, t.IsActive, t.ID)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTourNotFound
	}
	return nil
}

// SetImage stores a new image path and returns the replaced one.
func (r *TourRepo) SetImage(ctx context.Context, id uint64, field ImageField, path string) (string, error) {
	return setImage(ctx, r.db, "tours", id, field, path, ErrTourNotFound)
}

// Delete removes the tour and its links; the events stay. It returns the
// tour's image paths for release.
func (r *TourRepo) Delete(ctx context.Context, id uint64) ([]string, error) {
	var poster, cover string
	err := r.db.QueryRowContext(ctx, "SELECT poster, cover FROM tours WHERE id = ?", id).Scan(&poster, &cover)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	return []string{poster, cover}, nil
}

// SetActive flips the active flag on every tour in ids.
func (r *TourRepo) SetActive(ctx context.Context, ids []uint64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := "UPDATE tours SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (" + placeholders(len(ids)) + ")"
	res, err := r.db.ExecContext(ctx, q, append([]any{active}, uint64Args(ids)...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LinkEvents attaches events to a tour; existing links are kept.
func (r *TourRepo) LinkEvents(ctx context.Context, tourID uint64, eventIDs []uint64) error {
	if len(eventIDs) == 0 {
		return nil
	}
	values := strings.TrimSuffix(strings.Repeat("(?, ?), ", len(eventIDs)), ", ")
	args := make([]any, 0, 2*len(eventIDs))
	for _, id := range eventIDs {
		args = append(args, tourID, id)
	}
	_, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO tour_events (tour_id, event_id) VALUES "+values, args...)
	return translate(err)
}

// UnlinkEvents detaches events from a tour.
func (r *TourRepo) UnlinkEvents(ctx context.Context, tourID uint64, eventIDs []uint64) error {
	if len(eventIDs) == 0 {
		return nil
	}
	q := "DELETE FROM tour_events WHERE tour_id = ? AND event_id IN (" + placeholders(len(eventIDs)) + ")"
	_, err := r.db.ExecContext(ctx, q, append([]any{tourID}, uint64Args(eventIDs)...)...)
	return err
}

// Duplicate copies a tour as inactive with " (copy)" appended to the title,
// a fresh slug, image copies and the same event links.
func (r *TourRepo) Duplicate(ctx context.Context, id uint64, copier ImageCopier, posterDir, coverDir string) (dup *model.Tour, err error) {
	src, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := model.Tour{Title: src.Title + " (copy)", IsActive: false}
	if cp.Poster, err = copier.Copy(src.Poster, posterDir); err != nil {
		return nil, err
	}
	if cp.Cover, err = copier.Copy(src.Cover, coverDir); err != nil {
		return nil, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	if err = insertTour(ctx, tx, &cp); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO tour_events (tour_id, event_id)
		 SELECT ?, event_id FROM tour_events WHERE tour_id = ?`, cp.ID, src.ID); err != nil {
		return nil, err
	}
	return &cp, nil
}
