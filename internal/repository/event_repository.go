package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/slug"
)

// ErrEventNotFound is returned when no event matches a lookup.
var ErrEventNotFound = errors.New("event not found")

// slugAttempts bounds retries when a generated slug collides.
const slugAttempts = 3

// EventRepo encapsulates queries over events and the rows they own.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `e.id, e.title, e.poster, e.cover,
	c.id, c.name, c.timezone,
	e.date, e.time, e.venue, e.address,
	et.id, et.name, ar.id, ar.name,
	e.description, e.ticket_system, e.ticket_link,
	e.ticketscloud_event_id, e.ticketscloud_token, e.radario_key, e.vk_link,
	e.archive_delay, e.slug, e.status, e.created_at, e.updated_at`

const eventFrom = ` FROM events e
	JOIN cities c ON c.id = e.city_id
	LEFT JOIN event_types et ON et.id = e.event_type_id
	LEFT JOIN age_restrictions ar ON ar.id = e.age_restriction_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		ev            model.Event
		typeID, ageID sql.NullInt64
		typeNm, ageNm sql.NullString
		ticketSystem  string
		status        string
	)
	err := s.Scan(
		&ev.ID, &ev.Title, &ev.Poster, &ev.Cover,
		&ev.City.ID, &ev.City.Name, &ev.City.Timezone,
		&ev.Date, &ev.Time, &ev.Venue, &ev.Address,
		&typeID, &typeNm, &ageID, &ageNm,
		&ev.Description, &ticketSystem, &ev.TicketLink,
		&ev.TicketsCloudEventID, &ev.TicketsCloudToken, &ev.RadarioKey, &ev.VKLink,
		&ev.ArchiveDelay, &ev.Slug, &status, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.TicketSystem = model.TicketSystem(ticketSystem)
	ev.Status = model.EventStatus(status)
	if typeID.Valid {
		ev.EventType = &model.EventType{ID: uint64(typeID.Int64), Name: typeNm.String}
	}
	if ageID.Valid {
		ev.AgeRestriction = &model.AgeRestriction{ID: uint64(ageID.Int64), Name: ageNm.String}
	}
	return &ev, nil
}

func (r *EventRepo) query(ctx context.Context, q string, args ...any) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ListActive returns ACTIVE events matching f, ordered by (date, time)
// ascending or descending. Past-ness is left to the caller.
func (r *EventRepo) ListActive(ctx context.Context, f listing.EventFilter, desc bool) ([]*model.Event, error) {
	where := []string{"e.status = ?"}
	args := []any{string(model.StatusActive)}
	if f.CityID != 0 {
		where = append(where, "e.city_id = ?")
		args = append(args, f.CityID)
	}
	if f.EventTypeID != 0 {
		where = append(where, "e.event_type_id = ?")
		args = append(args, f.EventTypeID)
	}
	if f.AgeRestrictionID != 0 {
		where = append(where, "e.age_restriction_id = ?")
		args = append(args, f.AgeRestrictionID)
	}
	order := "e.date ASC, e.time ASC, e.id ASC"
	if desc {
		order = "e.date DESC, e.time DESC, e.id DESC"
	}
	q := "SELECT " + eventColumns + eventFrom + " WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	return r.query(ctx, q, args...)
}

// AdminQuery filters the back-office event list.
type AdminQuery struct {
	Status model.EventStatus
	CityID uint64
	Search string
}

// List returns events for the back-office, newest date first.
func (r *EventRepo) List(ctx context.Context, q AdminQuery) ([]*model.Event, error) {
	where := []string{}
	args := []any{}
	if q.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, string(q.Status))
	}
	if q.CityID != 0 {
		where = append(where, "e.city_id = ?")
		args = append(args, q.CityID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, "(LOWER(e.title) LIKE ? OR LOWER(e.venue) LIKE ?)")
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.query(ctx, "SELECT "+eventColumns+eventFrom+" WHERE "+cond+" ORDER BY e.date DESC, e.time DESC, e.id DESC", args...)
}

// GetBySlug returns any event with the slug regardless of status.
func (r *EventRepo) GetBySlug(ctx context.Context, s string) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+eventFrom+" WHERE e.slug = ?", s))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return ev, err
}

// GetPublicBySlug hides drafts: a DRAFT event is reported as not found.
func (r *EventRepo) GetPublicBySlug(ctx context.Context, s string) (*model.Event, error) {
	ev, err := r.GetBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if ev.Status == model.StatusDraft {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+eventFrom+" WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return ev, err
}

func nullableID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

func eventTypeID(ev *model.Event) any {
	if ev.EventType == nil {
		return nil
	}
	return nullableID(ev.EventType.ID)
}

func ageRestrictionID(ev *model.Event) any {
	if ev.AgeRestriction == nil {
		return nil
	}
	return nullableID(ev.AgeRestriction.ID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, ev *model.Event) error {
	const q = `INSERT INTO events (title, poster, cover, city_id, date, time, venue, address,
		event_type_id, age_restriction_id, description, ticket_system, ticket_link,
		ticketscloud_event_id, ticketscloud_token, radario_key, vk_link,
		archive_delay, slug, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	generated := ev.Slug == ""
	for attempt := 0; ; attempt++ {
		if generated {
			ev.Slug = slug.New(ev.Title)
		}
		res, err := db.ExecContext(ctx, q,
			ev.Title, ev.Poster, ev.Cover, ev.City.ID, ev.Date, ev.Time, ev.Venue, ev.Address,
			eventTypeID(ev), ageRestrictionID(ev), ev.Description, string(ev.TicketSystem), ev.TicketLink,
			ev.TicketsCloudEventID, ev.TicketsCloudToken, ev.RadarioKey, ev.VKLink,
			ev.ArchiveDelay, ev.Slug, string(ev.Status))
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
		ev.ID = uint64(id)
		return nil
	}
}

// Create inserts ev. A missing slug is generated from the title; the
// generated slug is retried on collision.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	return insertEvent(ctx, r.db, ev)
}

// Update writes every editable column. The slug and images are not
// touched: slugs are immutable and images change through SetImage.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	const q = `UPDATE events SET title = ?, city_id = ?, date = ?, time = ?, venue = ?, address = ?,
		event_type_id = ?, age_restriction_id = ?, description = ?, ticket_system = ?, ticket_link = ?,
		ticketscloud_event_id = ?, ticketscloud_token = ?, radario_key = ?, vk_link = ?,
		archive_delay = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		ev.Title, ev.City.ID, ev.Date, ev.Time, ev.Venue, ev.Address,
		eventTypeID(ev), ageRestrictionID(ev), ev.Description, string(ev.TicketSystem), ev.TicketLink,
		ev.TicketsCloudEventID, ev.TicketsCloudToken, ev.RadarioKey, ev.VKLink,
		ev.ArchiveDelay, string(ev.Status), ev.ID)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ImageField names an image column.
type ImageField string

const (
	FieldPoster ImageField = "poster"
	FieldCover  ImageField = "cover"
)

func (f ImageField) valid() bool { return f == FieldPoster || f == FieldCover }

// SetImage stores a new image path and returns the path it replaced, so the
// caller can release the old file once this call has succeeded.
func (r *EventRepo) SetImage(ctx context.Context, id uint64, field ImageField, path string) (string, error) {
	return setImage(ctx, r.db, "events", id, field, path, ErrEventNotFound)
}

func setImage(ctx context.Context, db *sql.DB, table string, id uint64, field ImageField, path string, notFound error) (old string, err error) {
	if !field.valid() {
		return "", fmt.Errorf("unknown image field %q", field)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	sel := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? FOR UPDATE", field, table)
	if err = tx.QueryRowContext(ctx, sel, id).Scan(&old); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = notFound
		}
		return "", err
	}
	upd := fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", table, field)
	if _, err = tx.ExecContext(ctx, upd, path, id); err != nil {
		return "", err
	}
	return old, nil
}

// Delete removes an event together with its push and advertising rows
// (cascade). Events linked to a tour are protected and yield ErrInUse. The
// returned paths are the event's images, to be released by the caller.
func (r *EventRepo) Delete(ctx context.Context, id uint64) ([]string, error) {
	var poster, cover string
	err := r.db.QueryRowContext(ctx, "SELECT poster, cover FROM events WHERE id = ?", id).Scan(&poster, &cover)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return nil, translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEventNotFound
	}
	return []string{poster, cover}, nil
}

// SetStatus applies status to every event in ids and returns how many rows
// changed.
func (r *EventRepo) SetStatus(ctx context.Context, ids []uint64, status model.EventStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if !status.Valid() {
		return 0, fmt.Errorf("invalid status %q", status)
	}
	q := "UPDATE events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (" + placeholders(len(ids)) + ")"
	res, err := r.db.ExecContext(ctx, q, append([]any{string(status)}, uint64Args(ids)...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ImageCopier duplicates image files for a copied record.
type ImageCopier interface {
	Copy(rel, dir string) (string, error)
}

// Duplicate copies an event as a DRAFT with " (copy)" appended to the title,
// a fresh slug, copies of both images and the same tour links. Image copies
// are made through copier before the insert; the caller owns their cleanup
// if the insert fails.
func (r *EventRepo) Duplicate(ctx context.Context, id uint64, copier ImageCopier, posterDir, coverDir string) (dup *model.Event, err error) {
	src, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *src
	cp.ID = 0
	cp.Slug = ""
	cp.Title = src.Title + " (copy)"
	cp.Status = model.StatusDraft
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
	if err = insertEvent(ctx, tx, &cp); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO tour_events (tour_id, event_id)
		 SELECT tour_id, ? FROM tour_events WHERE event_id = ?`, cp.ID, src.ID); err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetPush returns the event's push notice, or nil when there is none.
func (r *EventRepo) GetPush(ctx context.Context, eventID uint64) (*model.EventPush, error) {
	var p model.EventPush
	err := r.db.QueryRowContext(ctx,
		"SELECT event_id, content, is_active, created_at, updated_at FROM event_pushes WHERE event_id = ?", eventID).
		Scan(&p.EventID, &p.Content, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPush creates or replaces the event's push notice.
func (r *EventRepo) UpsertPush(ctx context.Context, p *model.EventPush) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_pushes (event_id, content, is_active) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE content = VALUES(content), is_active = VALUES(is_active), updated_at = CURRENT_TIMESTAMP`,
		p.EventID, p.Content, p.IsActive)
	if isMissingParent(err) {
		return ErrEventNotFound
	}
	return err
}

// DeletePush removes the event's push notice if any.
func (r *EventRepo) DeletePush(ctx context.Context, eventID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM event_pushes WHERE event_id = ?", eventID)
	return err
}

// GetAdvertising returns the event's advertising disclosure, or nil.
func (r *EventRepo) GetAdvertising(ctx context.Context, eventID uint64) (*model.EventAdvertising, error) {
	var a model.EventAdvertising
	err := r.db.QueryRowContext(ctx,
		`SELECT event_id, is_active, token, advertiser_name, advertiser_inn, advertiser_ogrn,
		        additional_info, created_at, updated_at
		 FROM event_advertising WHERE event_id = ?`, eventID).
		Scan(&a.EventID, &a.IsActive, &a.Token, &a.AdvertiserName, &a.AdvertiserINN, &a.AdvertiserOGRN,
			&a.AdditionalInfo, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAdvertising creates or replaces the event's advertising disclosure.
func (r *EventRepo) UpsertAdvertising(ctx context.Context, a *model.EventAdvertising) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_advertising (event_id, is_active, token, advertiser_name, advertiser_inn,
		                               advertiser_ogrn, additional_info)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE is_active = VALUES(is_active), token = VALUES(token),
		     advertiser_name = VALUES(advertiser_name), advertiser_inn = VALUES(advertiser_inn),
		     advertiser_ogrn = VALUES(advertiser_ogrn), additional_info = VALUES(additional_info),
		     updated_at = CURRENT_TIMESTAMP`,
		a.EventID, a.IsActive, a.Token, a.AdvertiserName, a.AdvertiserINN, a.AdvertiserOGRN, a.AdditionalInfo)
	if isMissingParent(err) {
		return ErrEventNotFound
	}
	return err
}

// DeleteAdvertising removes the event's advertising disclosure if any.
func (r *EventRepo) DeleteAdvertising(ctx context.Context, eventID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM event_advertising WHERE event_id = ?", eventID)
	return err
}

// TourIDs returns the ids of tours the event is linked to.
func (r *EventRepo) TourIDs(ctx context.Context, eventID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT tour_id FROM tour_events WHERE event_id = ? ORDER BY tour_id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
