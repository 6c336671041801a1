package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/elemevent/site/internal/model"
)

var (
	ErrCityNotFound           = errors.New("city not found")
	ErrEventTypeNotFound      = errors.New("event type not found")
	ErrAgeRestrictionNotFound = errors.New("age restriction not found")
)

// CityRepo stores venue cities.
type CityRepo struct {
	db *sql.DB
}

func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

// CityUsage is a city with the number of events held there.
type CityUsage struct {
	model.City
	Events int  `json:"events"`
	IsUsed bool `json:"is_used"`
}

// List returns all cities ordered by name.
func (r *CityRepo) List(ctx context.Context) ([]model.City, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, timezone FROM cities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.City{}
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Timezone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListWithUsage returns all cities with their event counts for the
// back-office.
func (r *CityRepo) ListWithUsage(ctx context.Context) ([]CityUsage, error) {
	const q = `SELECT c.id, c.name, c.timezone, COUNT(e.id)
		FROM cities c LEFT JOIN events e ON e.city_id = c.id
		GROUP BY c.id, c.name, c.timezone
		ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CityUsage{}
	for rows.Next() {
		var c CityUsage
		if err := rows.Scan(&c.ID, &c.Name, &c.Timezone, &c.Events); err != nil {
			return nil, err
		}
		c.IsUsed = c.Events > 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns ErrCityNotFound when no row matches.
func (r *CityRepo) GetByID(ctx context.Context, id uint64) (*model.City, error) {
	var c model.City
	err := r.db.QueryRowContext(ctx, "SELECT id, name, timezone FROM cities WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts c and sets its ID.
func (r *CityRepo) Create(ctx context.Context, c *model.City) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO cities (name, timezone) VALUES (?, ?)", c.Name, c.Timezone)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update overwrites name and timezone.
func (r *CityRepo) Update(ctx context.Context, c *model.City) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cities SET name = ?, timezone = ? WHERE id = ?", c.Name, c.Timezone, c.ID)
	if err != nil {
		return translate(err)
	}
	return r.checkAffected(ctx, res, c.ID)
}

// checkAffected distinguishes "unchanged" from "missing": MySQL reports zero
// affected rows when an UPDATE writes identical values.
func (r *CityRepo) checkAffected(ctx context.Context, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err := r.GetByID(ctx, id)
	return err
}

// Delete removes a city. Cities referenced by events are protected and
// yield ErrInUse.
func (r *CityRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cities WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCityNotFound
	}
	return nil
}

// Exists reports whether a city with id exists.
func (r *CityRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM cities WHERE id = ?", id)
}

func exists(ctx context.Context, db *sql.DB, q string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LabelRepo stores the two small lookup tables that only carry a name:
// event types and age restrictions.
type LabelRepo struct {
	db       *sql.DB
	table    string
	column   string // events column referencing the table
	notFound error
}

func NewEventTypeRepo(db *sql.DB) *LabelRepo {
	return &LabelRepo{db: db, table: "event_types", column: "event_type_id", notFound: ErrEventTypeNotFound}
}

func NewAgeRestrictionRepo(db *sql.DB) *LabelRepo {
	return &LabelRepo{db: db, table: "age_restrictions", column: "age_restriction_id", notFound: ErrAgeRestrictionNotFound}
}

// Label is a lookup row with its usage for the back-office.
type Label struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Events int    `json:"events"`
	IsUsed bool   `json:"is_used"`
}

// List returns all rows ordered by name.
func (r *LabelRepo) List(ctx context.Context) ([]Label, error) {
	q := fmt.Sprintf(`SELECT t.id, t.name, COUNT(e.id)
		FROM %s t LEFT JOIN events e ON e.%s = t.id
		GROUP BY t.id, t.name
		ORDER BY t.name`, r.table, r.column)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Label{}
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Events); err != nil {
			return nil, err
		}
		l.IsUsed = l.Events > 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetByID returns the table's not-found sentinel when no row matches.
func (r *LabelRepo) GetByID(ctx context.Context, id uint64) (*Label, error) {
	var l Label
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT id, name FROM %s WHERE id = ?", r.table), id).
		Scan(&l.ID, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.notFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a row and returns its id.
func (r *LabelRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", r.table), name)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Rename changes the name of a row.
func (r *LabelRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET name = ? WHERE id = ?", r.table), name, id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, id)
	return err
}

// Delete removes a row; rows referenced by events yield ErrInUse.
func (r *LabelRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table), id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.notFound
	}
	return nil
}

// Exists reports whether a row with id exists.
func (r *LabelRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", r.table), id)
}

// RefChecker answers the existence checks used by listing filters.
type RefChecker struct {
	cities *CityRepo
	types  *LabelRepo
	ages   *LabelRepo
}

func NewRefChecker(db *sql.DB) *RefChecker {
	return &RefChecker{cities: NewCityRepo(db), types: NewEventTypeRepo(db), ages: NewAgeRestrictionRepo(db)}
}

func (c *RefChecker) CityExists(ctx context.Context, id uint64) (bool, error) {
	return c.cities.Exists(ctx, id)
}

func (c *RefChecker) EventTypeExists(ctx context.Context, id uint64) (bool, error) {
	return c.types.Exists(ctx, id)
}

func (c *RefChecker) AgeRestrictionExists(ctx context.Context, id uint64) (bool, error) {
	return c.ages.Exists(ctx, id)
}

// ListEventTypes returns event types without usage counts, for filter UIs.
func (c *RefChecker) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	rows, err := c.types.db.QueryContext(ctx, "SELECT id, name FROM event_types ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.EventType{}
	for rows.Next() {
		var t model.EventType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListCities returns all cities ordered by name, for filter UIs.
func (c *RefChecker) ListCities(ctx context.Context) ([]model.City, error) {
	return c.cities.List(ctx)
}
