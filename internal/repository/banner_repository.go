package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elemevent/site/internal/model"
)

var ErrBannerNotFound = errors.New("banner not found")

// BannerRepo stores home page banners.
type BannerRepo struct {
	db *sql.DB
}

func NewBannerRepo(db *sql.DB) *BannerRepo { return &BannerRepo{db: db} }

const bannerColumns = "id, cover, link, position, is_active, created_at, updated_at"

func scanBanner(s rowScanner) (*model.Banner, error) {
	var b model.Banner
	if err := s.Scan(&b.ID, &b.Cover, &b.Link, &b.Position, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BannerRepo) list(ctx context.Context, q string) ([]model.Banner, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ListActive returns active banners by position.
func (r *BannerRepo) ListActive(ctx context.Context) ([]model.Banner, error) {
	return r.list(ctx, "SELECT "+bannerColumns+" FROM banners WHERE is_active = TRUE ORDER BY position, id")
}

// List returns all banners by position.
func (r *BannerRepo) List(ctx context.Context) ([]model.Banner, error) {
	return r.list(ctx, "SELECT "+bannerColumns+" FROM banners ORDER BY position, id")
}

func (r *BannerRepo) GetByID(ctx context.Context, id uint64) (*model.Banner, error) {
	b, err := scanBanner(r.db.QueryRowContext(ctx, "SELECT "+bannerColumns+" FROM banners WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBannerNotFound
	}
	return b, err
}

// Create inserts b. A zero position is replaced by max(position)+1, or 0
// for the first banner.
func (r *BannerRepo) Create(ctx context.Context, b *model.Banner) error {
	if b.Position == 0 {
		pos, err := nextPosition(ctx, r.db, "banners")
		if err != nil {
			return err
		}
		b.Position = pos
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO banners (cover, link, position, is_active) VALUES (?, ?, ?, ?)",
		b.Cover, b.Link, b.Position, b.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func nextPosition(ctx context.Context, db *sql.DB, table string) (int, error) {
	var last sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(position) FROM "+table).Scan(&last); err != nil {
		return 0, err
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

// Update writes link, position and the active flag.
func (r *BannerRepo) Update(ctx context.Context, b *model.Banner) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE banners SET link = ?, position = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		b.Link, b.Position, b.IsActive, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBannerNotFound
	}
	return nil
}

// SetCover stores a new cover and returns the replaced path.
func (r *BannerRepo) SetCover(ctx context.Context, id uint64, path string) (string, error) {
	return setImage(ctx, r.db, "banners", id, FieldCover, path, ErrBannerNotFound)
}

// Delete removes the banner and returns its cover path for release.
func (r *BannerRepo) Delete(ctx context.Context, id uint64) (string, error) {
	var cover string
	err := r.db.QueryRowContext(ctx, "SELECT cover FROM banners WHERE id = ?", id).Scan(&cover)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBannerNotFound
	}
	if err != nil {
		return "", err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM banners WHERE id = ?", id); err != nil {
		return "", err
	}
	return cover, nil
}

// SetActive flips the active flag on every banner in ids.
func (r *BannerRepo) SetActive(ctx context.Context, ids []uint64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := "UPDATE banners SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (" + placeholders(len(ids)) + ")"
	res, err := r.db.ExecContext(ctx, q, append([]any{active}, uint64Args(ids)...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Duplicate copies a banner as inactive with a copy of its cover.
func (r *BannerRepo) Duplicate(ctx context.Context, id uint64, copier ImageCopier, dir string) (*model.Banner, error) {
	src, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := model.Banner{Link: src.Link, Position: src.Position, IsActive: false}
	if cp.Cover, err = copier.Copy(src.Cover, dir); err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO banners (cover, link, position, is_active) VALUES (?, ?, ?, ?)",
		cp.Cover, cp.Link, cp.Position, cp.IsActive)
	if err != nil {
		return nil, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	cp.ID = uint64(newID)
	return &cp, nil
}
