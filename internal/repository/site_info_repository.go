package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elemevent/site/internal/model"
)

// SiteInfoRepo reads and writes the site_info singleton.
type SiteInfoRepo struct {
	db *sql.DB
}

func NewSiteInfoRepo(db *sql.DB) *SiteInfoRepo { return &SiteInfoRepo{db: db} }

const siteInfoSelect = `SELECT id, company_name, email, vk_link, telegram_link, company_details,
	privacy_policy, terms_of_service, created_at, updated_at
	FROM site_info ORDER BY id LIMIT 1`

func (r *SiteInfoRepo) load(ctx context.Context) (*model.SiteInfo, error) {
	var s model.SiteInfo
	err := r.db.QueryRowContext(ctx, siteInfoSelect).Scan(&s.ID, &s.CompanyName, &s.Email, &s.VKLink,
		&s.TelegramLink, &s.CompanyDetails, &s.PrivacyPolicy, &s.TermsOfService, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns the singleton, creating it with defaults on first access.
func (r *SiteInfoRepo) Get(ctx context.Context) (*model.SiteInfo, error) {
	s, err := r.load(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	// id is pinned to 1 so concurrent first requests cannot create two rows.
	if _, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO site_info (id, company_name, email) VALUES (1, ?, ?)",
		model.DefaultCompanyName, model.DefaultCompanyEmail); err != nil {
		return nil, err
	}
	return r.load(ctx)
}

// Update overwrites the singleton's editable fields.
func (r *SiteInfoRepo) Update(ctx context.Context, s *model.SiteInfo) error {
	cur, err := r.Get(ctx)
	if err != nil {
		return err
	}
	s.ID = cur.ID
	_, err = r.db.ExecContext(ctx,
		`UPDATE site_info SET company_name = ?, email = ?, vk_link = ?, telegram_link = ?,
		 company_details = ?, privacy_policy = ?, terms_of_service = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		s.CompanyName, s.Email, s.VKLink, s.TelegramLink, s.CompanyDetails, s.PrivacyPolicy, s.TermsOfService, s.ID)
	return err
}
