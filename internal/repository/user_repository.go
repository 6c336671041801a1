package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/utils"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// AdminUserRepo stores back-office accounts.
type AdminUserRepo struct{ DB *sql.DB }

func NewAdminUserRepo(db *sql.DB) *AdminUserRepo { return &AdminUserRepo{DB: db} }

// NormalizeEmail lowercases and trims a login.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password with cost and inserts an active account.
func (r *AdminUserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_users (email, password_hash, is_active) VALUES (?, ?, TRUE)",
		NormalizeEmail(email), hash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const adminUserSelect = "SELECT id, email, password_hash, is_active, created_at, updated_at FROM admin_users"

func (r *AdminUserRepo) get(ctx context.Context, where string, arg any) (model.AdminUser, error) {
	var u model.AdminUser
	err := r.DB.QueryRowContext(ctx, adminUserSelect+" WHERE "+where+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByEmail fetches an account by normalized email.
func (r *AdminUserRepo) GetByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	return r.get(ctx, "email = ?", NormalizeEmail(email))
}

// GetByID fetches an account by id.
func (r *AdminUserRepo) GetByID(ctx context.Context, id uint64) (model.AdminUser, error) {
	return r.get(ctx, "id = ?", id)
}

// SetPassword replaces the password hash.
func (r *AdminUserRepo) SetPassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?", hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
