package model

import "time"

// RoleAdmin is the only role issued by the back-office login.
const RoleAdmin = "ADMIN"

// AdminUser is a back-office account stored in `admin_users`.
// The json tags are omitted because the password hash must never be
// rendered; handlers build their own response types.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique login.
//	PasswordHash – bcrypt hash.
//	IsActive     – disabled accounts cannot log in or refresh.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type AdminUser struct {
	ID           uint64    // admin_users.id
	Email        string    // admin_users.email
	PasswordHash string    // admin_users.password_hash
	IsActive     bool      // admin_users.is_active
	CreatedAt    time.Time // admin_users.created_at
	UpdatedAt    time.Time // admin_users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
