package repositories

import (
	"context"
	"time"

	"github.com/faycr/accounts/internal/database"
	"github.com/faycr/accounts/internal/models"
	"github.com/google/uuid"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, username, email, password_hash, avatar, verified, code_hash, code_expires_at, created_at, updated_at`

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var avatar *string
	var codeHash *string
	var codeExpiresAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&avatar, &user.Verified, &codeHash, &codeExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if avatar != nil {
		user.Avatar = *avatar
	}
	user.CodeHash = codeHash
	user.CodeExpiresAt = codeExpiresAt

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

// Create inserts a new user record. The email unique constraint maps duplicate
// inserts to models.ErrConflict, which closes the look-up-then-create race in
// federated login.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, avatar, verified, code_hash, code_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	var avatar *string
	if user.Avatar != "" {
		avatar = &user.Avatar
	}

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		avatar, user.Verified, user.CodeHash, user.CodeExpiresAt,
		user.CreatedAt, user.UpdatedAt,
	))
}

// MarkVerified flips the user to verified and clears the pending code in a
// single statement, so the code cannot be consumed twice.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET verified = TRUE, code_hash = NULL, code_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND verified = FALSE
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetVerificationCode overwrites the pending code and expiry for an
// unverified user.
func (r *UserRepository) SetVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET code_hash = $2, code_expires_at = $3, updated_at = NOW()
		WHERE id = $1 AND verified = FALSE
	`

	result, err := r.db.Pool.Exec(ctx, query, id, codeHash, expiresAt)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateProfile overwrites the two mutable display fields unconditionally.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username, avatar string) error {
	query := `
		UPDATE users
		SET username = $2, avatar = $3, updated_at = NOW()
		WHERE id = $1
	`

	var avatarVal *string
	if avatar != "" {
		avatarVal = &avatar
	}

	result, err := r.db.Pool.Exec(ctx, query, id, username, avatarVal)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateAvatar overwrites only the avatar, used when a federated provider
// reports a new picture.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) error {
	query := `UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id, avatar)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearExpiredCodes nulls out verification codes whose expiry has passed.
// Users with a cleared code request a fresh one through resend.
func (r *UserRepository) ClearExpiredCodes(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET code_hash = NULL, code_expires_at = NULL, updated_at = NOW()
		WHERE verified = FALSE AND code_expires_at IS NOT NULL AND code_expires_at < NOW()
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
