// Package users は users テーブルへのアクセスを提供します。
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/models"
)

const userColumns = `id, username, email, password_hash, profile_image, created_at`

// SQLRepository は database/sql を使った Repository 実装です。
// SQLite と PostgreSQL の両方で同じクエリを使い、プレースホルダーだけ方言に合わせます。
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password_hash, profile_image, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, r.q(query),
		user.Username, user.Email, user.PasswordHash, user.ProfileImage, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(query), id))
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(query), email))
}

func (r *SQLRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`

	var n int
	if err := r.db.QueryRowContext(ctx, r.q(query), username, email).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) UpdateProfileImage(ctx context.Context, id int64, image string) error {
	query := `UPDATE users SET profile_image = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), image, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfileImage, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
