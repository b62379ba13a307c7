// Package vacancies は vacancies テーブルへのアクセスを提供します。
package vacancies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/models"
)

// 一覧・詳細ともに投稿者名を結合して返す
const selectVacancy = `SELECT v.id, v.title, v.short_description, v.full_description, v.company,
	v.salary, v.location, v.category, v.created_at, v.author_id, u.username
	FROM vacancies v JOIN users u ON u.id = v.author_id`

const newestFirst = ` ORDER BY v.created_at DESC, v.id DESC`

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

func (r *SQLRepository) Create(ctx context.Context, v *models.Vacancy) (*models.Vacancy, error) {
	query :=
		`INSERT INTO vacancies (title, short_description, full_description, company, salary, location, category, created_at, author_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, r.q(query),
		v.Title, v.ShortDescription, v.FullDescription, v.Company, nullString(v.Salary),
		v.Location, v.Category, v.CreatedAt, v.AuthorID).Scan(&v.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Vacancy, error) {
	query := selectVacancy + ` WHERE v.id = ?`

	v, err := scanVacancy(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) List(ctx context.Context, f Filter, limit, offset int) ([]models.Vacancy, error) {
	query := selectVacancy
	args := []any{}
	if f.Category != "" {
		query += ` WHERE v.category = ?`
		args = append(args, f.Category)
	}
	query += newestFirst + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.queryList(ctx, query, args...)
}

func (r *SQLRepository) Count(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM vacancies`
	args := []any{}
	if f.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, f.Category)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, r.q(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) ListByAuthor(ctx context.Context, authorID int64) ([]models.Vacancy, error) {
	query := selectVacancy + ` WHERE v.author_id = ?` + newestFirst
	return r.queryList(ctx, query, authorID)
}

// Update は可変フィールドのみを上書きします。所有者が一致しない行は更新されず ErrNotFound になります。
func (r *SQLRepository) Update(ctx context.Context, v *models.Vacancy) error {
	query :=
		`UPDATE vacancies
		 SET title = ?, short_description = ?, full_description = ?, company = ?,
		     salary = ?, location = ?, category = ?
		 WHERE id = ? AND author_id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query),
		v.Title, v.ShortDescription, v.FullDescription, v.Company,
		nullString(v.Salary), v.Location, v.Category, v.ID, v.AuthorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id, authorID int64) error {
	query := `DELETE FROM vacancies WHERE id = ? AND author_id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), id, authorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLRepository) queryList(ctx context.Context, query string, args ...any) ([]models.Vacancy, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Vacancy{}
	for rows.Next() {
		v, err := scanVacancy(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVacancy(s scanner) (*models.Vacancy, error) {
	var (
		v      models.Vacancy
		salary sql.NullString
	)
	err := s.Scan(&v.ID, &v.Title, &v.ShortDescription, &v.FullDescription, &v.Company,
		&salary, &v.Location, &v.Category, &v.CreatedAt, &v.AuthorID, &v.AuthorName)
	if err != nil {
		return nil, err
	}
	v.Salary = salary.String
	return &v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
