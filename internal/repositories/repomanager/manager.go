// Package repomanager は方言に応じたリポジトリ実装を生成し、
// スキーマのマイグレーションを実行します。
package repomanager

import (
	"context"
	"database/sql"

	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/migrations"
	"github.com/yourusername/jobboard/internal/repositories/users"
	"github.com/yourusername/jobboard/internal/repositories/vacancies"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Vacancies(db dbx.DBTX) vacancies.Repository
}

// SQLRepositoryManager は database/sql ベースのリポジトリを DBTX に束ねて返します。
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// migrateUp はテスト用の差し替えポイントです。
var migrateUp = migrations.Up

// New は方言に対応した RepositoryManager を作成します。
func New(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

// Users は DBTX に束ねた users.Repository を返します。
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// Vacancies は DBTX に束ねた vacancies.Repository を返します。
func (m *SQLRepositoryManager) Vacancies(db dbx.DBTX) vacancies.Repository {
	return vacancies.NewSQLRepository(db, m.dialect)
}

// RunMigrations は埋め込みマイグレーションを適用します。
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, m.dialect)
}
