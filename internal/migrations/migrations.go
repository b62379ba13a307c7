// Package migrations は方言ごとのスキーマ定義を埋め込み、goose で適用します。
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/yourusername/jobboard/internal/dbx"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// FS は方言に対応するマイグレーションファイル群を返します。
func FS(dialect dbx.Dialect) (fs.FS, goose.Dialect, error) {
	switch dialect {
	case dbx.SQLite:
		sub, err := fs.Sub(files, "sqlite")
		return sub, goose.DialectSQLite3, err
	case dbx.Postgres:
		sub, err := fs.Sub(files, "postgres")
		return sub, goose.DialectPostgres, err
	default:
		return nil, "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
}

// Up は未適用のマイグレーションをすべて適用します。
func Up(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	fsys, gd, err := FS(dialect)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
