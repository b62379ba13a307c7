package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/models"
)

func newRepoWithMock(t *testing.T, dialect dbx.Dialect) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, dialect), mock, db
}

var userCols = []string{"id", "username", "email", "password_hash", "profile_image", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	now := time.Now().UTC()
	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash,\s*profile_image,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id\s*$`
	mock.ExpectQuery(q).
		WithArgs("alice", "a@x.com", "hash", models.DefaultProfileImage, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	u := &models.User{Username: "alice", Email: "a@x.com", PasswordHash: "hash", ProfileImage: models.DefaultProfileImage, CreatedAt: now}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.SQLite)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users.*VALUES\s*\(\?,\s*\?,\s*\?,\s*\?,\s*\?\)`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*profile_image,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	mock.ExpectQuery(q).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "alice", "a@x.com", "hash", "default.png", created))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != 1 || got.Username != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestExistsByUsernameOrEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	q := `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$2$`
	mock.ExpectQuery(q).
		WithArgs("alice", "a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q).
		WithArgs("bob", "b@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "alice", "a@x.com")
	if err != nil || !exists {
		t.Fatalf("expected alice to exist, got %v, %v", exists, err)
	}
	exists, err = repo.ExistsByUsernameOrEmail(context.Background(), "bob", "b@x.com")
	if err != nil || exists {
		t.Fatalf("expected bob to be free, got %v, %v", exists, err)
	}
}

func TestUpdateProfileImage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, dbx.Postgres)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+profile_image\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("new.png", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("new.png", int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateProfileImage(context.Background(), 1, "new.png"); err != nil {
		t.Fatalf("UpdateProfileImage: %v", err)
	}
	if err := repo.UpdateProfileImage(context.Background(), 2, "new.png"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound for missing user, got %v", err)
	}
}
