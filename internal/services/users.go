// Package services はハンドラーから呼ばれるユースケースを実装します。
// リポジトリは repomanager 経由で取得し、必要な箇所はトランザクションで束ねます。
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/imaging"
	"github.com/yourusername/jobboard/internal/logging"
	"github.com/yourusername/jobboard/internal/models"
	"github.com/yourusername/jobboard/internal/repositories/repomanager"
	"github.com/yourusername/jobboard/internal/storage"
)

// 未登録メールアドレスでも照合処理の時間を揃えるためのダミーハッシュ
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("jobboard-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// UserService は登録・認証・プロフィール画像の更新を扱います。
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	log         logging.Logger
	hashCost    int
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, store storage.Storage, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: rm,
		storage:     store,
		log:         log,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register は新しいユーザーを作成します。ユーザー名またはメールアドレスが
// 既に使われている場合は common.ErrConflict を返します（大文字小文字は区別）。
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// bcrypt は72バイトまでしか扱えず、文字数の上限より先に超えることがある
		verr := common.NewValidationError()
		verr.Add("password", "Password cannot be longer than 72 bytes.")
		return nil, verr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ProfileImage: models.DefaultProfileImage,
		CreatedAt:    time.Now().UTC(),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrConflict
		}

		user, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Verify はメールアドレスとパスワードを照合します。
// 未登録・不一致のどちらも common.ErrAuthFailure を返します。
func (s *UserService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, common.ErrAuthFailure
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrAuthFailure
	}
	return user, nil
}

// GetByID はユーザーを取得します。存在しない場合は common.ErrNotFound です。
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfileImage はアップロード画像を縮小して保存し、ユーザーの画像を差し替えます。
// 旧画像（既定画像以外）は削除しますが、削除の失敗はログに残すだけで処理は成功扱いです。
func (s *UserService) UpdateProfileImage(ctx context.Context, user *models.User, filename string, data []byte) (*models.User, error) {
	ext, ok := imaging.Extension(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidImage, filename)
	}

	thumb, err := imaging.Thumbnail(data, ext)
	if err != nil {
		return nil, err
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	if err := s.storage.Save(ctx, name, bytes.NewReader(thumb), imaging.ContentType(ext)); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.repomanager.Users(s.db).UpdateProfileImage(ctx, user.ID, name); err != nil {
		if delErr := s.storage.Delete(ctx, name); delErr != nil {
			s.log.Warn(ctx, "failed to remove orphaned image", "image", name, "error", delErr)
		}
		return nil, err
	}

	old := user.ProfileImage
	if !user.HasDefaultImage() && old != name {
		if err := s.storage.Delete(ctx, old); err != nil {
			s.log.Warn(ctx, "failed to delete old profile image", "user_id", user.ID, "image", old, "error", err)
		}
	}

	updated := *user
	updated.ProfileImage = name
	return &updated, nil
}
