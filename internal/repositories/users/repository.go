package users

import (
	"context"

	"github.com/yourusername/jobboard/internal/models"
)

// Repository はユーザーの永続化を扱います。
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateProfileImage(ctx context.Context, id int64, image string) error
}
