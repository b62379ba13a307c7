package vacancies

import (
	"context"

	"github.com/yourusername/jobboard/internal/models"
)

// Filter は一覧の絞り込み条件です。空文字は「すべて」を意味します。
type Filter struct {
	Category string
}

// Repository は求人の永続化を扱います。
type Repository interface {
	Create(ctx context.Context, v *models.Vacancy) (*models.Vacancy, error)
	GetByID(ctx context.Context, id int64) (*models.Vacancy, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]models.Vacancy, error)
	Count(ctx context.Context, f Filter) (int, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]models.Vacancy, error)
	Update(ctx context.Context, v *models.Vacancy) error
	Delete(ctx context.Context, id, authorID int64) error
}
