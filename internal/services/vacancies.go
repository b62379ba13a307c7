package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/models"
	"github.com/yourusername/jobboard/internal/repositories/repomanager"
	"github.com/yourusername/jobboard/internal/repositories/vacancies"
	"github.com/yourusername/jobboard/internal/validation"
)

const (
	// PageSize は一覧ページの1ページあたりの件数です。
	PageSize = 9
	// LatestCount はトップページに表示する新着件数です。
	LatestCount = 6
)

// VacancyService は求人の参照と、所有者チェック付きの更新を扱います。
type VacancyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVacancyService(db *sql.DB, rm repomanager.RepositoryManager) *VacancyService {
	return &VacancyService{db: db, repomanager: rm}
}

// Create は入力を検証してから求人を作成します。検証エラーは *common.ValidationError です。
func (s *VacancyService) Create(ctx context.Context, in models.VacancyInput, ownerID int64) (*models.Vacancy, error) {
	in.Normalize()
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	v := &models.Vacancy{AuthorID: ownerID, CreatedAt: time.Now().UTC()}
	in.Apply(v)

	return s.repomanager.Vacancies(s.db).Create(ctx, v)
}

// List は新しい順に1ページ分の求人を返します。
// page が1未満なら1として扱い、範囲外のページは空の Items を返します（エラーではありません）。
// 未知のカテゴリは common.ErrNotFound です。
func (s *VacancyService) List(ctx context.Context, category string, page int) (*Page, error) {
	if category != "" && !models.IsCategory(category) {
		return nil, common.ErrNotFound
	}
	if page < 1 {
		page = 1
	}

	repo := s.repomanager.Vacancies(s.db)
	filter := vacancies.Filter{Category: category}

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	p := &Page{Items: []models.Vacancy{}, Number: page, Size: PageSize, Total: total}
	// オフセットを掛け算する前に比較するので、巨大な page でも溢れない
	if page > p.Pages() {
		return p, nil
	}

	p.Items, err = repo.List(ctx, filter, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Latest は新着の求人を最大 n 件返します。
func (s *VacancyService) Latest(ctx context.Context, n int) ([]models.Vacancy, error) {
	return s.repomanager.Vacancies(s.db).List(ctx, vacancies.Filter{}, n, 0)
}

// Get は求人を投稿者名付きで返します。
func (s *VacancyService) Get(ctx context.Context, id int64) (*models.Vacancy, error) {
	return s.repomanager.Vacancies(s.db).GetByID(ctx, id)
}

// ListByAuthor はユーザーが投稿した求人を新しい順に返します。
func (s *VacancyService) ListByAuthor(ctx context.Context, userID int64) ([]models.Vacancy, error) {
	return s.repomanager.Vacancies(s.db).ListByAuthor(ctx, userID)
}

// Authorize は requester が求人の所有者であることを確認して求人を返します。
func (s *VacancyService) Authorize(ctx context.Context, id, requester int64) (*models.Vacancy, error) {
	return authorize(ctx, s.repomanager.Vacancies(s.db), id, requester)
}

// Update は所有者のみ可変フィールドを上書きできます。
// 判定順は 存在確認 → 所有者確認 → 入力検証 です。
func (s *VacancyService) Update(ctx context.Context, id int64, in models.VacancyInput, requester int64) (*models.Vacancy, error) {
	var out *models.Vacancy
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Vacancies(tx)

		v, err := authorize(ctx, repo, id, requester)
		if err != nil {
			return err
		}

		in.Normalize()
		if err := validation.Struct(&in); err != nil {
			return err
		}

		in.Apply(v)
		if err := repo.Update(ctx, v); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete は所有者のみ求人を削除できます。
func (s *VacancyService) Delete(ctx context.Context, id, requester int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Vacancies(tx)
		if _, err := authorize(ctx, repo, id, requester); err != nil {
			return err
		}
		return repo.Delete(ctx, id, requester)
	})
}

func authorize(ctx context.Context, repo vacancies.Repository, id, requester int64) (*models.Vacancy, error) {
	v, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.OwnedBy(requester) {
		return nil, common.ErrForbidden
	}
	return v, nil
}
