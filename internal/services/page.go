package services

import "github.com/yourusername/jobboard/internal/models"

// Page はページ分割された求人一覧です。
type Page struct {
	Items  []models.Vacancy
	Number int
	Size   int
	Total  int
}

// Pages は総ページ数です。0件なら0です。
func (p *Page) Pages() int {
	if p.Total == 0 || p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.Pages() }
func (p *Page) PrevNum() int  { return p.Number - 1 }
func (p *Page) NextNum() int  { return p.Number + 1 }

// Numbers はページ番号リンク用に 1..Pages を返します。
func (p *Page) Numbers() []int {
	n := p.Pages()
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
