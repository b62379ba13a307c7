// Package models はユーザーと求人のドメインモデルを定義します。
package models

import (
	"strings"
	"time"
)

// DefaultProfileImage はプロフィール画像未設定を表すファイル名です。
// このファイルはストレージではなく静的アセットとして配信され、削除されません。
const DefaultProfileImage = "default.png"

// User は登録済みユーザーです。PasswordHash は bcrypt ハッシュのみを保持します。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	ProfileImage string
	CreatedAt    time.Time
}

// HasDefaultImage はプロフィール画像が既定値かどうかを返します。
func (u *User) HasDefaultImage() bool {
	return u.ProfileImage == "" || u.ProfileImage == DefaultProfileImage
}

// Vacancy は求人情報です。AuthorName は一覧表示用に users から結合した値です。
type Vacancy struct {
	ID               int64
	Title            string
	ShortDescription string
	FullDescription  string
	Company          string
	Salary           string
	Location         string
	Category         string
	CreatedAt        time.Time
	AuthorID         int64
	AuthorName       string
}

// OwnedBy は requester が求人の所有者かどうかを返します。
func (v *Vacancy) OwnedBy(userID int64) bool {
	return v != nil && userID != 0 && v.AuthorID == userID
}

// VacancyInput は作成・更新フォームから受け取る可変フィールドです。
type VacancyInput struct {
	Title            string `form:"title" validate:"required,max=150"`
	ShortDescription string `form:"short_description" validate:"required,max=300"`
	FullDescription  string `form:"full_description" validate:"required"`
	Company          string `form:"company" validate:"required,max=150"`
	Salary           string `form:"salary" validate:"max=100"`
	Location         string `form:"location" validate:"required,max=150"`
	Category         string `form:"category" validate:"required,category"`
}

// Normalize は前後の空白を取り除きます。カテゴリは完全一致で判定するため変更しません。
func (in *VacancyInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.FullDescription = strings.TrimSpace(in.FullDescription)
	in.Company = strings.TrimSpace(in.Company)
	in.Salary = strings.TrimSpace(in.Salary)
	in.Location = strings.TrimSpace(in.Location)
}

// InputFrom は既存の求人から編集フォームの初期値を作ります。
func InputFrom(v *Vacancy) VacancyInput {
	return VacancyInput{
		Title:            v.Title,
		ShortDescription: v.ShortDescription,
		FullDescription:  v.FullDescription,
		Company:          v.Company,
		Salary:           v.Salary,
		Location:         v.Location,
		Category:         v.Category,
	}
}

// Apply は入力値で可変フィールドを上書きします。ID・作成日時・所有者は変更しません。
func (in VacancyInput) Apply(v *Vacancy) {
	v.Title = in.Title
	v.ShortDescription = in.ShortDescription
	v.FullDescription = in.FullDescription
	v.Company = in.Company
	v.Salary = in.Salary
	v.Location = in.Location
	v.Category = in.Category
}

// Categories は求人カテゴリの固定リストです（表示順）。
var Categories = []string{
	"IT",
	"Design",
	"Marketing",
	"Sales",
	"Management",
	"Finance",
	"HR",
	"Customer Support",
	"Engineering",
	"Other",
}

// IsCategory は name が既知のカテゴリかどうかを大文字小文字を区別して判定します。
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
