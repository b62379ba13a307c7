// Package common はレイヤー間で共有するセンチネルエラーを定義します。
// 呼び出し側は errors.Is / errors.As で判定してください。
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// リポジトリ層
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// サービス層
	ErrAuthFailure = errors.New("invalid credentials")
	ErrForbidden   = errors.New("forbidden")
	ErrInternal    = errors.New("internal error")

	// 外部連携・アップロード
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidImage        = errors.New("invalid image")
)

// ValidationError はフィールド単位の入力エラーをまとめたものです。
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError は空の ValidationError を作成します。
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add はフィールドのエラーを追加します。最初のメッセージが優先されます。
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = message
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
