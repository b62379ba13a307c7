// Package logging はプロジェクト全体で使う構造化ロガーのインターフェースと
// log/slog による実装を提供します。
package logging

import "context"

// Logger はコンテキスト付きの構造化ロガーです。
//
// 可変長引数はキーと値のペアとして解釈されます。
//
//	log.Info(ctx, "vacancy created", "vacancy_id", id, "user_id", userID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With は指定したキーと値を常に付与する子ロガーを返します。
	With(args ...any) Logger
}
