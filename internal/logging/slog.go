package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// SlogLogger は *slog.Logger を Logger として扱うためのラッパーです。
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger は既存の *slog.Logger から SlogLogger を作成します。
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// New は w に JSON 形式で出力するロガーを作成します。
func New(w io.Writer, level slog.Level) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h))
}

// OpenFile はセキュリティイベント用の追記専用ログファイルを開きます。
// 親ディレクトリが無ければ作成します。戻り値の io.Closer はシャットダウン時に閉じてください。
func OpenFile(path string) (*SlogLogger, io.Closer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	return NewSlogLogger(slog.New(h)), f, nil
}

// Discard は何も出力しないロガーを返します（テスト用）。
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Slog は内部の *slog.Logger を返します。
func (s *SlogLogger) Slog() *slog.Logger {
	return s.l
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

// Tee は複数のロガーへ同じイベントを書き出します。
// アプリログとセキュリティログの両方に残したいイベントで使います。
type Tee []Logger

func (t Tee) Debug(ctx context.Context, msg string, args ...any) {
	for _, l := range t {
		l.Debug(ctx, msg, args...)
	}
}

func (t Tee) Info(ctx context.Context, msg string, args ...any) {
	for _, l := range t {
		l.Info(ctx, msg, args...)
	}
}

func (t Tee) Warn(ctx context.Context, msg string, args ...any) {
	for _, l := range t {
		l.Warn(ctx, msg, args...)
	}
}

func (t Tee) Error(ctx context.Context, msg string, args ...any) {
	for _, l := range t {
		l.Error(ctx, msg, args...)
	}
}

func (t Tee) With(args ...any) Logger {
	out := make(Tee, 0, len(t))
	for _, l := range t {
		out = append(out, l.With(args...))
	}
	return out
}
