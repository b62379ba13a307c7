// Package main は求人掲示板サーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/config"
	"github.com/yourusername/jobboard/internal/dbx"
	"github.com/yourusername/jobboard/internal/feed"
	"github.com/yourusername/jobboard/internal/logging"
	"github.com/yourusername/jobboard/internal/repositories/repomanager"
	"github.com/yourusername/jobboard/internal/services"
	"github.com/yourusername/jobboard/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(realMain())
}

// realMain はサーバーを起動し、終了コードを返します。
// os.Exit は defer を実行しないため、後始末はここで完結させる。
func realMain() int {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	level := slog.LevelInfo
	if cfg.GinMode == gin.DebugMode {
		level = slog.LevelDebug
	}
	appLog := logging.New(os.Stdout, level)
	slog.SetDefault(appLog.Slog())

	// セキュリティイベントは標準出力とファイルの両方に出す
	fileLog, closeLog, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		log.Printf("Failed to open security log: %v", err)
		return 1
	}
	defer closeLog.Close()
	audit := logging.Tee{appLog, fileLog}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog, audit); err != nil {
		appLog.Error(ctx, "server stopped with error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, appLog logging.Logger, audit logging.Logger) error {
	db, err := dbx.Open(dbx.Dialect(cfg.DBDriver), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 起動時にマイグレーションを適用する
	rm := repomanager.New(dbx.Dialect(cfg.DBDriver))
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return err
	}

	attempts, closeAttempts, err := setupAttemptStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAttempts()

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.SessionSecret = secret
		appLog.Warn(ctx, "SESSION_SECRET is not set; using a random secret (sessions reset on restart)")
	}

	users := services.NewUserService(db, rm, store, audit)
	manager := auth.NewManager(users, attempts, auth.Options{
		IdleTimeout: cfg.SessionIdleTimeout,
		CSRFEnabled: cfg.CSRFEnabled,
	})

	feedClient := feed.NewClient(nil, feed.Options{
		URL:      cfg.ExternalJobsURL,
		Category: cfg.ExternalJobsCategory,
		Limit:    cfg.ExternalJobsLimit,
		Timeout:  cfg.ExternalJobsTimeout,
	}, audit)

	router, err := web.NewRouter(web.Deps{
		Config:    cfg,
		Users:     users,
		Vacancies: services.NewVacancyService(db, rm),
		Auth:      manager,
		Storage:   store,
		Feed:      feedClient,
		Log:       appLog,
		Audit:     audit,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info(ctx, "starting server", "addr", srv.Addr, "mode", cfg.GinMode,
			"db", cfg.DBDriver, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
