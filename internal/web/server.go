// Package web は HTTP ルーティングとハンドラーを提供します。
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/config"
	"github.com/yourusername/jobboard/internal/feed"
	"github.com/yourusername/jobboard/internal/logging"
	"github.com/yourusername/jobboard/internal/services"
	"github.com/yourusername/jobboard/internal/storage"
)

// FeedSource は外部求人の取得元です。失敗時は空の一覧を返す実装を想定しています。
type FeedSource interface {
	Jobs(ctx context.Context) []feed.Job
}

// Deps はルーターの組み立てに必要な依存関係です。
type Deps struct {
	Config    *config.Config
	Users     *services.UserService
	Vacancies *services.VacancyService
	Auth      *auth.Manager
	Storage   storage.Storage
	Feed      FeedSource
	// Log はアプリケーションログ、Audit はセキュリティイベントの記録先です。
	Log   logging.Logger
	Audit logging.Logger
}

// Handler はすべての HTTP ハンドラーをまとめた構造体です。
type Handler struct {
	cfg       *config.Config
	users     *services.UserService
	vacancies *services.VacancyService
	auth      *auth.Manager
	storage   storage.Storage
	feed      FeedSource
	log       logging.Logger
	audit     logging.Logger
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Config.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	h := &Handler{
		cfg:       d.Config,
		users:     d.Users,
		vacancies: d.Vacancies,
		auth:      d.Auth,
		storage:   d.Storage,
		feed:      d.Feed,
		log:       d.Log,
		audit:     d.Audit,
	}

	router := gin.New()
	router.MaxMultipartMemory = d.Config.MaxUploadSize

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	// 静的ファイルは独自の 404 ページを使わないためミドルウェアより前に登録する
	router.StaticFS("/static", staticFS())

	router.Use(
		requestLogger(h.log),
		gin.CustomRecovery(h.recover),
	)

	// CORS許可オリジンが設定されている場合のみ有効にする
	if origins := d.Config.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"}
		router.Use(cors.New(corsConfig))
	}

	store := auth.NewStore([]byte(d.Config.SessionSecret), d.Config.GinMode == gin.ReleaseMode)
	router.Use(
		sessions.Sessions(auth.SessionCookieName, store),
		h.errorPages(),
		bodyLimit(d.Config.MaxUploadSize),
		h.auth.LoadUser(),
		h.auth.CSRF(),
	)

	h.routes(router)
	return router, nil
}

func (h *Handler) routes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.GET("/uploads/:name", h.upload)

	router.GET("/", h.index)
	router.GET("/vacancies", h.listVacancies)
	router.GET("/vacancies/category/:name", h.listByCategory)
	router.GET("/vacancy/:id", h.showVacancy)
	router.GET("/user/:id", h.publicProfile)
	router.GET("/external_jobs", h.externalJobs)

	guest := router.Group("")
	guest.Use(h.auth.RedirectIfAuthenticated())
	{
		guest.GET("/register", h.registerForm)
		guest.POST("/register", h.register)
		guest.GET("/login", h.loginForm)
		guest.POST("/login", h.login)
	}

	member := router.Group("")
	member.Use(h.auth.RequireLogin())
	{
		member.GET("/logout", h.logout)
		member.GET("/profile", h.profile)
		member.POST("/profile", h.updateProfileImage)
		member.GET("/vacancy/add", h.newVacancyForm)
		member.POST("/vacancy/add", h.createVacancy)
		member.GET("/vacancy/:id/edit", h.editVacancyForm)
		member.POST("/vacancy/:id/edit", h.updateVacancy)
		member.POST("/vacancy/:id/delete", h.deleteVacancy)
	}

	router.NoRoute(h.notFound)
}

// health はヘルスチェックエンドポイントのハンドラーです。
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "jobboard",
		"version": "0.1.0",
	})
}
