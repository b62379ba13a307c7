// Package auth はセッションによる認証、CSRF 対策、ログイン試行回数の制限を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/models"
)

const (
	SessionCookieName    = "jb_session"
	sessionKeyUser       = "user_id"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "csrf_token"
)

var (
	maxSessionLifetime = 12 * time.Hour
	// 最終操作時刻の書き戻しはこの間隔より古い場合だけ行う（毎リクエストのクッキー更新を避ける）
	activityResolution = time.Minute
)

// ContextUserKey と ContextCSRFKey は gin.Context にリクエスト単位の値を保存するキーです。
const (
	ContextUserKey = "auth.user"
	ContextCSRFKey = "auth.csrf"
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// NewStore は署名付きクッキーのセッションストアを作成します。
func NewStore(secret []byte, secure bool) sessions.Store {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// UserLoader はセッションのユーザーIDからユーザーを取得します。
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Options は Manager の設定です。
type Options struct {
	IdleTimeout time.Duration
	CSRFEnabled bool
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users       UserLoader
	attempts    AttemptStore
	idleTimeout time.Duration
	csrfEnabled bool
	now         func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(users UserLoader, attempts AttemptStore, opts Options) *Manager {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = 2 * time.Hour
	}
	return &Manager{
		users:       users,
		attempts:    attempts,
		idleTimeout: idle,
		csrfEnabled: opts.CSRFEnabled,
		now:         time.Now,
	}
}

// Login はセッションを作り直してユーザーを保存し、CSRF トークンを更新します。
func (m *Manager) Login(c *gin.Context, user *models.User) error {
	token, err := generateToken()
	if err != nil {
		return err
	}

	session := sessions.Default(c)
	session.Clear()
	now := m.now()
	session.Set(sessionKeyUser, user.ID)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)

	c.Set(ContextUserKey, user)
	c.Set(ContextCSRFKey, token)
	return session.Save()
}

// Logout はセッションを破棄します。
func (m *Manager) Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	c.Set(ContextUserKey, (*models.User)(nil))
	return session.Save()
}

// CurrentUser はログイン中のユーザーを返します。未ログインなら nil です。
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CheckLock はクライアントIPがロック中なら残り時間を返します。
func (m *Manager) CheckLock(c *gin.Context) (time.Duration, error) {
	return m.attempts.LockedFor(c.Request.Context(), c.ClientIP())
}

// RecordFailure はログイン失敗を記録し、ロックまでの残り回数を返します。
func (m *Manager) RecordFailure(c *gin.Context) (int, error) {
	return m.attempts.RecordFailure(c.Request.Context(), c.ClientIP())
}

// ResetAttempts はログイン成功時に失敗回数を消去します。
func (m *Manager) ResetAttempts(c *gin.Context) error {
	return m.attempts.Reset(c.Request.Context(), c.ClientIP())
}

func clearSession(session sessions.Session) {
	session.Clear()
	_ = session.Save()
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func readID(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
