package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/common"
)

// ErrCSRFInvalid はトークンが無い・一致しない場合に c.Errors へ積まれます。
var ErrCSRFInvalid = errors.New("csrf token missing or invalid")

// LoadUser はセッションのユーザーIDを1リクエストにつき1回だけ解決し、gin.Context に保存します。
// 期限切れ・無操作タイムアウト・存在しないユーザーのセッションは破棄して匿名扱いにします。
func (m *Manager) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id := readID(session.Get(sessionKeyUser))
		if id == 0 {
			c.Next()
			return
		}

		now := m.now()
		issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
		lastActive := readUnix(session.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > maxSessionLifetime ||
			lastActive.IsZero() || now.Sub(lastActive) > m.idleTimeout {
			clearSession(session)
			c.Next()
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				clearSession(session)
				c.Next()
				return
			}
			_ = c.Error(err)
			c.Status(http.StatusInternalServerError)
			c.Abort()
			return
		}

		if now.Sub(lastActive) > activityResolution {
			session.Set(sessionKeyLastActive, now.Unix())
			_ = session.Save()
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireLogin は未ログインのリクエストをログインページへリダイレクトします。
// 元のパスとクエリは next パラメーターに保存されます。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		AddFlash(c, "info", "Please log in to access this page.")
		_ = sessions.Default(c).Save()
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RedirectIfAuthenticated はログイン済みユーザーをトップページへ戻します（/login, /register 用）。
func (m *Manager) RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRF はすべてのセッションにトークンを持たせ、状態を変更するメソッドでは
// csrf_token フォーム値または X-CSRF-Token ヘッダーとの一致を検証します。
func (m *Manager) CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		expected, _ := session.Get(sessionKeyCSRF).(string)
		if expected == "" {
			token, err := generateToken()
			if err != nil {
				_ = c.Error(err)
				c.Status(http.StatusInternalServerError)
				c.Abort()
				return
			}
			expected = token
			session.Set(sessionKeyCSRF, expected)
			_ = session.Save()
		}
		c.Set(ContextCSRFKey, expected)

		if !m.csrfEnabled || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		received := c.GetHeader(csrfHeader)
		if received == "" {
			received = c.PostForm(csrfFormField)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			_ = c.Error(ErrCSRFInvalid)
			c.Status(http.StatusBadRequest)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CSRFToken は現在のリクエストの CSRF トークンを返します（テンプレート用）。
func CSRFToken(c *gin.Context) string {
	return c.GetString(ContextCSRFKey)
}
