package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/common"
)

var statusTitles = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Page Not Found",
	http.StatusMethodNotAllowed:      "Method Not Allowed",
	http.StatusRequestEntityTooLarge: "File Too Large",
	http.StatusTooManyRequests:       "Too Many Requests",
	http.StatusInternalServerError:   "Server Error",
}

var statusMessages = map[int]string{
	http.StatusBadRequest:            "The request could not be processed. Please reload the page and try again.",
	http.StatusRequestEntityTooLarge: "The uploaded file exceeds the size limit.",
	http.StatusTooManyRequests:       "Too many requests. Please try again later.",
}

// respondWithError はサービス層のエラーを HTTP ステータスとエラーページに変換します。
// ValidationError / Conflict / AuthFailure はフォームごとに扱いが異なるため各ハンドラーで処理します。
func (h *Handler) respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		h.renderError(c, http.StatusNotFound)
	case errors.Is(err, common.ErrForbidden):
		h.audit.Warn(c.Request.Context(), "permission denied",
			"user_id", currentUserID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		h.renderError(c, http.StatusForbidden)
	case errors.Is(err, context.Canceled):
		// クライアントが切断済みのため応答は届かない
		c.Status(499)
		c.Abort()
	default:
		_ = c.Error(err)
		h.renderError(c, http.StatusInternalServerError)
	}
}

// renderError は status に応じたエラーページを描画して後続処理を中断します。
func (h *Handler) renderError(c *gin.Context, status int) {
	ctx := c.Request.Context()
	switch status {
	case http.StatusNotFound:
		h.audit.Warn(ctx, "page not found", "path", c.Request.URL.Path)
	case http.StatusInternalServerError:
		h.audit.Error(ctx, "internal server error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", lastError(c),
		)
	}

	name := "error.html"
	switch status {
	case http.StatusForbidden:
		name = "403.html"
	case http.StatusNotFound:
		name = "404.html"
	case http.StatusInternalServerError:
		name = "500.html"
	}

	title, ok := statusTitles[status]
	if !ok {
		title = http.StatusText(status)
	}
	h.render(c, status, name, gin.H{
		"Status":  status,
		"Title":   title,
		"Message": statusMessages[status],
	})
	c.Abort()
}

// errorPages はレスポンス未送信のままエラーステータスで終わったリクエストにエラーページを描画します。
// ミドルウェアは c.Status と c.Abort だけを行い、描画はここに集約します。
func (h *Handler) errorPages() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest || status == 499 {
			return
		}
		if last := c.Errors.Last(); last != nil && errors.Is(last.Err, auth.ErrCSRFInvalid) {
			h.audit.Warn(c.Request.Context(), "csrf validation failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"ip", c.ClientIP(),
			)
		}
		h.renderError(c, status)
	}
}

// notFound は未登録ルートのハンドラーです。
func (h *Handler) notFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound)
}

// recover は panic を 500 ページに変換します。
func (h *Handler) recover(c *gin.Context, recovered any) {
	_ = c.Error(fmt.Errorf("%w: panic: %v", common.ErrInternal, recovered))
	if c.Writer.Written() {
		c.Abort()
		return
	}
	h.renderError(c, http.StatusInternalServerError)
}

func lastError(c *gin.Context) string {
	if last := c.Errors.Last(); last != nil {
		return last.Error()
	}
	return ""
}

func currentUserID(c *gin.Context) int64 {
	if u := auth.CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}
