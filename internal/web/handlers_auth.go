package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/forms"
)

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"Form": forms.RegisterForm{}})
}

func (h *Handler) register(c *gin.Context) {
	var form forms.RegisterForm
	if !h.bind(c, &form) {
		return
	}

	if err := form.Validate(); err != nil {
		form.Password, form.Password2 = "", ""
		h.renderInvalid(c, "register.html", gin.H{"Form": form}, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			h.audit.Warn(c.Request.Context(), "registration rejected: duplicate",
				"username", form.Username,
				"email", form.Email,
				"ip", c.ClientIP(),
			)
			auth.AddFlash(c, "warning", "Username or email already taken.")
			redirect(c, "/register")
			return
		}
		form.Password, form.Password2 = "", ""
		h.renderInvalid(c, "register.html", gin.H{"Form": form}, err)
		return
	}

	h.audit.Info(c.Request.Context(), "user registered",
		"user_id", user.ID,
		"username", user.Username,
		"ip", c.ClientIP(),
	)
	auth.AddFlash(c, "success", "Registration successful. Please log in.")
	redirect(c, "/login")
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{
		"Form": forms.LoginForm{},
		"Next": c.Query("next"),
	})
}

func (h *Handler) login(c *gin.Context) {
	ctx := c.Request.Context()
	next := c.Query("next")
	if next == "" {
		next = c.PostForm("next")
	}

	locked, err := h.auth.CheckLock(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if locked > 0 {
		h.audit.Warn(ctx, "login blocked: too many attempts", "ip", c.ClientIP(), "retry_after", locked.String())
		h.renderLocked(c, locked, next)
		return
	}

	var form forms.LoginForm
	if !h.bind(c, &form) {
		return
	}
	if err := form.Validate(); err != nil {
		form.Password = ""
		h.renderInvalid(c, "login.html", gin.H{"Form": form, "Next": next}, err)
		return
	}

	user, err := h.users.Verify(ctx, form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, common.ErrAuthFailure) {
			h.respondWithError(c, err)
			return
		}

		remaining, recErr := h.auth.RecordFailure(c)
		if recErr != nil {
			h.respondWithError(c, recErr)
			return
		}
		h.audit.Warn(ctx, "failed login attempt", "email", form.Email, "ip", c.ClientIP(), "remaining", remaining)
		if remaining == 0 {
			h.audit.Warn(ctx, "login locked", "ip", c.ClientIP())
		}

		auth.AddFlash(c, "danger", "Invalid credentials")
		form.Password = ""
		h.render(c, http.StatusOK, "login.html", gin.H{"Form": form, "Next": next})
		return
	}

	if err := h.auth.ResetAttempts(c); err != nil {
		h.log.Warn(ctx, "reset login attempts", "error", err)
	}
	if err := h.auth.Login(c, user); err != nil {
		h.respondWithError(c, err)
		return
	}

	h.audit.Info(ctx, "user logged in", "user_id", user.ID, "ip", c.ClientIP())
	c.Redirect(http.StatusFound, auth.SafeRedirect(next))
}

func (h *Handler) renderLocked(c *gin.Context, locked time.Duration, next string) {
	minutes := int(math.Ceil(locked.Minutes()))
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(locked.Seconds()))))
	auth.AddFlash(c, "danger", fmt.Sprintf("Too many failed login attempts. Try again in %d minute(s).", minutes))
	h.render(c, http.StatusTooManyRequests, "login.html", gin.H{
		"Form": forms.LoginForm{},
		"Next": next,
	})
}

func (h *Handler) logout(c *gin.Context) {
	user := auth.CurrentUser(c)
	if err := h.auth.Logout(c); err != nil {
		h.respondWithError(c, err)
		return
	}
	h.audit.Info(c.Request.Context(), "user logged out", "user_id", user.ID, "ip", c.ClientIP())

	auth.AddFlash(c, "info", "Logged out.")
	redirect(c, "/")
}

// bind はフォーム値を構造体に読み込みます。失敗時はエラーページを描画して false を返します。
func (h *Handler) bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(c, http.StatusRequestEntityTooLarge)
			return false
		}
		_ = c.Error(err)
		h.renderError(c, http.StatusBadRequest)
		return false
	}
	return true
}

// renderInvalid は検証エラーをフィールドごとに表示してフォームを再描画します（HTTP 200）。
func (h *Handler) renderInvalid(c *gin.Context, name string, data gin.H, err error) {
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		h.respondWithError(c, err)
		return
	}
	data["Errors"] = verr.Fields
	h.render(c, http.StatusOK, name, data)
}
