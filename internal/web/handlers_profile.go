package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/imaging"
	"github.com/yourusername/jobboard/internal/models"
	"github.com/yourusername/jobboard/internal/storage"
)

const profileImageField = "profile_image"

func (h *Handler) profile(c *gin.Context) {
	h.renderProfile(c, auth.CurrentUser(c), false)
}

// publicProfile はプロフィールページを閲覧専用で表示します。
func (h *Handler) publicProfile(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound)
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.renderProfile(c, user, true)
}

func (h *Handler) renderProfile(c *gin.Context, user *models.User, public bool) {
	list, err := h.vacancies.ListByAuthor(c.Request.Context(), user.ID)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "profile.html", gin.H{
		"User":      user,
		"Vacancies": list,
		"Public":    public,
	})
}

func (h *Handler) updateProfileImage(c *gin.Context) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	header, err := c.FormFile(profileImageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(c, http.StatusRequestEntityTooLarge)
			return
		}
		h.invalidImage(c, err)
		return
	}
	if header.Size > h.cfg.MaxUploadSize {
		h.renderError(c, http.StatusRequestEntityTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadSize+1))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadSize {
		h.renderError(c, http.StatusRequestEntityTooLarge)
		return
	}

	updated, err := h.users.UpdateProfileImage(ctx, user, header.Filename, data)
	if err != nil {
		if errors.Is(err, common.ErrInvalidImage) {
			h.invalidImage(c, err)
			return
		}
		h.respondWithError(c, err)
		return
	}

	h.audit.Info(ctx, "profile image updated", "user_id", updated.ID, "image", updated.ProfileImage)
	auth.AddFlash(c, "success", "Profile image updated.")
	redirect(c, "/profile")
}

func (h *Handler) invalidImage(c *gin.Context, err error) {
	h.audit.Warn(c.Request.Context(), "invalid profile image upload",
		"user_id", currentUserID(c),
		"error", err,
	)
	auth.AddFlash(c, "danger", "Invalid image file.")
	redirect(c, "/profile")
}

// upload は保存済みのプロフィール画像を配信します。
func (h *Handler) upload(c *gin.Context) {
	name := c.Param("name")
	ext, ok := imaging.Extension(name)
	if !ok || storage.ValidateName(name) != nil {
		h.renderError(c, http.StatusNotFound)
		return
	}

	rc, err := h.storage.Open(c.Request.Context(), name)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, -1, imaging.ContentType(ext), rc, nil)
}
