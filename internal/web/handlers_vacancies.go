package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/models"
	"github.com/yourusername/jobboard/internal/services"
)

func (h *Handler) index(c *gin.Context) {
	latest, err := h.vacancies.Latest(c.Request.Context(), services.LatestCount)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "index.html", gin.H{"Latest": latest})
}

func (h *Handler) listVacancies(c *gin.Context) {
	h.renderList(c, "")
}

func (h *Handler) listByCategory(c *gin.Context) {
	h.renderList(c, c.Param("name"))
}

func (h *Handler) renderList(c *gin.Context, category string) {
	page, err := h.vacancies.List(c.Request.Context(), category, queryPage(c))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "vacancies.html", gin.H{
		"Page":     page,
		"Category": category,
	})
}

func (h *Handler) showVacancy(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound)
		return
	}

	v, err := h.vacancies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "vacancy_detail.html", gin.H{
		"Vacancy": v,
		"IsOwner": v.OwnedBy(currentUserID(c)),
	})
}

func (h *Handler) newVacancyForm(c *gin.Context) {
	h.render(c, http.StatusOK, "vacancy_form.html", gin.H{"Form": models.VacancyInput{}})
}

func (h *Handler) createVacancy(c *gin.Context) {
	var in models.VacancyInput
	if !h.bind(c, &in) {
		return
	}

	user := auth.CurrentUser(c)
	v, err := h.vacancies.Create(c.Request.Context(), in, user.ID)
	if err != nil {
		h.renderInvalid(c, "vacancy_form.html", gin.H{"Form": in}, err)
		return
	}

	h.audit.Info(c.Request.Context(), "vacancy created", "vacancy_id", v.ID, "user_id", user.ID)
	auth.AddFlash(c, "success", "Vacancy created.")
	redirect(c, "/profile")
}

func (h *Handler) editVacancyForm(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound)
		return
	}

	v, err := h.vacancies.Authorize(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "vacancy_form.html", gin.H{
		"Form": models.InputFrom(v),
		"ID":   v.ID,
		"Edit": true,
	})
}

func (h *Handler) updateVacancy(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound)
		return
	}

	var in models.VacancyInput
	if !h.bind(c, &in) {
		return
	}

	userID := currentUserID(c)
	v, err := h.vacancies.Update(c.Request.Context(), id, in, userID)
	if err != nil {
		h.renderInvalid(c, "vacancy_form.html", gin.H{"Form": in, "ID": id, "Edit": true}, err)
		return
	}

	h.audit.Info(c.Request.Context(), "vacancy updated", "vacancy_id", v.ID, "user_id", userID)
	auth.AddFlash(c, "success", "Vacancy updated.")
	redirect(c, "/vacancy/"+strconv.FormatInt(v.ID, 10))
}

func (h *Handler) deleteVacancy(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound)
		return
	}

	userID := currentUserID(c)
	if err := h.vacancies.Delete(c.Request.Context(), id, userID); err != nil {
		h.respondWithError(c, err)
		return
	}

	h.audit.Info(c.Request.Context(), "vacancy deleted", "vacancy_id", id, "user_id", userID)
	auth.AddFlash(c, "info", "Vacancy deleted.")
	redirect(c, "/profile")
}

// paramID は :id を正の整数として読み取ります。
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryPage は ?page= を読み取ります。数値でなければ1ページ目です。
func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
