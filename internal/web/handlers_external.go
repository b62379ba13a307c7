package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// externalJobs は外部フィードの求人を表示します。取得に失敗した場合は空の一覧です。
func (h *Handler) externalJobs(c *gin.Context) {
	jobs := h.feed.Jobs(c.Request.Context())
	h.render(c, http.StatusOK, "external_jobs.html", gin.H{"Jobs": jobs})
}
