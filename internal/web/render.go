package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/feed"
	"github.com/yourusername/jobboard/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const defaultImagePath = "/static/img/default.png"

var templateFuncs = template.FuncMap{
	"date":       formatDate,
	"stripHTML":  feed.StripHTML,
	"truncate":   truncate,
	"imageURL":   imageURL,
	"pathEscape": url.PathEscape,
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// render は共通のテンプレート変数を追加してページを描画します。
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = auth.CurrentUser(c)
	data["CSRFToken"] = auth.CSRFToken(c)
	data["Categories"] = models.Categories
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	// 静的ファイルの 404 はセッションミドルウェアを通らない
	if _, ok := c.Get(sessions.DefaultKey); ok {
		data["Flashes"] = auth.Flashes(c)
	}
	c.HTML(status, name, data)
}

// redirect はフラッシュメッセージを保存してから 302 を返します。
func redirect(c *gin.Context, location string) {
	if err := sessions.Default(c).Save(); err != nil {
		_ = c.Error(err)
	}
	c.Redirect(http.StatusFound, location)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// truncate は s を最大 n 文字に切り詰め、切り詰めた場合は "..." を付けます。
func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// imageURL はプロフィール画像のファイル名を配信用のパスに変換します。
func imageURL(name string) string {
	if name == "" || name == models.DefaultProfileImage {
		return defaultImagePath
	}
	return "/uploads/" + url.PathEscape(name)
}
