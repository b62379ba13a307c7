package auth

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Flash は次のページ表示で一度だけ出すメッセージです。
// Category は success / info / warning / danger のいずれかです。
type Flash struct {
	Category string
	Message  string
}

func init() {
	// クッキーストアは gob でエンコードするため登録が必要
	gob.Register(Flash{})
}

// AddFlash はメッセージをセッションに積みます。保存は呼び出し側で行います。
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(Flash{Category: category, Message: message})
}

// Flashes は積まれたメッセージを取り出してセッションから消去します。
func Flashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save()

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
