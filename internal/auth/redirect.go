package auth

import (
	"net/url"
	"strings"
)

// SafeRedirect は next がサイト内の相対パスであればそれを、そうでなければ "/" を返します。
// "//evil.example" や "https://..." のようなオープンリダイレクトを防ぎます。
func SafeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	if strings.ContainsAny(next, "\\\r\n\t") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
