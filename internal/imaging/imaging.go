// Package imaging はプロフィール画像の検証と縮小を行います。
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	"github.com/yourusername/jobboard/internal/common"
)

// MaxWidth と MaxHeight はサムネイルの外接ボックスです。
const (
	MaxWidth  = 400
	MaxHeight = 400

	// MaxPixels はデコードを許可する元画像の画素数の上限です。
	MaxPixels = 40_000_000

	jpegQuality = 90
)

// allowed は拡張子と Content-Type の対応表です。
var allowed = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// Extension はファイル名から小文字の拡張子を取り出し、許可されているかを返します。
func Extension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowed[ext]
	return ext, ok
}

// ContentType は拡張子に対応する Content-Type を返します。
func ContentType(ext string) string {
	if ct, ok := allowed[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Thumbnail は画像データを検証して MaxWidth×MaxHeight に収まるよう縮小し、
// 拡張子が示す形式で再エンコードします。縦横比は維持し、拡大はしません。
//
// 形式が許可されていない、デコードできない、または画素数が MaxPixels を超える場合は
// common.ErrInvalidImage を返します。
func Thumbnail(data []byte, ext string) ([]byte, error) {
	ext = strings.ToLower(ext)
	if _, ok := allowed[ext]; !ok {
		return nil, fmt.Errorf("%w: extension %q not allowed", common.ErrInvalidImage, ext)
	}

	mt := mimetype.Detect(data)
	if !mt.Is("image/png") && !mt.Is("image/jpeg") && !mt.Is("image/gif") {
		return nil, fmt.Errorf("%w: detected %s", common.ErrInvalidImage, mt.String())
	}

	// ヘッダーの寸法だけ先に読み、巨大な画像はピクセルを確保する前に拒否する
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: dimensions %dx%d exceed limit", common.ErrInvalidImage, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}

	dst := Fit(src, MaxWidth, MaxHeight)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case ".gif":
		err = gif.Encode(&buf, dst, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	return buf.Bytes(), nil
}

// Fit は src を maxW×maxH に収まるよう縮小した画像を返します。すでに収まっている場合は src をそのまま返します。
func Fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	nw, nh := FitSize(w, h, maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// FitSize は縦横比を保ったまま maxW×maxH に収まる寸法を計算します。
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// 幅と高さの縮小率のうち小さい方を採用する
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}
