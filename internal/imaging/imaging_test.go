package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/yourusername/jobboard/internal/common"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		ok   bool
	}{
		{"me.PNG", ".png", true},
		{"me.jpeg", ".jpeg", true},
		{"me.JPG", ".jpg", true},
		{"anim.gif", ".gif", true},
		{"doc.pdf", ".pdf", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		ext, ok := Extension(tt.name)
		if ext != tt.ext || ok != tt.ok {
			t.Fatalf("Extension(%q) = %q, %v; want %q, %v", tt.name, ext, ok, tt.ext, tt.ok)
		}
	}
	if ContentType(".JPG") != "image/jpeg" {
		t.Fatalf("ContentType(.JPG) = %q", ContentType(".JPG"))
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{800, 600, 400, 300},
		{600, 1200, 200, 400},
		{400, 400, 400, 400},
		{100, 50, 100, 50},
		{4000, 1, 400, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, MaxWidth, MaxHeight)
		if w != tt.wantW || h != tt.wantH {
			t.Fatalf("FitSize(%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestThumbnailShrinksLargePNG(t *testing.T) {
	out, err := Thumbnail(encodePNG(t, solid(1000, 500)), ".png")
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %s, want png", format)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("size = %dx%d, want 400x200", b.Dx(), b.Dy())
	}
}

func TestThumbnailDoesNotUpscale(t *testing.T) {
	out, err := Thumbnail(encodePNG(t, solid(50, 80)), ".png")
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 80 {
		t.Fatalf("size = %dx%d, want 50x80", cfg.Width, cfg.Height)
	}
}

func TestThumbnailReencodesByExtension(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(600, 600), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	out, err := Thumbnail(buf.Bytes(), ".jpg")
	if err != nil {
		t.Fatalf("Thumbnail jpg: %v", err)
	}
	if _, format, _ := image.DecodeConfig(bytes.NewReader(out)); format != "jpeg" {
		t.Fatalf("format = %s, want jpeg", format)
	}

	buf.Reset()
	if err := gif.Encode(&buf, solid(10, 10), nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}
	out, err = Thumbnail(buf.Bytes(), ".gif")
	if err != nil {
		t.Fatalf("Thumbnail gif: %v", err)
	}
	if _, format, _ := image.DecodeConfig(bytes.NewReader(out)); format != "gif" {
		t.Fatalf("format = %s, want gif", format)
	}
}

func TestThumbnailRejectsNonImages(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ext  string
	}{
		{"text payload", []byte("definitely not an image"), ".png"},
		{"pdf payload", []byte("%PDF-1.4\n%..."), ".jpg"},
		{"bad extension", encodePNG(t, solid(5, 5)), ".bmp"},
		{"truncated png", encodePNG(t, solid(5, 5))[:20], ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Thumbnail(tt.data, tt.ext)
			if !errors.Is(err, common.ErrInvalidImage) {
				t.Fatalf("want ErrInvalidImage, got %v", err)
			}
		})
	}
}

// pngHeader は寸法だけを宣言し、画素データをほとんど持たない PNG を組み立てます。
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(data)))
		buf.Write(n[:])
		body := append([]byte(typ), data...)
		buf.Write(body)
		binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(body))
		buf.Write(n[:])
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor
	chunk("IHDR", ihdr)
	chunk("IDAT", []byte{0x78, 0x9c, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestThumbnailRejectsOversizedDimensions(t *testing.T) {
	data := pngHeader(20000, 20000)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("header should parse: %v", err)
	}
	if cfg.Width != 20000 || cfg.Height != 20000 {
		t.Fatalf("header = %dx%d", cfg.Width, cfg.Height)
	}

	_, err = Thumbnail(data, ".png")
	if !errors.Is(err, common.ErrInvalidImage) {
		t.Fatalf("want ErrInvalidImage, got %v", err)
	}
}

func TestThumbnailAcceptsPixelLimit(t *testing.T) {
	// 縦長でも画素数が上限内なら縮小される
	out, err := Thumbnail(encodePNG(t, solid(2, 1200)), ".png")
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Height != MaxHeight || cfg.Width != 1 {
		t.Fatalf("size = %dx%d, want 1x%d", cfg.Width, cfg.Height, MaxHeight)
	}
}
