// Package imaging turns uploaded pictures into inline avatar data URIs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	AvatarMaxSize = 256
	WebPQuality   = 80
)

var (
	ErrEmpty       = errors.New("no file uploaded")
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("unsupported image type")
	ErrInvalid     = errors.New("invalid image file")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Avatar decodes content, center-crops it to a square, scales it down to
// AvatarMaxSize and returns it as a WebP data URI.
func Avatar(content []byte, maxBytes int) (string, error) {
	if len(content) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && len(content) > maxBytes {
		return "", fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxBytes)
	}
	if _, ok := allowedTypes[http.DetectContentType(content)]; !ok {
		return "", ErrUnsupported
	}

	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", ErrInvalid
	}

	out := fit(squareCrop(src), AvatarMaxSize)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: WebPQuality}); err != nil {
		return "", fmt.Errorf("encode webp: %w", err)
	}
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func squareCrop(src image.Image) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 || b.Dx() == b.Dy() {
		return src
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, xdraw.Src)
	return dst
}

func fit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}
	scale := min(float64(maxSide)/float64(w), float64(maxSide)/float64(h))
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
