// Package imaging bounds captured drawings before they are stored with
// a character version.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

// MaxWidth is the stored image width bound, in pixels.
const MaxWidth = 512

const jpegQuality = 70

// DecodeDataURL accepts a data URL or bare base64 and returns the raw
// image bytes.
func DecodeDataURL(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx >= 0 {
		s = s[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return data, nil
}

// Bound downscales the image to at most maxWidth pixels wide, keeping
// aspect ratio and re-encoding as JPEG. Images already within the bound
// are returned unchanged.
func Bound(data []byte, maxWidth int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth {
		return data, nil
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL encodes image bytes as a data URL for storage.
func DataURL(data []byte) string {
	mime := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
