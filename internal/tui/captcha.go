package tui

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Decoders for challenge images.
	_ "image/jpeg" // Decoders for challenge images.
	_ "image/png"  // Decoders for challenge images.
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const maxCaptchaWidth = 72

var white = colorful.Color{R: 1, G: 1, B: 1}

// captchaImages decodes challenge images lazily and caches their rendering.
type captchaImages struct {
	uris     []string
	rendered map[[2]int]string
}

func newCaptchaImages(uris []string) *captchaImages {
	return &captchaImages{uris: uris, rendered: map[[2]int]string{}}
}

func (c *captchaImages) render(index, width int) string {
	if index < 0 || index >= len(c.uris) {
		return ""
	}
	width = min(max(width, 8), maxCaptchaWidth)
	key := [2]int{index, width}
	if out, ok := c.rendered[key]; ok {
		return out
	}
	img, err := decodeDataURI(c.uris[index])
	var out string
	if err != nil {
		out = errorStyle.Render(fmt.Sprintf("[image %d unavailable: %v]", index+1, err))
	} else {
		out = renderHalfBlocks(img, width)
	}
	c.rendered[key] = out
	return out
}

// decodeDataURI decodes a base64 "data:" URI into an image.
func decodeDataURI(uri string) (image.Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	var raw []byte
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
		}
		raw = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape payload: %w", err)
		}
		raw = []byte(unescaped)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// renderHalfBlocks draws img with "▀" cells: the foreground is the upper
// pixel and the background the lower one, so each row of text covers two
// rows of pixels.
func renderHalfBlocks(img image.Image, width int) string {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return ""
	}
	cols := min(width, srcW)
	scale := float64(srcW) / float64(cols)
	rows := max(2, int(float64(srcH)/scale))
	if rows%2 == 1 {
		rows++
	}

	var b strings.Builder
	for y := 0; y < rows; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := samplePixel(img, x, y, scale)
			bottom := samplePixel(img, x, y+1, scale)
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex()))
			b.WriteString(cell.Render("▀"))
		}
	}
	return b.String()
}

// samplePixel returns the colour at target cell (x, y), flattened onto white.
func samplePixel(img image.Image, x, y int, scale float64) colorful.Color {
	bounds := img.Bounds()
	sx := bounds.Min.X + min(int(float64(x)*scale), bounds.Dx()-1)
	sy := bounds.Min.Y + min(int(float64(y)*scale), bounds.Dy()-1)
	return flatten(img.At(sx, sy))
}

func flatten(c color.Color) colorful.Color {
	_, _, _, a := c.RGBA()
	if a == 0 {
		return white
	}
	col, _ := colorful.MakeColor(c)
	if a == 0xffff {
		return col.Clamped()
	}
	return white.BlendRgb(col, float64(a)/0xffff).Clamped()
}
