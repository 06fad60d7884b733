// ABOUTME: CTA-overlay compositing: burns hook/character/goal text onto a thumbnail image.
// ABOUTME: Fixed three-band layout (top/middle/bottom) with band and font sizes proportional to image height; purely local, no remote call.

package overlay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
)

// CTA is the localized call-to-action triple burned onto a thumbnail.
type CTA struct {
	Hook      string
	Character string
	Goal      string
}

// Options configures compositing. FontPath points at a TTF file; when empty,
// the default bitmap face is used (text then does not scale with the image,
// which is acceptable for previews).
type Options struct {
	FontPath string
}

// band height and font size as fractions of image height.
const (
	bandFrac     = 0.16
	hookFontFrac = 0.070
	charFontFrac = 0.048
	goalFontFrac = 0.058
)

// Burn composites the CTA text onto img in three horizontal bands: hook at
// the top, character in the middle, goal at the bottom. The input image is
// not modified; the composited copy is returned.
func Burn(img image.Image, cta CTA, opts Options) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("image is required")
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has zero size")
	}

	dc := gg.NewContextForImage(img)
	bandH := h * bandFrac

	drawBand(dc, w, 0, bandH)
	drawBand(dc, w, (h-bandH)/2, bandH)
	drawBand(dc, w, h-bandH, bandH)

	if err := drawText(dc, opts, cta.Hook, h*hookFontFrac, w/2, bandH/2); err != nil {
		return nil, err
	}
	if err := drawText(dc, opts, cta.Character, h*charFontFrac, w/2, h/2); err != nil {
		return nil, err
	}
	if err := drawText(dc, opts, cta.Goal, h*goalFontFrac, w/2, h-bandH/2); err != nil {
		return nil, err
	}

	return dc.Image(), nil
}

// BurnEncoded decodes image bytes, composites the CTA, and re-encodes as PNG.
// Returns the composited bytes and their mime type.
func BurnEncoded(data []byte, cta CTA, opts Options) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	out, err := Burn(img, cta, opts)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, "", fmt.Errorf("encoding composited image: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

func drawBand(dc *gg.Context, w, y, h float64) {
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRectangle(0, y, w, h)
	dc.Fill()
}

func drawText(dc *gg.Context, opts Options, text string, size, x, y float64) error {
	if text == "" {
		return nil
	}
	if opts.FontPath != "" {
		if err := dc.LoadFontFace(opts.FontPath, size); err != nil {
			return fmt.Errorf("loading font face: %w", err)
		}
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
	return nil
}
