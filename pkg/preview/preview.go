package preview

// Package preview renders an annotation on top of its image, for eyeballing
// the corpus before committing to a training run.

import (
	"fmt"
	"image"
	"strings"

	"github.com/bmharper/cimg/v2"
	"github.com/fogleman/gg"
	"github.com/playsight/capset/pkg/annotation"
)

// Box outline colors, cycled per character
var palette = [][3]float64{
	{0.9, 0.2, 0.2},
	{0.2, 0.8, 0.3},
	{0.2, 0.5, 0.9},
	{0.9, 0.8, 0.2},
	{0.8, 0.3, 0.8},
	{0.3, 0.8, 0.8},
}

// Render draws the characters' boxes and the requested attribute values onto
// the image, and writes the result as a PNG.
func Render(imagePath string, ann *annotation.Annotation, keys []annotation.Key, outputPath string) error {
	if err := annotation.ValidateKeys(keys); err != nil {
		return err
	}
	img, err := cimg.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("Failed to decode image %v: %w", imagePath, err)
	}
	dc := gg.NewContextForRGBA(toRGBA(img))

	for i, c := range ann.Characters {
		if c.Coordinates == nil {
			continue
		}
		b := *c.Coordinates
		x := b.X1() * float64(img.Width)
		y := b.Y1() * float64(img.Height)
		w := b.Width() * float64(img.Width)
		h := b.Height() * float64(img.Height)

		color := palette[i%len(palette)]
		dc.SetRGB(color[0], color[1], color[2])
		dc.SetLineWidth(2)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()

		if label := characterLabel(c, keys); label != "" {
			dc.DrawString(label, x+2, y-4)
		}
	}

	return dc.SavePNG(outputPath)
}

func characterLabel(c *annotation.Character, keys []annotation.Key) string {
	var parts []string
	for _, k := range keys {
		if k == annotation.KeyCoordinates || !k.IsCharacterKey() {
			continue
		}
		if v, ok := c.Attr(k); ok && !annotation.IsSentinel(v) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

// toRGBA expands cimg's packed RGB pixels into an image.RGBA that gg can draw on.
func toRGBA(img *cimg.Image) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	if img.NChan() == 4 {
		copy(rgba.Pix, img.Pixels)
		return rgba
	}
	for y := 0; y < img.Height; y++ {
		src := y * img.Width * 3
		dst := y * rgba.Stride
		for x := 0; x < img.Width; x++ {
			rgba.Pix[dst+0] = img.Pixels[src+0]
			rgba.Pix[dst+1] = img.Pixels[src+1]
			rgba.Pix[dst+2] = img.Pixels[src+2]
			rgba.Pix[dst+3] = 255
			src += 3
			dst += 4
		}
	}
	return rgba
}
