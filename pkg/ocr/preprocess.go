package ocr

import (
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
)

// binarize applies a global threshold to a grayscale image. The stat screens
// use bright text on dark panels, so a single threshold is usually enough.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// saveTemp writes img to a temp PNG and returns its path, or fallback when
// anything goes wrong (the caller then OCRs the original file instead).
func saveTemp(img image.Image, pattern, fallback string) string {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return fallback
	}
	_ = f.Close()
	if err := imaging.Save(img, f.Name()); err != nil {
		_ = os.Remove(f.Name())
		return fallback
	}
	return f.Name()
}
