package ocr

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// statWhitelist keeps Tesseract away from glyphs that never appear on the
// stat screens. Colons survive for the H:MM:SS mission-time field.
const statWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz.,:-_() "

// RecognizeScreenshot runs light preprocessing plus a multi-pass Tesseract
// strategy over a stat-screen screenshot and returns the recognized text with
// line structure intact (the parser depends on line and token order). Returns
// ErrNoText when no pass produced anything usable.
func RecognizeScreenshot(path string) (string, error) {
	variants, err := runOCRPasses(path)
	if err != nil {
		return "", fmt.Errorf("ocr passes: %w", err)
	}
	best := ""
	bestScore := -1
	for _, v := range variants {
		if s := textScore(v); s > bestScore {
			best = v
			bestScore = s
		}
	}
	if strings.TrimSpace(best) == "" {
		return "", ErrNoText
	}
	log.Printf("OCR %s variants=%d chosen_len=%d snippet=%q", path, len(variants), len(best), snippet(best, 160))
	return best, nil
}

// runOCRPasses produces candidate texts: a preprocessed base pass, a
// binarized pass, and sparse/block PSM passes on the original image. The
// game renders stats over busy backgrounds, so no single pass wins on every
// screenshot.
func runOCRPasses(path string) ([]string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}

	var variants []string

	tmpBase := saveTemp(gray, "stat-ocr-base-*.png", path)
	if tmpBase != path {
		defer os.Remove(tmpBase)
	}
	if t, err := recognizeOnce(tmpBase, gosseract.PSM_AUTO); err == nil {
		variants = append(variants, normalizeText(t))
	}

	bin := binarize(gray, 200)
	tmpBin := saveTemp(bin, "stat-ocr-bin-*.png", "")
	if tmpBin != "" {
		defer os.Remove(tmpBin)
		if t, err := recognizeOnce(tmpBin, gosseract.PSM_AUTO); err == nil {
			variants = append(variants, normalizeText(t))
		}
	}

	for _, mode := range []gosseract.PageSegMode{gosseract.PSM_SINGLE_BLOCK, gosseract.PSM_SPARSE_TEXT} {
		if t, err := recognizeOnce(path, mode); err == nil {
			variants = append(variants, normalizeText(t))
		}
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("all ocr passes failed for %s", path)
	}
	return variants, nil
}

func recognizeOnce(path string, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage("eng")
	_ = client.SetWhitelist(statWhitelist)
	_ = client.SetPageSegMode(mode)
	client.SetImage(path)
	return client.Text()
}

// textScore ranks a variant by how much stat-shaped content it carries.
// Digits weigh double: a pass that kept the numbers but smeared a label is
// still more useful than the reverse.
func textScore(t string) int {
	score := 0
	for _, r := range t {
		switch {
		case r >= '0' && r <= '9':
			score += 2
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			score++
		}
	}
	return score
}
