package ocr

import "errors"

// ErrNoText is returned when no OCR pass recognized any usable text.
var ErrNoText = errors.New("no text recognized")
