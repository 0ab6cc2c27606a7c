package ocr

import "strings"

// snippet returns a shortened version of text for logging.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// normalizeText collapses intra-line whitespace and drops empty lines while
// preserving line breaks; the stat parser needs line and token order intact.
func normalizeText(t string) string {
	t = strings.ReplaceAll(t, "\r\n", "\n")
	var lines []string
	for _, ln := range strings.Split(t, "\n") {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}
