package statparse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Parse converts one screenshot's OCR text into a partial statistics record.
// It never fails: garbage in means fields absent, not an error. Safe for
// concurrent use, the pattern table is read-only.
//
// Two passes run in order. The label pass looks for known stat labels
// followed by a parseable value in a small token window (same line, then the
// start of the next line); matched text is consumed so a shorter, more
// generic label cannot reinterpret it. The position pass then fills still
// missing keys from fixed indices into the ordered numeric tokens of the
// original text, because OCR often garbles labels while keeping the numbers
// where the layout puts them.
func Parse(raw string) ParseResult {
	res := NewParseResult()
	lines := splitLines(raw)
	if len(lines) == 0 {
		return res
	}
	low := make([]string, len(lines))
	for i, ln := range lines {
		low[i] = strings.ToLower(strings.Join(strings.Fields(ln), " "))
	}
	layout := detectLayout(strings.Join(low, " "))

	labelPass(res, low)
	positionPass(res, raw, layout)
	res.PlayerName = extractPlayerName(lines, low)
	return res
}

// labelCand pairs a pattern index with one of its label spellings. Candidates
// are tried longest label first so "terminid kills" is claimed before a bare
// "kills" gets a chance.
type labelCand struct {
	pi    int
	label string
}

var labelCands = buildLabelCands()

func buildLabelCands() []labelCand {
	var out []labelCand
	for pi, p := range patterns {
		for _, l := range p.labels {
			out = append(out, labelCand{pi: pi, label: l})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].label) != len(out[j].label) {
			return len(out[i].label) > len(out[j].label)
		}
		if out[i].pi != out[j].pi {
			return out[i].pi < out[j].pi
		}
		return out[i].label < out[j].label
	})
	return out
}

// labelPass records every stat whose label is followed by a parseable value.
// work lines are mutated: matched labels and claimed values are blanked out.
func labelPass(res ParseResult, low []string) {
	work := make([]string, len(low))
	copy(work, low)
	for _, c := range labelCands {
		p := patterns[c.pi]
		for li := 0; li < len(work); li++ {
			idx := boundaryIndex(work[li], c.label)
			if idx < 0 {
				continue
			}
			// Consume the label text whether or not a value follows, so a
			// shorter spelling cannot rematch this occurrence.
			work[li] = blank(work[li], idx, idx+len(c.label))
			val, spanLine, spanStart, spanEnd, ok := valueNear(work, li, idx+len(c.label), p.kind)
			if !ok {
				continue // unparseable trailing value: non-match, keep tokens for the position pass
			}
			work[spanLine] = blank(work[spanLine], spanStart, spanEnd)
			if _, have := res.Stats[p.key]; have {
				continue // duplicate label occurrence, first one won
			}
			res.Stats[p.key] = val
			res.Confidence[p.key] = ConfidenceLabel
		}
	}
}

// positionPass fills keys the label pass missed from fixed indices into the
// ordered numeric tokens of the original text. Token order must come from the
// untouched input: consumption and normalization never apply here.
func positionPass(res ParseResult, raw string, layout Layout) {
	toks := numericTokens(raw)
	for _, p := range patterns {
		if _, have := res.Stats[p.key]; have {
			continue
		}
		pos := p.positionFor(layout)
		if pos == noPos || pos >= len(toks) {
			continue
		}
		t := toks[pos]
		if t.kind != p.kind {
			continue
		}
		res.Stats[p.key] = t.value
		res.Confidence[p.key] = ConfidencePosition
	}
}

// valueNear looks for a value of the wanted kind in a window of tokens after
// byte offset start on line li, then in the first token of the next line (a
// wider next-line window would let a label steal another stat's value). It
// returns the value and the byte span to consume.
func valueNear(work []string, li, start int, kind valueKind) (int64, int, int, int, bool) {
	if v, s, e, ok := valueInWindow(work[li], start, kind, valueWindow); ok {
		return v, li, s, e, true
	}
	if li+1 < len(work) {
		if v, s, e, ok := valueInWindow(work[li+1], 0, kind, 1); ok {
			return v, li + 1, s, e, true
		}
	}
	return 0, 0, 0, 0, false
}

// valueWindow is how many tokens past a label may hold its value.
const valueWindow = 3

func valueInWindow(line string, start int, kind valueKind, window int) (int64, int, int, bool) {
	seen := 0
	i := start
	for i < len(line) && seen < window {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		j := i
		for j < len(line) && line[j] != ' ' {
			j++
		}
		if j == i {
			break
		}
		tok := line[i:j]
		if !isSeparatorToken(tok) {
			if v, ok := parseValue(tok, kind); ok {
				return v, i, j, true
			}
			seen++
		}
		i = j
	}
	return 0, 0, 0, false
}

func parseValue(tok string, kind valueKind) (int64, bool) {
	if kind == kindDuration {
		return parseDuration(tok)
	}
	return parseCount(tok)
}

// parseCount accepts a non-negative integer token, tolerating thousands
// separators ("1,234", "1.234") and surrounding punctuation. Anything with a
// letter in it is rejected rather than guessed at.
func parseCount(tok string) (int64, bool) {
	tok = trimPunct(tok)
	if tok == "" {
		return 0, false
	}
	digits := make([]byte, 0, len(tok))
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == ',' || c == '.':
			// separator, drop
		default:
			return 0, false
		}
	}
	if len(digits) == 0 || len(digits) > 15 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var durationRE = regexp.MustCompile(`^([0-9]{1,5}):([0-5]?[0-9]):([0-5]?[0-9])$`)

// parseDuration converts an H:MM:SS token into total seconds.
func parseDuration(tok string) (int64, bool) {
	m := durationRE.FindStringSubmatch(trimPunct(tok))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	mm, _ := strconv.ParseInt(m[2], 10, 64)
	s, _ := strconv.ParseInt(m[3], 10, 64)
	return h*3600 + mm*60 + s, true
}

// numToken is one numeric-looking token of the original text, in order.
type numToken struct {
	kind  valueKind
	value int64
}

func numericTokens(raw string) []numToken {
	var out []numToken
	for _, f := range strings.Fields(raw) {
		if v, ok := parseDuration(f); ok {
			out = append(out, numToken{kind: kindDuration, value: v})
			continue
		}
		if v, ok := parseCount(f); ok {
			out = append(out, numToken{kind: kindCount, value: v})
		}
	}
	return out
}

// boundaryIndex finds label in line at a word boundary: the bytes on either
// side, when present, must not be letters or digits.
func boundaryIndex(line, label string) int {
	from := 0
	for {
		i := strings.Index(line[from:], label)
		if i < 0 {
			return -1
		}
		i += from
		before := i == 0 || !isAlnum(line[i-1])
		afterIdx := i + len(label)
		after := afterIdx >= len(line) || !isAlnum(line[afterIdx])
		if before && after {
			return i
		}
		from = i + 1
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSeparatorToken(tok string) bool {
	for _, r := range tok {
		switch r {
		case ':', '-', '|', '.', ',', '=', '·':
		default:
			return false
		}
	}
	return len(tok) > 0
}

func trimPunct(tok string) string {
	return strings.Trim(tok, ":;,.()[]|-=·")
}

func blank(line string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(line) {
		to = len(line)
	}
	if from >= to {
		return line
	}
	return line[:from] + strings.Repeat(" ", to-from) + line[to:]
}

func splitLines(raw string) []string {
	var out []string
	for _, ln := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// nameLabels mark an explicitly labeled player handle.
var nameLabels = []string{"name", "helldiver"}

// maxNameScanLines bounds the unlabeled fallback: the handle sits at the top
// of both layouts when it survives OCR at all.
const maxNameScanLines = 5

// extractPlayerName recovers the player handle, labeled field first, then the
// first plausible top line. Nil is a normal outcome.
func extractPlayerName(lines, low []string) *string {
	for li, ll := range low {
		fields := strings.Fields(ll)
		for fi, f := range fields {
			for _, lbl := range nameLabels {
				if trimPunct(f) != lbl {
					continue
				}
				rest := strings.Fields(lines[li])
				if len(rest) != len(fields) || fi+1 >= len(rest) {
					continue
				}
				cand := strings.TrimSpace(trimPunct(strings.Join(rest[fi+1:], " ")))
				if nameShaped(cand) {
					return &cand
				}
			}
		}
	}
	limit := maxNameScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for li := 0; li < limit; li++ {
		cand := strings.TrimSpace(trimPunct(lines[li]))
		if nameShaped(cand) {
			return &cand
		}
	}
	return nil
}

// nameShaped applies the handle constraints: 2-32 chars from a conservative
// charset, at least one letter, not mostly digits, and no stat-label words.
func nameShaped(s string) bool {
	if len(s) < 2 || len(s) > 32 {
		return false
	}
	letters, digits := 0, 0
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters++
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	if letters == 0 || digits*2 >= len(s) {
		return false
	}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, ok := labelWords[w]; ok {
			return false
		}
	}
	return true
}
