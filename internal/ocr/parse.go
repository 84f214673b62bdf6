package ocr

import (
	"fmt"
	"strconv"
	"strings"
)

// ocrDigits maps glyphs that Tesseract commonly confuses with digits.
var ocrDigits = map[rune]rune{
	'O': '0', 'o': '0', 'Q': '0', 'D': '0',
	'l': '1', 'I': '1', '|': '1', 'i': '1',
	'S': '5', 's': '5',
	'B': '8',
	'Z': '2', 'z': '2',
	'G': '6',
}

// ParseNumber converts recognized label text to a number.
//
// Leading and trailing punctuation is dropped, thousands separators
// removed, unicode minus signs normalized and letters commonly misread for
// digits replaced. A comma followed by groups of exactly three digits is a
// thousands separator; a single comma in any other position is taken as a
// decimal mark.
func ParseNumber(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("empty label")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-', r == '−', r == '–', r == '—':
			b.WriteRune('-')
		default:
			// Spaces, thin spaces and apostrophes used as group
			// separators fall through here and are dropped.
			if d, ok := ocrDigits[r]; ok {
				b.WriteRune(d)
			}
		}
	}

	s = strings.Trim(b.String(), ",")
	neg := strings.HasPrefix(s, "-")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimLeft(strings.TrimRight(s, ".,"), ",")
	s = normalizeSeparators(s)
	if s == "" {
		return 0, fmt.Errorf("no digits in label %q", text)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable label %q: %w", text, err)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// normalizeSeparators removes thousands commas and turns a lone decimal
// comma into a point.
func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	parts := strings.Split(s, ",")
	grouped := true
	for i, p := range parts[1:] {
		digits := p
		if i == len(parts)-2 {
			// the last group may carry the decimals: "1,250.5"
			if j := strings.IndexByte(p, '.'); j >= 0 {
				digits = p[:j]
			}
		}
		if len(digits) != 3 || strings.Contains(digits, ".") {
			grouped = false
			break
		}
	}
	if grouped {
		return strings.ReplaceAll(s, ",", "")
	}
	if len(parts) == 2 && !strings.Contains(s, ".") {
		return parts[0] + "." + parts[1]
	}
	return strings.ReplaceAll(s, ",", "")
}
