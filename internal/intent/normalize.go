package intent

import "strings"

// Normalize trims surrounding whitespace and lower-cases ASCII letters.
// Non-ASCII runes are left untouched so rune offsets stay aligned with the
// trimmed input.
func Normalize(utterance string) string {
	_, lowered := normalizeRunes(utterance)
	return string(lowered)
}

// normalizeRunes returns the trimmed utterance and its lowered form. Both
// slices have the same length, so a capture span found in lowered can be cut
// out of original to keep the user's casing.
func normalizeRunes(utterance string) (original, lowered []rune) {
	original = []rune(strings.TrimSpace(utterance))
	lowered = make([]rune, len(original))
	for i, r := range original {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		lowered[i] = r
	}
	return original, lowered
}
