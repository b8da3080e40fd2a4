package ollama

import "strings"

// roleMarkers are dialogue artifacts a small local model may emit when it
// tries to continue the conversation past its own turn.
var roleMarkers = []string{"User:", "System:", "Assistant:"}

// CleanReply normalizes a raw generation: it truncates at the first
// occurrence of any role marker, then trims to the last complete sentence
// boundary (".", "!", "?") when the text does not already end on one. Text
// with no sentence boundary at all is kept as-is rather than discarded.
func CleanReply(raw string) string {
	s := strings.TrimSpace(raw)

	if i := firstMarker(s); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	return trimToSentence(s)
}

// firstMarker returns the index of the earliest role marker in s, or -1.
func firstMarker(s string) int {
	first := -1
	for _, m := range roleMarkers {
		if i := strings.Index(s, m); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}

// trimToSentence cuts s after its last ".", "!" or "?" unless it already
// ends on one.
func trimToSentence(s string) string {
	if s == "" {
		return s
	}

	if isSentenceEnd(s[len(s)-1]) {
		return s
	}

	last := strings.LastIndexFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if last < 0 {
		return s
	}

	return strings.TrimSpace(s[:last+1])
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}
