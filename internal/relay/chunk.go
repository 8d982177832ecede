package relay

// Chunk splits text into contiguous slices of at most maxLen code points
// each, preserving order and concatenation equivalence. The transport cap is
// a character limit, so splitting happens on rune boundaries and never
// produces invalid UTF-8. Splits may still fall mid-word. Empty input yields
// a nil slice, which callers treat as "nothing to send".
func Chunk(text string, maxLen int) []string {
	if text == "" || maxLen <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/maxLen+1)
	for len(runes) > maxLen {
		chunks = append(chunks, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	return append(chunks, string(runes))
}
