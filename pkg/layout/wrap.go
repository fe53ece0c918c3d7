package layout

import "strings"

// Measure reports the rendered width of s in points.
type Measure func(s string) float64

// Wrap breaks text into lines no wider than width. Words are packed greedily,
// every newline in text forces a break, and an empty source line produces an
// empty output line. A word wider than width is split at character boundaries
// so no glyph crosses the margin. Wrapping the joined output again yields the
// same lines.
func Wrap(text string, width float64, measure Measure) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, pack(words, width, measure)...)
	}
	return lines
}

func pack(words []string, width float64, measure Measure) []string {
	var lines []string
	current := ""

	for _, word := range words {
		if current != "" {
			candidate := current + " " + word
			if measure(candidate) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = ""
		}

		if measure(word) <= width {
			current = word
			continue
		}

		chunks := split(word, width, measure)
		lines = append(lines, chunks[:len(chunks)-1]...)
		current = chunks[len(chunks)-1]
	}

	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// split cuts an overlong word into chunks that each fit width. A chunk always
// holds at least one rune even when that rune alone is wider than width.
func split(word string, width float64, measure Measure) []string {
	var chunks []string
	var b strings.Builder

	for _, r := range word {
		if b.Len() > 0 && measure(b.String()+string(r)) > width {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}

	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
