package formatting

import "strings"

// NationalID formats an 11-digit CPF as XXX.XXX.XXX-XX. Punctuation in the
// input is ignored. Values that do not carry exactly 11 digits are returned trimmed.
func NationalID(s string) string {
	d := Digits(s)
	if len(d) != 11 {
		return strings.TrimSpace(s)
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanName strips NUL bytes, collapses runs of whitespace, and drops a trailing comma.
func CleanName(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "\x00", "")), " ")
	if trimmed, ok := strings.CutSuffix(s, ","); ok {
		s = strings.TrimSpace(trimmed)
	}
	return s
}
