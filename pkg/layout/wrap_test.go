package layout_test

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/JaimeStill/medsign/pkg/layout"
)

// runes measures one point per character.
func runes(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{
			name:  "fits on one line",
			text:  "uso oral",
			width: 20,
			want:  []string{"uso oral"},
		},
		{
			name:  "greedy packing",
			text:  "tomar um comprimido a cada oito horas",
			width: 15,
			want:  []string{"tomar um", "comprimido a", "cada oito horas"},
		},
		{
			name:  "explicit newline forces break",
			text:  "dipirona\nparacetamol",
			width: 40,
			want:  []string{"dipirona", "paracetamol"},
		},
		{
			name:  "blank line preserved",
			text:  "primeiro\n\nsegundo",
			width: 40,
			want:  []string{"primeiro", "", "segundo"},
		},
		{
			name:  "crlf normalized",
			text:  "a\r\nb",
			width: 40,
			want:  []string{"a", "b"},
		},
		{
			name:  "repeated spaces collapse",
			text:  "a    b",
			width: 40,
			want:  []string{"a b"},
		},
		{
			name:  "overlong token broken at characters",
			text:  "abcdefghij kl",
			width: 4,
			want:  []string{"abcd", "efgh", "ij", "kl"},
		},
		{
			name:  "tail of broken token packs with next word",
			text:  "abcdefghij k",
			width: 4,
			want:  []string{"abcd", "efgh", "ij k"},
		},
		{
			name:  "empty text",
			text:  "",
			width: 10,
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layout.Wrap(tt.text, tt.width, runes)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Wrap(%q, %v) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapStaysWithinWidth(t *testing.T) {
	text := "Paciente deverá permanecer em repouso absoluto por tempo indeterminado " +
		"conforme avaliação clínica, evitando esforços físicos.\n\n" +
		"Observação: https://exemplo.com.br/um/endereco/extremamente/longo/que/nao/cabe"

	for _, width := range []float64{5, 12, 30, 80} {
		for _, line := range layout.Wrap(text, width, runes) {
			if runes(line) > width {
				t.Errorf("width %v: line %q is %v wide", width, line, runes(line))
			}
		}
	}
}

func TestWrapIdempotent(t *testing.T) {
	texts := []string{
		"tomar um comprimido a cada oito horas por sete dias",
		"linha um\n\nlinha três com   espaços",
		"abcdefghijklmnopqrstuvwxyz curto",
		"",
	}

	for _, text := range texts {
		for _, width := range []float64{4, 10, 25} {
			first := layout.Wrap(text, width, runes)
			second := layout.Wrap(strings.Join(first, "\n"), width, runes)
			if !slices.Equal(first, second) {
				t.Errorf("Wrap not idempotent for %q at %v: %q then %q", text, width, first, second)
			}
		}
	}
}
