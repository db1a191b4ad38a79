package card

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Hola", "hola"},
		{"strip accents", "Canción", "cancion"},
		{"strip tilde", "Niño", "nino"},
		{"strip diaeresis", "pingüino", "pinguino"},
		{"trim", "  casa  ", "casa"},
		{"collapse whitespace", "a   la\tvez", "a la vez"},
		{"empty", "", ""},
		{"all combined", "  ÁRBOL   Frondoso ", "arbol frondoso"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanWord(t *testing.T) {
	if got := CleanWord("  Canción  de\n cuna "); got != "Canción de cuna" {
		t.Errorf("CleanWord() = %q, want %q", got, "Canción de cuna")
	}
}

func TestExtractWords(t *testing.T) {
	got := ExtractWords("¿Dónde está el niño? ¡Aquí, 42 veces!")
	want := []string{"Dónde", "está", "el", "niño", "Aquí", "veces"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractWords() = %v, want %v", got, want)
	}

	if got := ExtractWords("123 ..."); len(got) != 0 {
		t.Errorf("ExtractWords(no words) = %v, want empty", got)
	}
}
