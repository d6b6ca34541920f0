package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "platano", Normalize("  Plátano "))
	assert.Equal(t, "cafe con leche", Normalize("Café con Leche"))
	assert.Equal(t, "pina", Normalize("PIÑA"))
	assert.Equal(t, "", Normalize("   "))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"drops stopwords", "leche de vaca", []string{"leche", "vaca"}},
		{"singularizes long tokens", "tomates cherry", []string{"tomate", "cherry"}},
		{"keeps short plurals", "gas uvas", []string{"gas", "uva"}},
		{"strips accents", "azúcar morena", []string{"azucar", "morena"}},
		{"english stopwords", "can of beans", []string{"can", "bean"}},
		{"empty", "  ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}
