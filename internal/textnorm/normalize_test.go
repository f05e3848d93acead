package textnorm_test

import (
	"testing"

	"github.com/edubot-ec/edubot/internal/textnorm"
)

func TestNormalize_Diacritics(t *testing.T) {
	if got := textnorm.Normalize("Cálculo"); got != "calculo" {
		t.Errorf("Normalize(Cálculo) = %q, want calculo", got)
	}
	if textnorm.Normalize("Cálculo") != textnorm.Normalize("calculo") {
		t.Error("accented and plain forms should normalize identically")
	}
}

func TestNormalize_Punctuation(t *testing.T) {
	if got := textnorm.Normalize("¿Programación Orientada a Objetos?"); got != "programacion orientada a objetos" {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Cálculo Integral", "  FÍSICA II!  ", "", "123 - álgebra"}
	for _, in := range inputs {
		once := textnorm.Normalize(in)
		twice := textnorm.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_Trims(t *testing.T) {
	if got := textnorm.Normalize("  hola  "); got != "hola" {
		t.Errorf("Normalize() = %q, want hola", got)
	}
}

func TestEquivalent(t *testing.T) {
	if !textnorm.Equivalent("Cálculo Integral", "calculo integral") {
		t.Error("Equivalent() should match accent-insensitively")
	}
	if textnorm.Equivalent("", "") {
		t.Error("empty strings must not be equivalent")
	}
	if textnorm.Equivalent("Historia", "Cálculo") {
		t.Error("distinct subjects must not be equivalent")
	}
}
