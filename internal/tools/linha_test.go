package tools

import (
	"strings"
	"testing"
)

const rawLinha = "23793381286000782713695000063305975520000045000"

func TestFormatLinhaDigitavel(t *testing.T) {
	got := FormatLinhaDigitavel(rawLinha)
	want := "23793.38128 60007.827136 95000.063305 9 75520000045000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatLinhaDigitavelRoundTrip(t *testing.T) {
	formatted := FormatLinhaDigitavel(rawLinha)
	stripped := strings.NewReplacer(".", "", " ", "").Replace(formatted)
	if stripped != rawLinha {
		t.Fatalf("round trip lost digits: %q", stripped)
	}
}

func TestFormatLinhaDigitavelNoOpOnBadInput(t *testing.T) {
	cases := []string{
		"",
		"1234",
		rawLinha + "1",              // 48 digits
		rawLinha[:46],               // 46 digits
		"2379338128600078271369500006330597552000004500x", // non-digit
	}
	for _, in := range cases {
		if got := FormatLinhaDigitavel(in); got != in {
			t.Errorf("FormatLinhaDigitavel(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestFormatLinhaDigitavelAcceptsPreFormattedInput(t *testing.T) {
	pre := "23793.38128 60007.827136 95000.063305 9 75520000045000"
	if got := FormatLinhaDigitavel(pre); got != pre {
		t.Fatalf("pre-formatted input changed: %q", got)
	}
}

func TestFormatLinhaDigitavelInText(t *testing.T) {
	text := "Sua linha é " + rawLinha + ", pague até sexta."
	got := FormatLinhaDigitavelInText(text)
	want := "Sua linha é 23793.38128 60007.827136 95000.063305 9 75520000045000, pague até sexta."
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestFormatLinhaDigitavelInTextLeavesOtherRunsAlone(t *testing.T) {
	text := "CPF 12345678909 e protocolo 1234567890123456"
	if got := FormatLinhaDigitavelInText(text); got != text {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}
