package tools

import (
	"regexp"
	"strings"
)

var linhaDigitavelPattern = regexp.MustCompile(`\b\d{47}\b`)

// FormatLinhaDigitavel renders a 47-digit boleto digitable line in the
// canonical grouped form `XXXXX.XXXXX XXXXX.XXXXXX XXXXX.XXXXXX X
// XXXXXXXXXXXXXX`. Anything that does not strip down to exactly 47
// digits is returned unmodified.
func FormatLinhaDigitavel(linha string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' {
			return -1
		}
		return r
	}, linha)

	if len(clean) != 47 {
		return linha
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return linha
		}
	}

	return clean[0:5] + "." + clean[5:10] + " " +
		clean[10:15] + "." + clean[15:21] + " " +
		clean[21:26] + "." + clean[26:32] + " " +
		clean[32:33] + " " +
		clean[33:47]
}

// FormatLinhaDigitavelInText rewrites every bare 47-digit run inside
// free text into the grouped display form. Used as a defensive pass on
// the model's final reply, which sometimes echoes the raw line back.
func FormatLinhaDigitavelInText(text string) string {
	if text == "" {
		return text
	}
	return linhaDigitavelPattern.ReplaceAllStringFunc(text, FormatLinhaDigitavel)
}
