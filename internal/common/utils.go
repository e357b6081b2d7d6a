package common

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCity trims surrounding whitespace, collapses inner runs of
// whitespace and puts the name in Unicode NFC form.
func NormalizeCity(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
