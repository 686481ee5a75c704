package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Label turns an attribute column name into readable text:
// "dolor_de_cabeza" becomes "Dolor de cabeza".
func Label(attr string) string {
	s := strings.TrimSpace(strings.ReplaceAll(attr, "_", " "))
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
