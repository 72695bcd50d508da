package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ASCIIFilename transliterates name to ASCII by decomposing it (NFKD) and
// dropping everything outside printable ASCII. "Café" becomes "Cafe".
func ASCIIFilename(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII || unicode.IsControl(r)
	})))
	out, _, err := transform.String(t, name)
	if err != nil {
		return ""
	}
	return out
}

// ContentDisposition builds a Content-Disposition value carrying an ASCII
// fallback and, when the name is not plain ASCII, an RFC 5987 extended
// parameter preserving it exactly.
func ContentDisposition(disposition, filename string) string {
	ascii := ASCIIFilename(filename)
	var b strings.Builder
	b.WriteString(disposition)
	b.WriteString(`; filename="`)
	b.WriteString(quoteParam(ascii))
	b.WriteString(`"`)
	if ascii != filename {
		b.WriteString("; filename*=UTF-8''")
		b.WriteString(encodeExtValue(filename))
	}
	return b.String()
}

func quoteParam(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// attr-char from RFC 5987 section 3.2.1
func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}
