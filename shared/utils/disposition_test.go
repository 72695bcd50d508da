package utils

import (
	"mime"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCIIFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"practica-acme.zip", "practica-acme.zip"},
		{"Café", "Cafe"},
		{"ștefan-țepeș.zip", "stefan-tepes.zip"},
		{"Ｆｕｌｌ", "Full"},
		{"日本.pdf", ".pdf"},
		{"line\r\nbreak", "linebreak"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ASCIIFilename(tt.in))
		})
	}
}

func TestContentDisposition(t *testing.T) {
	t.Run("ascii name has no extended parameter", func(t *testing.T) {
		v := ContentDisposition("attachment", "practica-acme-2024.zip")
		assert.Equal(t, `attachment; filename="practica-acme-2024.zip"`, v)
	})

	t.Run("non-ascii name round-trips through filename*", func(t *testing.T) {
		name := "practica-ligaac-ro-Café Ünïcode-2024-01-02_03-04-05.zip"
		v := ContentDisposition("attachment", name)

		assert.Contains(t, v, `filename="practica-ligaac-ro-Cafe Unicode-2024-01-02_03-04-05.zip"`)
		idx := strings.Index(v, "filename*=UTF-8''")
		require.GreaterOrEqual(t, idx, 0)
		encoded := v[idx+len("filename*=UTF-8''"):]
		assert.NotContains(t, encoded, " ")

		decoded, err := url.PathUnescape(encoded)
		require.NoError(t, err)
		assert.Equal(t, name, decoded)
	})

	t.Run("parsable by mime", func(t *testing.T) {
		name := "Ana Pop (CV) é.pdf"
		disposition, params, err := mime.ParseMediaType(ContentDisposition("inline", name))
		require.NoError(t, err)
		assert.Equal(t, "inline", disposition)
		// mime prefers the extended parameter
		assert.Equal(t, name, params["filename"])
	})

	t.Run("quotes are escaped", func(t *testing.T) {
		v := ContentDisposition("attachment", `a"b.txt`)
		assert.Contains(t, v, `filename="a\"b.txt"`)
	})
}
