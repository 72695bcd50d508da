// Package richtext turns staff-authored company and offer text into safe HTML.
package richtext

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Processor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Processor {
	md := goldmark.New(
		// raw html is passed through and left to the sanitizer
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
	)

	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowRelativeURLs(false)

	return &Processor{md: md, policy: p}
}

// Markdown renders src and sanitizes the result.
func (p *Processor) Markdown(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(p.policy.Sanitize(buf.String())), nil
}

// HTML sanitizes already formatted text.
func (p *Processor) HTML(src string) string {
	return strings.TrimSpace(p.policy.Sanitize(src))
}
