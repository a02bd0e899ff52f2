package sync

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var sanitizer = bluemonday.UGCPolicy()

var headingIDAttr = regexp.MustCompile(`\s*id="[^"]*"`)

// MarkdownToHTML renders Airtable rich text (Markdown) into the HTML Webflow
// stores in RichText fields. Raw HTML in the source passes through the
// renderer and is then sanitized, which makes the conversion idempotent:
// feeding the output back in yields the same HTML again.
func MarkdownToHTML(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out := sanitizer.Sanitize(buf.String())
	out = headingIDAttr.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "\n", "")
	return out, nil
}
