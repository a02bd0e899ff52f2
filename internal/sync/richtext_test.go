package sync

import (
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	got, err := MarkdownToHTML("# Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if !strings.Contains(got, "<h1>Title</h1>") {
		t.Errorf("heading not rendered, got %q", got)
	}
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Errorf("emphasis not rendered, got %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("output must not contain newlines, got %q", got)
	}
	if strings.Contains(got, `id="`) {
		t.Errorf("heading ids must be stripped, got %q", got)
	}
}

func TestMarkdownToHTMLEmpty(t *testing.T) {
	got, err := MarkdownToHTML("")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestMarkdownToHTMLSanitizes(t *testing.T) {
	got, err := MarkdownToHTML("hello <script>alert(1)</script> world")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("script must be stripped, got %q", got)
	}
}

// A record already holding HTML from a previous run must survive another
// conversion unchanged, otherwise every run would rewrite every rich field.
func TestMarkdownToHTMLIdempotent(t *testing.T) {
	first, err := MarkdownToHTML("## Section\n\nA [link](https://example.com) and *italics*.\n\n- one\n- two")
	if err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}
	second, err := MarkdownToHTML(first)
	if err != nil {
		t.Fatalf("second conversion failed: %v", err)
	}
	if first != second {
		t.Errorf("conversion not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}
