package output

import (
	"strings"
	"testing"
	"time"

	"github.com/marcus/wfsync/internal/models"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"one minute", now.Add(-time.Minute), "1m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2d ago"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatTimeAgo(c.t); got != c.want {
				t.Errorf("FormatTimeAgo = %q, want %q", got, c.want)
			}
		})
	}

	old := now.Add(-30 * 24 * time.Hour)
	if got := FormatTimeAgo(old); got != old.Format("2006-01-02") {
		t.Errorf("old times must render as a date, got %q", got)
	}
}

func TestCountsTable(t *testing.T) {
	got := CountsTable(3, 1, 2, 4)
	for _, want := range []string{"Created", "Updated", "Deleted", "Published", "3", "1", "2", "4"} {
		if !strings.Contains(got, want) {
			t.Errorf("counts table missing %q:\n%s", want, got)
		}
	}
}

func TestFormatSyncShort(t *testing.T) {
	sc := &models.SyncConfig{
		Name:          "articles",
		AutoPublish:   true,
		DeleteRecords: true,
		Airtable: models.AirtableConfig{
			Base:  models.Named{Name: "Content"},
			Table: models.Named{Name: "Articles"},
		},
		Webflow: models.WebflowConfig{
			Site:       models.Named{Name: "Blog"},
			Collection: models.Named{Name: "Posts"},
		},
	}
	got := FormatSyncShort(sc)
	for _, want := range []string{"articles", "Content/Articles", "Blog/Posts", "auto-publish", "delete"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q: %s", want, got)
		}
	}
}

func TestBulletList(t *testing.T) {
	got := BulletList([]string{"one", "two"}, 2)
	if len(got) != 2 || got[0] != "  - one" || got[1] != "  - two" {
		t.Errorf("unexpected bullet list: %v", got)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	got, err := RenderMarkdownWithWidth("   \n", 80)
	if err != nil {
		t.Fatalf("RenderMarkdownWithWidth: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestRenderMarkdownNarrowWidthClamped(t *testing.T) {
	got, err := RenderMarkdownWithWidth("# Title", 1)
	if err != nil {
		t.Fatalf("RenderMarkdownWithWidth: %v", err)
	}
	if !strings.Contains(got, "Title") {
		t.Errorf("heading lost in render: %q", got)
	}
}
