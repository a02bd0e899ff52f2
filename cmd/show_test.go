package cmd

import (
	"strings"
	"testing"

	"github.com/marcus/wfsync/internal/models"
)

func TestSyncMarkdown(t *testing.T) {
	sc := &models.SyncConfig{
		Name:        "articles",
		AutoPublish: true,
		Airtable: models.AirtableConfig{
			Base:  models.Named{Name: "Content"},
			Table: models.Named{Name: "Articles"},
			View:  models.Named{Name: "All"},
		},
		Webflow: models.WebflowConfig{
			Site:       models.Named{Name: "Blog"},
			Collection: models.Named{Name: "Posts"},
		},
		Fields: []models.FieldMapping{
			{
				AirtableName: "Title", AirtableType: "singleLineText",
				WebflowID: "wf1", WebflowName: "Name", WebflowType: "PlainText",
				Special: models.SpecialName,
			},
			{
				AirtableName: "Sync status", AirtableType: "singleSelect",
				Special: models.SpecialState,
			},
		},
		Errors: []string{"\"Gallery\" left unmapped"},
	}

	md := syncMarkdown(sc)
	for _, want := range []string{
		"# articles",
		"Content / Articles (view All)",
		"Blog / Posts",
		"auto-publish on validation errors",
		"| Title | singleLineText | Name | PlainText |",
		"| Sync status | singleSelect | - | state |",
		"## Setup warnings",
		"Gallery",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
