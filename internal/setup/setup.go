// Package setup implements the interactive wizard that creates a new sync
// configuration: credential entry, base/table/view and site/collection
// selection, and type-checked field matching.
package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/google/uuid"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/config"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/sync"
	"github.com/marcus/wfsync/internal/webflow"
)

// maxKeyAttempts bounds how often a rejected credential may be re-entered.
const maxKeyAttempts = 3

// skipValue marks the "leave this field unmapped" select option.
const skipValue = "__skip__"

// AirtableBrowser is the slice of the Airtable client the wizard needs.
type AirtableBrowser interface {
	Bases(ctx context.Context) ([]airtable.Base, error)
	Tables(ctx context.Context, baseID string) ([]airtable.TableSchema, error)
}

// WebflowBrowser is the slice of the Webflow client the wizard needs.
type WebflowBrowser interface {
	Sites(ctx context.Context) ([]webflow.Site, error)
	Collections(ctx context.Context, siteID string) ([]webflow.CollectionRef, error)
	CollectionSchema(ctx context.Context, collectionID string) (*webflow.CollectionSchema, error)
}

// Flow runs the create-sync wizard against a loaded config store.
type Flow struct {
	Store *config.Store

	// Client constructors, replaceable in tests.
	NewAirtable func(token string) AirtableBrowser
	NewWebflow  func(key string) WebflowBrowser
}

// NewFlow wires the wizard to the real platform clients.
func NewFlow(store *config.Store) *Flow {
	return &Flow{
		Store:       store,
		NewAirtable: func(token string) AirtableBrowser { return airtable.New(token) },
		NewWebflow:  func(key string) WebflowBrowser { return webflow.New(key) },
	}
}

// Run walks the user through creating a sync and returns the finished
// config. The caller adds it to the store and saves.
func (f *Flow) Run(ctx context.Context) (*models.SyncConfig, error) {
	name, err := f.promptName()
	if err != nil {
		return nil, err
	}

	atToken, atClient, err := f.airtableKey(ctx)
	if err != nil {
		return nil, err
	}
	atCfg, table, err := f.pickSource(ctx, atClient)
	if err != nil {
		return nil, err
	}
	atCfg.APIToken = atToken

	wfKey, wfClient, err := f.webflowKey(ctx)
	if err != nil {
		return nil, err
	}
	wfCfg, schema, err := f.pickDestination(ctx, wfClient)
	if err != nil {
		return nil, err
	}
	wfCfg.APIKey = wfKey

	cfg := &models.SyncConfig{
		ID:       uuid.NewString(),
		Name:     name,
		Airtable: *atCfg,
		Webflow:  *wfCfg,
	}
	cfg.Airtable.Schema = table.Descriptors()
	cfg.Webflow.Fields = schema.Descriptors()

	if err := f.mapFields(cfg, table, schema); err != nil {
		return nil, err
	}
	if err := f.mapBookkeeping(cfg, table); err != nil {
		return nil, err
	}
	if err := f.promptOptions(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flow) promptName() (string, error) {
	var name string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Sync name").
			Placeholder("articles").
			Value(&name).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("name is required")
				}
				if f.Store.FindSync(s) != nil {
					return fmt.Errorf("a sync named %q already exists", s)
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return name, nil
}

// airtableKey obtains a working Airtable token, offering saved keys first
// and validating new entries against the metadata API.
func (f *Flow) airtableKey(ctx context.Context) (string, AirtableBrowser, error) {
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		token, name, err := f.promptKey("Airtable personal access token", savedKeyOptions(f.Store.AirtableKeys))
		if err != nil {
			return "", nil, err
		}
		client := f.NewAirtable(token)
		if err := runSpinner("Checking Airtable access", func() error {
			_, err := client.Bases(ctx)
			return err
		}); err != nil {
			if errors.Is(err, airtable.ErrUnauthorized) {
				fmt.Println("That token was rejected, try again.")
				continue
			}
			return "", nil, err
		}
		if name != "" {
			f.Store.RememberAirtableKey(name, token)
		}
		return token, client, nil
	}
	return "", nil, fmt.Errorf("no valid Airtable token after %d attempts", maxKeyAttempts)
}

func (f *Flow) webflowKey(ctx context.Context) (string, WebflowBrowser, error) {
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, name, err := f.promptKey("Webflow API key", savedKeyOptions(f.Store.WebflowKeys))
		if err != nil {
			return "", nil, err
		}
		client := f.NewWebflow(key)
		if err := runSpinner("Checking Webflow access", func() error {
			_, err := client.Sites(ctx)
			return err
		}); err != nil {
			if errors.Is(err, webflow.ErrUnauthorized) {
				fmt.Println("That key was rejected, try again.")
				continue
			}
			return "", nil, err
		}
		if name != "" {
			f.Store.RememberWebflowKey(name, key)
		}
		return key, client, nil
	}
	return "", nil, fmt.Errorf("no valid Webflow key after %d attempts", maxKeyAttempts)
}

// promptKey asks for a credential. With saved keys available it offers them
// first; a newly entered key can be named to remember it.
func (f *Flow) promptKey(title string, saved []huh.Option[string]) (key, rememberAs string, err error) {
	if len(saved) > 0 {
		choice := ""
		options := append([]huh.Option[string]{huh.NewOption("Enter a new key", "")}, saved...)
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title(title).Options(options...).Value(&choice),
		))
		if err := form.Run(); err != nil {
			return "", "", err
		}
		if choice != "" {
			return choice, "", nil
		}
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&key).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("key is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Remember this key as (leave empty to not save)").
			Value(&rememberAs),
	))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return key, rememberAs, nil
}

func savedKeyOptions(keys []config.SavedKey) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, k := range keys {
		opts = append(opts, huh.NewOption(k.Name, k.Key))
	}
	return opts
}

// pickSource selects base, table and view.
func (f *Flow) pickSource(ctx context.Context, client AirtableBrowser) (*models.AirtableConfig, *airtable.TableSchema, error) {
	var bases []airtable.Base
	if err := runSpinner("Fetching bases", func() error {
		var err error
		bases, err = client.Bases(ctx)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if len(bases) == 0 {
		return nil, nil, errors.New("the token can see no bases; grant it access in Airtable first")
	}
	var baseOpts []huh.Option[string]
	byID := make(map[string]airtable.Base)
	for _, b := range bases {
		baseOpts = append(baseOpts, huh.NewOption(b.Name, b.ID))
		byID[b.ID] = b
	}
	var baseID string
	if err := selectOne("Base", baseOpts, &baseID); err != nil {
		return nil, nil, err
	}

	var tables []airtable.TableSchema
	if err := runSpinner("Fetching tables", func() error {
		var err error
		tables, err = client.Tables(ctx, baseID)
		return err
	}); err != nil {
		return nil, nil, err
	}
	var tableOpts []huh.Option[string]
	tableByID := make(map[string]*airtable.TableSchema)
	for i := range tables {
		tableOpts = append(tableOpts, huh.NewOption(tables[i].Name, tables[i].ID))
		tableByID[tables[i].ID] = &tables[i]
	}
	var tableID string
	if err := selectOne("Table", tableOpts, &tableID); err != nil {
		return nil, nil, err
	}
	table := tableByID[tableID]

	var viewOpts []huh.Option[string]
	viewByID := make(map[string]airtable.View)
	for _, v := range table.Views {
		viewOpts = append(viewOpts, huh.NewOption(v.Name, v.ID))
		viewByID[v.ID] = v
	}
	var viewID string
	if err := selectOne("View (records outside it are ignored)", viewOpts, &viewID); err != nil {
		return nil, nil, err
	}

	cfg := &models.AirtableConfig{
		Base:  models.Named{ID: baseID, Name: byID[baseID].Name},
		Table: models.Named{ID: table.ID, Name: table.Name},
		View:  models.Named{ID: viewID, Name: viewByID[viewID].Name},
	}
	return cfg, table, nil
}

// pickDestination selects site, collection and publish domains.
func (f *Flow) pickDestination(ctx context.Context, client WebflowBrowser) (*models.WebflowConfig, *webflow.CollectionSchema, error) {
	var sites []webflow.Site
	if err := runSpinner("Fetching sites", func() error {
		var err error
		sites, err = client.Sites(ctx)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if len(sites) == 0 {
		return nil, nil, errors.New("the key can see no sites")
	}
	var siteOpts []huh.Option[string]
	siteByID := make(map[string]webflow.Site)
	for _, s := range sites {
		siteOpts = append(siteOpts, huh.NewOption(s.DisplayName, s.ID))
		siteByID[s.ID] = s
	}
	var siteID string
	if err := selectOne("Site", siteOpts, &siteID); err != nil {
		return nil, nil, err
	}
	site := siteByID[siteID]

	var collections []webflow.CollectionRef
	if err := runSpinner("Fetching collections", func() error {
		var err error
		collections, err = client.Collections(ctx, siteID)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if len(collections) == 0 {
		return nil, nil, errors.New("the site has no CMS collections")
	}
	var colOpts []huh.Option[string]
	colByID := make(map[string]webflow.CollectionRef)
	for _, c := range collections {
		colOpts = append(colOpts, huh.NewOption(c.DisplayName, c.ID))
		colByID[c.ID] = c
	}
	var collectionID string
	if err := selectOne("Collection", colOpts, &collectionID); err != nil {
		return nil, nil, err
	}

	var schema *webflow.CollectionSchema
	if err := runSpinner("Fetching collection fields", func() error {
		var err error
		schema, err = client.CollectionSchema(ctx, collectionID)
		return err
	}); err != nil {
		return nil, nil, err
	}

	cfg := &models.WebflowConfig{
		Site:       models.Named{ID: siteID, Name: site.DisplayName},
		Collection: models.Named{ID: collectionID, Name: colByID[collectionID].DisplayName},
	}
	for _, d := range site.CustomDomains {
		cfg.CustomDomains = append(cfg.CustomDomains, models.Domain{ID: d.ID, URL: d.URL})
	}
	return cfg, schema, nil
}

// mapFields pairs every Webflow field with a type-compatible Airtable field,
// or records why one could not be mapped.
func (f *Flow) mapFields(cfg *models.SyncConfig, table *airtable.TableSchema, schema *webflow.CollectionSchema) error {
	atFields := table.Descriptors()

	for i := range schema.Fields {
		wf := &schema.Fields[i]
		descriptor := webflowDescriptor(wf)

		special := models.SpecialNone
		required := false
		switch wf.Slug {
		case "name":
			special = models.SpecialName
			required = true
		case "slug":
			special = models.SpecialSlug
		}

		wfType := wf.Type
		if special != models.SpecialNone {
			wfType = "PlainText"
		}
		candidates := sync.CompatibleSourceFields(wfType, atFields)
		if len(candidates) == 0 {
			if required {
				return fmt.Errorf("no Airtable field can feed the required %q field", wf.DisplayName)
			}
			cfg.Errors = append(cfg.Errors,
				fmt.Sprintf("no Airtable field has a type that can feed %q (%s); left unmapped", wf.DisplayName, wf.Type))
			continue
		}

		chosen, err := selectField(fmt.Sprintf("Airtable field for %q (%s)", wf.DisplayName, wf.Type), candidates, !required)
		if err != nil {
			return err
		}
		if chosen == nil {
			if special != models.SpecialSlug {
				cfg.Errors = append(cfg.Errors, fmt.Sprintf("%q left unmapped", wf.DisplayName))
			}
			continue
		}

		m := models.BuildFieldMapping(chosen, descriptor)
		m.Special = special
		cfg.Fields = append(cfg.Fields, m)
	}
	return nil
}

// mapBookkeeping selects the three Airtable-only control fields.
func (f *Flow) mapBookkeeping(cfg *models.SyncConfig, table *airtable.TableSchema) error {
	atFields := table.Descriptors()

	state, err := selectField("Sync state field (single select driving what gets synced)",
		filterTypes(atFields, "singleSelect"), false)
	if err != nil {
		return err
	}
	if missing := missingStatusChoices(state); len(missing) > 0 {
		cfg.Errors = append(cfg.Errors,
			fmt.Sprintf("state field %q is missing options: %v", state.Name, missing))
	}

	itemID, err := selectField("Item ID field (plain text, managed by the sync)",
		filterTypes(atFields, "singleLineText"), false)
	if err != nil {
		return err
	}

	lastPublished, err := selectField("Last published field (plain text, optional)",
		filterTypes(atFields, "singleLineText", "dateTime"), true)
	if err != nil {
		return err
	}

	stateMapping := models.BuildFieldMapping(state, nil)
	stateMapping.Special = models.SpecialState
	cfg.Fields = append(cfg.Fields, stateMapping)

	itemMapping := models.BuildFieldMapping(itemID, nil)
	itemMapping.Special = models.SpecialItemID
	cfg.Fields = append(cfg.Fields, itemMapping)

	if lastPublished != nil {
		pubMapping := models.BuildFieldMapping(lastPublished, nil)
		pubMapping.Special = models.SpecialLastPublished
		cfg.Fields = append(cfg.Fields, pubMapping)
	}
	return nil
}

func (f *Flow) promptOptions(cfg *models.SyncConfig) error {
	cfg.AutoPublish = f.Store.Settings.DefaultAutoPublish
	fields := []huh.Field{
		huh.NewConfirm().
			Title("Republish the site automatically when item publishing hits validation errors?").
			Value(&cfg.AutoPublish),
		huh.NewConfirm().
			Title("Delete Webflow items that no Airtable record claims?").
			Value(&cfg.DeleteRecords),
	}
	if len(cfg.Webflow.CustomDomains) > 0 {
		fields = append(fields, huh.NewConfirm().
			Title("Also publish to the webflow.io subdomain?").
			Value(&cfg.PublishSubdomain))
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// missingStatusChoices reports which of the expected state options the
// selected single select lacks.
func missingStatusChoices(state *models.FieldDescriptor) []string {
	expected := []string{
		string(sync.StatusStaging), string(sync.StatusNotSynced),
		string(sync.StatusQueued), string(sync.StatusAlways),
	}
	have := make(map[string]struct{}, len(state.Options.Choices))
	for _, c := range state.Options.Choices {
		have[c] = struct{}{}
	}
	var missing []string
	for _, want := range expected {
		if _, ok := have[want]; !ok {
			missing = append(missing, want)
		}
	}
	return missing
}

func webflowDescriptor(f *webflow.Field) *models.FieldDescriptor {
	return &models.FieldDescriptor{
		ID:   f.ID,
		Name: f.DisplayName,
		Slug: f.Slug,
		Type: f.Type,
		Validations: models.FieldValidations{
			CollectionID: f.Validations.CollectionID,
		},
	}
}

func filterTypes(fields []models.FieldDescriptor, types ...string) []models.FieldDescriptor {
	var out []models.FieldDescriptor
	for _, f := range fields {
		for _, t := range types {
			if f.Type == t {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// selectField prompts for one of the candidate fields, returning nil when
// skippable and skipped.
func selectField(title string, candidates []models.FieldDescriptor, skippable bool) (*models.FieldDescriptor, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no suitable Airtable field for %q", title)
	}
	var opts []huh.Option[string]
	byID := make(map[string]models.FieldDescriptor)
	for _, c := range candidates {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.Type), c.ID))
		byID[c.ID] = c
	}
	if skippable {
		opts = append(opts, huh.NewOption("Skip", skipValue))
	}

	var chosen string
	if err := selectOne(title, opts, &chosen); err != nil {
		return nil, err
	}
	if chosen == skipValue {
		return nil, nil
	}
	field := byID[chosen]
	return &field, nil
}

func selectOne(title string, options []huh.Option[string], value *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(options...).Value(value),
	)).Run()
}

func runSpinner(title string, action func() error) error {
	var actionErr error
	err := spinner.New().
		Title(title + "…").
		Action(func() { actionErr = action() }).
		Run()
	if err != nil {
		return err
	}
	return actionErr
}
