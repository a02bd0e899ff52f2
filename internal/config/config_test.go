package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcus/wfsync/internal/crypto"
	"github.com/marcus/wfsync/internal/models"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.enc")
}

func TestLoadMissingFile(t *testing.T) {
	store, err := load(testPath(t), "pass")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(store.Syncs) != 0 {
		t.Fatalf("expected empty store, got %d syncs", len(store.Syncs))
	}
	if store.Version != storeVersion {
		t.Errorf("expected version %d, got %d", storeVersion, store.Version)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := testPath(t)

	store, err := load(path, "hunter2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	store.AddSync(&models.SyncConfig{ID: "sync-1", Name: "articles"})
	store.RememberAirtableKey("work", "pat.secret")
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := load(path, "hunter2")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := again.FindSync("articles"); got == nil || got.ID != "sync-1" {
		t.Fatalf("sync not round-tripped, got %+v", got)
	}
	if len(again.AirtableKeys) != 1 || again.AirtableKeys[0].Key != "pat.secret" {
		t.Fatalf("keys not round-tripped, got %+v", again.AirtableKeys)
	}
}

func TestLoadWrongPassphrase(t *testing.T) {
	path := testPath(t)

	store, err := load(path, "right")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err = load(path, "wrong")
	if !errors.Is(err, crypto.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestConfigFileIsEncrypted(t *testing.T) {
	path := testPath(t)

	store, err := load(path, "pass")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	store.AddSync(&models.SyncConfig{
		ID:       "sync-1",
		Name:     "articles",
		Airtable: models.AirtableConfig{APIToken: "pat.supersecret"},
	})
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	if string(raw) == "" {
		t.Fatal("config file empty")
	}
	for _, secret := range []string{"pat.supersecret", "articles"} {
		if bytes.Contains(raw, []byte(secret)) {
			t.Errorf("plaintext %q leaked into the config file", secret)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}
}

func TestRekey(t *testing.T) {
	path := testPath(t)

	store, err := load(path, "old")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	store.AddSync(&models.SyncConfig{ID: "sync-1", Name: "articles"})
	if err := store.Rekey("new"); err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := load(path, "old"); !errors.Is(err, crypto.ErrDecrypt) {
		t.Fatalf("old passphrase must stop working, got %v", err)
	}
	again, err := load(path, "new")
	if err != nil {
		t.Fatalf("load with new passphrase: %v", err)
	}
	if again.FindSync("sync-1") == nil {
		t.Fatal("sync lost across rekey")
	}
}

func TestRemoveSync(t *testing.T) {
	store := &Store{}
	store.AddSync(&models.SyncConfig{ID: "a", Name: "first"})
	store.AddSync(&models.SyncConfig{ID: "b", Name: "second"})

	if !store.RemoveSync("first") {
		t.Fatal("expected removal by name")
	}
	if store.RemoveSync("missing") {
		t.Fatal("removal of unknown sync must report false")
	}
	if len(store.Syncs) != 1 || store.Syncs[0].ID != "b" {
		t.Fatalf("unexpected syncs after removal: %+v", store.Syncs)
	}
}

func TestFindByCollection(t *testing.T) {
	store := &Store{}
	store.AddSync(&models.SyncConfig{
		ID:      "a",
		Webflow: models.WebflowConfig{Collection: models.Named{ID: "col1"}},
	})

	if got := store.FindByCollection("col1"); got == nil || got.ID != "a" {
		t.Fatalf("expected sync a, got %+v", got)
	}
	if got := store.FindByCollection("col2"); got != nil {
		t.Fatalf("expected nil for unknown collection, got %+v", got)
	}
}
