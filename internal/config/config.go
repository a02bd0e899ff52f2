// Package config stores the synchronization configurations in an encrypted
// file under the user's config directory. The file body is AES-256-GCM
// encrypted with a key derived from the user's passphrase; only the salt is
// stored in the clear.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/wfsync/internal/crypto"
	"github.com/marcus/wfsync/internal/models"
)

const (
	appDir     = "wfsync"
	configFile = "config.enc"

	storeVersion = 1
)

// SavedKey is an API credential remembered across syncs so setting up a
// second sync against the same account needs no re-entry.
type SavedKey struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Settings are app-wide preferences.
type Settings struct {
	// DefaultAutoPublish seeds the auto-publish answer in the setup flow.
	DefaultAutoPublish bool `json:"default_auto_publish,omitempty"`
}

// Store is the decrypted contents of the config file.
type Store struct {
	Version      int                  `json:"version"`
	Syncs        []*models.SyncConfig `json:"syncs"`
	AirtableKeys []SavedKey           `json:"airtable_keys,omitempty"`
	WebflowKeys  []SavedKey           `json:"webflow_keys,omitempty"`
	Settings     Settings             `json:"settings"`

	path string
	key  []byte
	salt []byte
}

// envelope is the on-disk shape: the key-derivation salt in the clear and
// the encrypted store body.
type envelope struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"`
	Data    string `json:"data"`
}

// Dir returns the directory holding the config file, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Exists reports whether a config file has been created yet.
func Exists() (bool, error) {
	path, err := Path()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Load opens the config file with the given passphrase. A missing file
// yields an empty store bound to the passphrase, so the first Save creates
// it. A wrong passphrase surfaces as crypto.ErrDecrypt.
func Load(passphrase string) (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return load(path, passphrase)
}

func load(path, passphrase string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			key, salt, err := crypto.DeriveKeyFromPassphrase(passphrase)
			if err != nil {
				return nil, err
			}
			return &Store{Version: storeVersion, path: path, key: key, salt: salt}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse config envelope: %w", err)
	}
	salt, err := hex.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	body, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode config body: %w", err)
	}

	key, err := crypto.DeriveKeyFromPassphraseWithSalt(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.Decrypt(key, body)
	if err != nil {
		return nil, err
	}

	var store Store
	if err := json.Unmarshal(plaintext, &store); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	store.path = path
	store.key = key
	store.salt = salt
	return &store, nil
}

// Save encrypts and writes the store using atomic write (temp file + rename).
func (s *Store) Save() error {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	body, err := crypto.Encrypt(s.key, plaintext)
	if err != nil {
		return err
	}
	env := envelope{
		Version: storeVersion,
		Salt:    hex.EncodeToString(s.salt),
		Data:    hex.EncodeToString(body),
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config envelope: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "config-*.enc.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Rekey re-derives the encryption key from a new passphrase. The change
// takes effect on the next Save.
func (s *Store) Rekey(passphrase string) error {
	key, salt, err := crypto.DeriveKeyFromPassphrase(passphrase)
	if err != nil {
		return err
	}
	s.key = key
	s.salt = salt
	return nil
}

// FindSync returns the sync with the given id or name, or nil.
func (s *Store) FindSync(idOrName string) *models.SyncConfig {
	for _, sc := range s.Syncs {
		if sc.ID == idOrName || sc.Name == idOrName {
			return sc
		}
	}
	return nil
}

// FindByCollection returns the sync targeting the given Webflow collection,
// or nil. This is how reference fields locate their sibling sync.
func (s *Store) FindByCollection(collectionID string) *models.SyncConfig {
	for _, sc := range s.Syncs {
		if sc.Webflow.Collection.ID == collectionID {
			return sc
		}
	}
	return nil
}

// AddSync appends a sync config.
func (s *Store) AddSync(sc *models.SyncConfig) {
	s.Syncs = append(s.Syncs, sc)
}

// RemoveSync deletes the sync with the given id or name. Returns false when
// no sync matches.
func (s *Store) RemoveSync(idOrName string) bool {
	for i, sc := range s.Syncs {
		if sc.ID == idOrName || sc.Name == idOrName {
			s.Syncs = append(s.Syncs[:i], s.Syncs[i+1:]...)
			return true
		}
	}
	return false
}

// RememberAirtableKey stores a named Airtable token, replacing an existing
// entry with the same name.
func (s *Store) RememberAirtableKey(name, key string) {
	s.AirtableKeys = upsertKey(s.AirtableKeys, name, key)
}

// RememberWebflowKey stores a named Webflow key, replacing an existing entry
// with the same name.
func (s *Store) RememberWebflowKey(name, key string) {
	s.WebflowKeys = upsertKey(s.WebflowKeys, name, key)
}

func upsertKey(keys []SavedKey, name, key string) []SavedKey {
	for i := range keys {
		if keys[i].Name == name {
			keys[i].Key = key
			return keys
		}
	}
	return append(keys, SavedKey{Name: name, Key: key})
}
