// Package vault implements both generations of the character vault: the
// legacy one-file-per-character layout and the current single-file layout
// with usage tracking.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
)

// Version is the schema version written into legacy vault entries.
const Version = "1.0.0"

// Vault is the legacy character vault: one <uuid>.json file per character
// inside the vault directory.
type Vault struct {
	store  *storage.FileStore
	logger *zap.Logger
	now    func() time.Time
}

// entry is the on-disk shape of one legacy vault file.
type entry struct {
	Version  string           `json:"version"`
	Metadata entryMeta        `json:"metadata"`
	Char     *model.Character `json:"character"`
}

type entryMeta struct {
	CharacterID  string    `json:"character_id"`
	State        string    `json:"state"`
	CampaignName string    `json:"campaign_name,omitempty"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// Summary is one row of a vault listing: enough to show a roster without
// deserializing full characters.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Class        string    `json:"class"`
	Level        int       `json:"level"`
	Race         string    `json:"race"`
	State        string    `json:"state"`
	Campaign     string    `json:"campaign,omitempty"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// New opens the legacy vault at dir, creating the directory if missing.
func New(dir string, logger *zap.Logger) (*Vault, error) {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &Vault{store: store, logger: logger, now: time.Now}, nil
}

// Save writes a character into the vault and returns its id. An empty id
// generates a fresh UUID; a supplied id must be a valid UUID.
func (v *Vault) Save(ch *model.Character, id string, lc model.Lifecycle) (string, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: character id %q", storage.ErrInvalid, id)
	}
	if err := ch.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalid, err)
	}

	now := v.now()
	doc, err := json.MarshalIndent(entry{
		Version: Version,
		Metadata: entryMeta{
			CharacterID:  id,
			State:        lc.State(),
			CampaignName: lc.Campaign(),
			Created:      now,
			LastModified: now,
		},
		Char: ch,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("vault: encode %s: %w", id, err)
	}
	if err := v.store.Put(id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Load reads a character by id.
func (v *Vault) Load(id string) (*model.Character, error) {
	e, err := v.loadEntry(id)
	if err != nil {
		return nil, err
	}
	return e.Char, nil
}

func (v *Vault) loadEntry(id string) (*entry, error) {
	doc, err := v.store.Get(id)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: character %s: %v", storage.ErrInvalid, id, err)
	}
	for _, key := range []string{"version", "metadata", "character"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: character %s: missing %q", storage.ErrInvalid, id, key)
		}
	}
	var e entry
	if err := json.Unmarshal(doc, &e); err != nil {
		return nil, fmt.Errorf("%w: character %s: %v", storage.ErrInvalid, id, err)
	}
	if e.Char == nil {
		return nil, fmt.Errorf("%w: character %s: missing character data", storage.ErrInvalid, id)
	}
	if e.Metadata.CharacterID == "" || e.Metadata.State == "" {
		return nil, fmt.Errorf("%w: character %s: incomplete metadata", storage.ErrInvalid, id)
	}
	return &e, nil
}

// List summarizes the vault, most recently modified first. Corrupt entries
// never fail the listing: each one is returned as a Skip alongside the
// results. Retired characters are included only on request.
func (v *Vault) List(includeRetired bool) ([]Summary, []storage.Skip, error) {
	ids, err := v.store.List()
	if err != nil {
		return nil, nil, err
	}

	var skipped []storage.Skip
	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		e, err := v.loadEntry(id)
		if err != nil {
			v.logger.Warn("skipping unreadable vault entry",
				zap.String("character_id", id),
				zap.Error(err))
			skipped = append(skipped, storage.Skip{ID: id, Err: err})
			continue
		}
		if e.Metadata.State == "retired" && !includeRetired {
			continue
		}
		summaries = append(summaries, Summary{
			ID:           e.Metadata.CharacterID,
			Name:         e.Char.Name,
			Class:        e.Char.CharacterClass,
			Level:        e.Char.Level,
			Race:         e.Char.Race,
			State:        e.Metadata.State,
			Campaign:     e.Metadata.CampaignName,
			Created:      e.Metadata.Created,
			LastModified: e.Metadata.LastModified,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastModified.After(summaries[j].LastModified)
	})
	return summaries, skipped, nil
}

// exportDoc is the stripped sharing format: no internal ids or state.
type exportDoc struct {
	Version  string           `json:"version"`
	Char     *model.Character `json:"character"`
	Exported time.Time        `json:"exported"`
}

// Export writes a character to an arbitrary path for sharing between
// installations. With stripMetadata the internal id and lifecycle state are
// dropped.
func (v *Vault) Export(id, path string, stripMetadata bool) error {
	e, err := v.loadEntry(id)
	if err != nil {
		return err
	}
	if stripMetadata {
		return storage.WriteJSON(path, exportDoc{
			Version:  e.Version,
			Char:     e.Char,
			Exported: v.now(),
		})
	}
	return storage.WriteJSON(path, e)
}

// Import reads an exported character file and saves it into the vault under
// a fresh id (or the supplied one). Imported characters start available.
func (v *Vault) Import(path, id string) (string, error) {
	var doc exportDoc
	if err := storage.ReadJSON(path, &doc); err != nil {
		return "", err
	}
	if doc.Char == nil {
		return "", fmt.Errorf("%w: import %s: missing character data", storage.ErrInvalid, filepath.Base(path))
	}
	return v.Save(doc.Char, id, model.Available())
}

// Clone copies a character under a fresh id, renaming it to newName or
// "Copy of <name>". Clones always start available.
func (v *Vault) Clone(id, newName string) (string, error) {
	ch, err := v.Load(id)
	if err != nil {
		return "", err
	}
	if newName != "" {
		ch.Name = newName
	} else {
		ch.Name = "Copy of " + ch.Name
	}
	return v.Save(ch, "", model.Available())
}

// Delete removes a character from the vault, reporting whether anything was
// actually removed. Deleting an absent id is not an error.
func (v *Vault) Delete(id string) (bool, error) {
	if err := v.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateState rewrites a character's lifecycle metadata in place, refreshing
// last_modified and leaving the character data untouched.
func (v *Vault) UpdateState(id string, lc model.Lifecycle) error {
	e, err := v.loadEntry(id)
	if err != nil {
		return err
	}
	e.Metadata.State = lc.State()
	e.Metadata.CampaignName = lc.Campaign()
	e.Metadata.LastModified = v.now()

	doc, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: encode %s: %w", id, err)
	}
	return v.store.Put(id, doc)
}
