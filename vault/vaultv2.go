package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
)

// VersionV2 is the schema version of the single-file vault.
const VersionV2 = "2.0.0"

// VaultV2 is the current character vault: every character lives in one JSON
// file keyed by id, with per-character usage statistics. Every mutation
// rewrites the whole file.
type VaultV2 struct {
	store  *storage.DocumentStore
	logger *zap.Logger
	now    func() time.Time
}

// EntryV2 is one character record in the v2 vault file.
type EntryV2 struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	LastModified  time.Time        `json:"last_modified"`
	LastUsed      *time.Time       `json:"last_used"`
	TimesUsed     int              `json:"times_used"`
	SaveSlotsUsed []int            `json:"save_slots_used"`
	Char          *model.Character `json:"character"`
}

// SummaryV2 is one row of a v2 vault listing.
type SummaryV2 struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Class         string     `json:"class"`
	Level         int        `json:"level"`
	Race          string     `json:"race"`
	CreatedAt     time.Time  `json:"created_at"`
	LastModified  time.Time  `json:"last_modified"`
	LastUsed      *time.Time `json:"last_used"`
	TimesUsed     int        `json:"times_used"`
	SaveSlotsUsed []int      `json:"save_slots_used"`
}

// UsageStats aggregates vault-wide usage numbers.
type UsageStats struct {
	TotalCharacters   int       `json:"total_characters"`
	TotalUses         int       `json:"total_uses"`
	MostUsedCharacter string    `json:"most_used_character,omitempty"`
	MostUsedCount     int       `json:"most_used_count"`
	VaultCreated      time.Time `json:"vault_created"`
	VaultVersion      string    `json:"vault_version"`
}

// NewV2 opens the vault file at path, creating an empty vault if missing.
func NewV2(path string, logger *zap.Logger) (*VaultV2, error) {
	v := &VaultV2{logger: logger, now: time.Now}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		init := map[string]any{
			"version":    VersionV2,
			"created_at": v.now(),
			"characters": map[string]any{},
		}
		if err := storage.WriteJSON(path, init); err != nil {
			return nil, err
		}
	}
	v.store = storage.NewDocumentStore(path, "characters", nil)
	return v, nil
}

// Add stores a new character and returns its id. An empty id generates a
// fresh UUID; a supplied id must be a valid UUID not already in the vault.
func (v *VaultV2) Add(ch *model.Character, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: character id %q", storage.ErrInvalid, id)
	}
	if _, err := v.store.Get(id); err == nil {
		return "", fmt.Errorf("%w: character id already exists: %s", storage.ErrInvalid, id)
	}

	now := v.now()
	if err := v.putEntry(&EntryV2{
		ID:            id,
		CreatedAt:     now,
		LastModified:  now,
		TimesUsed:     0,
		SaveSlotsUsed: []int{},
		Char:          ch,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// Get reads a character by id.
func (v *VaultV2) Get(id string) (*model.Character, error) {
	e, err := v.getEntry(id)
	if err != nil {
		return nil, err
	}
	return e.Char, nil
}

// Update replaces a character's data while preserving its usage statistics
// and creation time. last_modified is refreshed.
func (v *VaultV2) Update(id string, ch *model.Character) error {
	e, err := v.getEntry(id)
	if err != nil {
		return err
	}
	e.Char = ch
	e.LastModified = v.now()
	return v.putEntry(e)
}

// RecordUsage notes that a character was loaded into a save slot: bumps
// times_used, refreshes last_used, and adds the slot to the used list once.
func (v *VaultV2) RecordUsage(id string, slotNumber int) error {
	e, err := v.getEntry(id)
	if err != nil {
		return err
	}
	e.TimesUsed++
	now := v.now()
	e.LastUsed = &now
	found := false
	for _, n := range e.SaveSlotsUsed {
		if n == slotNumber {
			found = true
			break
		}
	}
	if !found {
		e.SaveSlotsUsed = append(e.SaveSlotsUsed, slotNumber)
	}
	return v.putEntry(e)
}

// List summarizes every character. Characters that have been used sort
// first by most recent use; never-used ones follow by most recent
// modification. Unreadable entries come back as Skips.
func (v *VaultV2) List() ([]SummaryV2, []storage.Skip, error) {
	_, records, err := v.store.Snapshot()
	if err != nil {
		return nil, nil, err
	}

	var skipped []storage.Skip
	summaries := make([]SummaryV2, 0, len(records))
	for id, raw := range records {
		var e EntryV2
		if err := json.Unmarshal(raw, &e); err != nil || e.Char == nil {
			if err == nil {
				err = fmt.Errorf("%w: character %s: missing character data", storage.ErrInvalid, id)
			}
			v.logger.Warn("skipping unreadable vault entry",
				zap.String("character_id", id),
				zap.Error(err))
			skipped = append(skipped, storage.Skip{ID: id, Err: err})
			continue
		}
		summaries = append(summaries, SummaryV2{
			ID:            id,
			Name:          e.Char.Name,
			Class:         e.Char.CharacterClass,
			Level:         e.Char.Level,
			Race:          e.Char.Race,
			CreatedAt:     e.CreatedAt,
			LastModified:  e.LastModified,
			LastUsed:      e.LastUsed,
			TimesUsed:     e.TimesUsed,
			SaveSlotsUsed: e.SaveSlotsUsed,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch {
		case a.LastUsed != nil && b.LastUsed != nil:
			return a.LastUsed.After(*b.LastUsed)
		case a.LastUsed != nil:
			return true
		case b.LastUsed != nil:
			return false
		default:
			return a.LastModified.After(b.LastModified)
		}
	})
	return summaries, skipped, nil
}

// Delete removes a character from the vault, reporting whether anything was
// actually removed. Deleting an absent id is not an error.
func (v *VaultV2) Delete(id string) (bool, error) {
	if err := v.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clone copies a character under a fresh id, renaming it to newName or
// "Copy of <name>". Usage statistics start from zero.
func (v *VaultV2) Clone(id, newName string) (string, error) {
	ch, err := v.Get(id)
	if err != nil {
		return "", err
	}
	if newName != "" {
		ch.Name = newName
	} else {
		ch.Name = "Copy of " + ch.Name
	}
	return v.Add(ch, "")
}

// ImportBulk adds several characters at once. ids may be nil to generate
// fresh UUIDs, otherwise it must be parallel to characters.
func (v *VaultV2) ImportBulk(characters []*model.Character, ids []string) ([]string, error) {
	if ids != nil && len(ids) != len(characters) {
		return nil, fmt.Errorf("%w: ids length %d does not match characters length %d",
			storage.ErrInvalid, len(ids), len(characters))
	}
	out := make([]string, 0, len(characters))
	for i, ch := range characters {
		id := ""
		if ids != nil {
			id = ids[i]
		}
		newID, err := v.Add(ch, id)
		if err != nil {
			return out, err
		}
		out = append(out, newID)
	}
	return out, nil
}

// Stats aggregates usage numbers across the vault.
func (v *VaultV2) Stats() (*UsageStats, error) {
	header, records, err := v.store.Snapshot()
	if err != nil {
		return nil, err
	}

	stats := &UsageStats{TotalCharacters: len(records)}
	if raw, ok := header["version"]; ok {
		_ = json.Unmarshal(raw, &stats.VaultVersion)
	}
	if raw, ok := header["created_at"]; ok {
		_ = json.Unmarshal(raw, &stats.VaultCreated)
	}
	for _, raw := range records {
		var e EntryV2
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		stats.TotalUses += e.TimesUsed
		if e.TimesUsed > stats.MostUsedCount && e.Char != nil {
			stats.MostUsedCount = e.TimesUsed
			stats.MostUsedCharacter = e.Char.Name
		}
	}
	return stats, nil
}

func (v *VaultV2) getEntry(id string) (*EntryV2, error) {
	raw, err := v.store.Get(id)
	if err != nil {
		return nil, err
	}
	var e EntryV2
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: character %s: %v", storage.ErrInvalid, id, err)
	}
	if e.Char == nil {
		return nil, fmt.Errorf("%w: character %s: missing character data", storage.ErrInvalid, id)
	}
	return &e, nil
}

func (v *VaultV2) putEntry(e *EntryV2) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("vault: encode %s: %w", e.ID, err)
	}
	return v.store.Put(e.ID, raw)
}
