package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
)

// slotVersions is the load-time allow-list. The slot store still reads
// version 1.0.0 saves because migration rewrites them in place.
var slotVersions = map[string]bool{"1.0.0": true, "2.0.0": true}

var titleCaser = cases.Title(language.English)

// AdventureDisplayName converts a dungeon filename to a human-readable
// adventure name: "tomb_of_horrors" becomes "Tomb of Horrors".
func AdventureDisplayName(dungeonFilename string) string {
	if dungeonFilename == "" {
		return "Unknown Adventure"
	}
	name := titleCaser.String(strings.ReplaceAll(dungeonFilename, "_", " "))
	// Connectives stay lowercase: "Tomb of Horrors", not "Tomb Of Horrors".
	words := strings.Fields(name)
	for i, w := range words {
		if i > 0 && (w == "Of" || w == "The" || w == "And") {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

// slotFile is the on-disk shape of slot_NN.json. Empty slots carry an empty
// party and game state so that all ten files always exist.
type slotFile struct {
	Version  string             `json:"version"`
	Metadata model.SaveSlot     `json:"metadata"`
	Party    []*model.Character `json:"party"`
	State    stateDoc           `json:"game_state"`
}

// SlotManager is the current save store: ten fixed slot files under the
// saves directory. Construction self-heals any missing slot files.
type SlotManager struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewSlotManager opens the slot store at dir, creating the directory and
// any missing slot placeholders.
func NewSlotManager(dir string, logger *zap.Logger) (*SlotManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: mkdir %s: %w", dir, err)
	}
	m := &SlotManager{dir: dir, logger: logger, now: time.Now}
	for n := 1; n <= model.SlotCount; n++ {
		path, _ := m.slotPath(n)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := m.writeSlot(n, model.NewEmptySlot(n, m.now()), nil); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *SlotManager) slotPath(n int) (string, error) {
	if n < 1 || n > model.SlotCount {
		return "", fmt.Errorf("%w: slot number must be between 1 and %d, got %d",
			storage.ErrInvalid, model.SlotCount, n)
	}
	return filepath.Join(m.dir, fmt.Sprintf("slot_%02d.json", n)), nil
}

func (m *SlotManager) writeSlot(n int, slot *model.SaveSlot, gs *model.GameState) error {
	path, err := m.slotPath(n)
	if err != nil {
		return err
	}
	doc := slotFile{
		Version:  model.SlotVersion,
		Metadata: *slot,
		Party:    []*model.Character{},
	}
	if gs != nil {
		doc.Party = gs.Party
		doc.State = stateFrom(gs)
	}
	return storage.WriteJSON(path, doc)
}

// GetSlot returns a slot's metadata. Missing or unparseable slot files read
// as empty rather than failing.
func (m *SlotManager) GetSlot(n int) (*model.SaveSlot, error) {
	path, err := m.slotPath(n)
	if err != nil {
		return nil, err
	}
	var doc slotFile
	if err := storage.ReadJSON(path, &doc); err != nil {
		m.logger.Warn("treating unreadable slot as empty",
			zap.Int("slot", n),
			zap.Error(err))
		return model.NewEmptySlot(n, m.now()), nil
	}
	slot := doc.Metadata
	if slot.SlotNumber == 0 {
		return model.NewEmptySlot(n, m.now()), nil
	}
	return &slot, nil
}

// ListSlots returns metadata for all ten slots in order.
func (m *SlotManager) ListSlots() ([]*model.SaveSlot, error) {
	slots := make([]*model.SaveSlot, 0, model.SlotCount)
	for n := 1; n <= model.SlotCount; n++ {
		slot, err := m.GetSlot(n)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// SaveGame writes the game state into a slot. A first save to an empty slot
// sets created_at; subsequent saves accumulate playtimeDelta onto the
// slot's total. The slot's adventure name, progress and party roster are
// derived from the game state. Returns the slot file path.
func (m *SlotManager) SaveGame(n int, gs *model.GameState, playtimeDelta int) (string, error) {
	slot, err := m.GetSlot(n)
	if err != nil {
		return "", err
	}

	now := m.now()
	if slot.IsEmpty() {
		slot.CreatedAt = now
		slot.PlaytimeSeconds = playtimeDelta
	} else {
		slot.PlaytimeSeconds += playtimeDelta
	}
	slot.LastPlayed = now
	slot.AdventureName = AdventureDisplayName(gs.DungeonName)
	slot.AdventureProgress = progressDescription(gs)
	slot.PartyComposition = gs.PartyNames()
	slot.PartyLevels = gs.PartyLevels()

	if err := m.writeSlot(n, slot, gs); err != nil {
		return "", err
	}
	path, _ := m.slotPath(n)
	return path, nil
}

func progressDescription(gs *model.GameState) string {
	if gs.CurrentRoomID != "" {
		return "Room " + gs.CurrentRoomID
	}
	return "Just Started"
}

// LoadGame reads the game state from a slot. Loading an empty placeholder
// fails with ErrEmptySlot; versions outside the allow-list fail with
// ErrVersionIncompatible. The slot's last_played is refreshed as a side
// effect.
func (m *SlotManager) LoadGame(n int) (*model.GameState, error) {
	path, err := m.slotPath(n)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, err
	}

	var slot model.SaveSlot
	if metaRaw, ok := raw["metadata"]; ok {
		if err := json.Unmarshal(metaRaw, &slot); err != nil {
			return nil, fmt.Errorf("%w: %s: metadata: %v", storage.ErrInvalid, path, err)
		}
	}
	if slot.IsEmpty() {
		return nil, fmt.Errorf("%w: slot %d", storage.ErrEmptySlot, n)
	}
	if err := requireKeys(raw, path, false); err != nil {
		return nil, err
	}
	if v := decodeVersion(raw, "1.0.0"); !slotVersions[v] {
		return nil, fmt.Errorf("%w: save version %s (current %s)",
			storage.ErrVersionIncompatible, v, model.SlotVersion)
	}

	var party []*model.Character
	if err := json.Unmarshal(raw["party"], &party); err != nil {
		return nil, fmt.Errorf("%w: %s: party: %v", storage.ErrInvalid, path, err)
	}
	var state stateDoc
	if err := json.Unmarshal(raw["game_state"], &state); err != nil {
		return nil, fmt.Errorf("%w: %s: game_state: %v", storage.ErrInvalid, path, err)
	}

	slot.LastPlayed = m.now()
	if metaEnc, err := json.Marshal(slot); err == nil {
		raw["metadata"] = metaEnc
		if err := storage.WriteJSON(path, raw); err != nil {
			return nil, err
		}
	}

	return state.into(party), nil
}

// ImportSlot writes externally-built slot metadata and game state into a
// slot wholesale, bypassing the metadata derivation SaveGame performs. The
// migration engine uses this to carry legacy campaigns over with their
// original timestamps and playtime. Returns the slot file path.
func (m *SlotManager) ImportSlot(n int, slot *model.SaveSlot, gs *model.GameState) (string, error) {
	path, err := m.slotPath(n)
	if err != nil {
		return "", err
	}
	slot.SlotNumber = n
	slot.SaveVersion = model.SlotVersion
	if err := m.writeSlot(n, slot, gs); err != nil {
		return "", err
	}
	return path, nil
}

// RenameSlot sets a slot's custom display name; a blank name clears it so
// the auto-generated name shows again.
func (m *SlotManager) RenameSlot(n int, customName string) error {
	path, err := m.slotPath(n)
	if err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return err
	}
	var slot model.SaveSlot
	if metaRaw, ok := raw["metadata"]; ok {
		if err := json.Unmarshal(metaRaw, &slot); err != nil {
			return fmt.Errorf("%w: %s: metadata: %v", storage.ErrInvalid, path, err)
		}
	}
	slot.CustomName = strings.TrimSpace(customName)
	metaEnc, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("save: encode slot %d: %w", n, err)
	}
	raw["metadata"] = metaEnc
	return storage.WriteJSON(path, raw)
}

// ClearSlot resets a slot to its empty placeholder.
func (m *SlotManager) ClearSlot(n int) error {
	if _, err := m.slotPath(n); err != nil {
		return err
	}
	return m.writeSlot(n, model.NewEmptySlot(n, m.now()), nil)
}
