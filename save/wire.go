// Package save implements both generations of the save store: the legacy
// per-campaign hierarchy and the current flat ten-slot layout.
package save

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
)

// saveMeta is the metadata block of a legacy save file.
type saveMeta struct {
	Created    time.Time `json:"created"`
	LastPlayed time.Time `json:"last_played"`
	AutoSave   bool      `json:"auto_save"`
}

// stateDoc is the game_state block shared by both save formats.
type stateDoc struct {
	DungeonName        string                     `json:"dungeon_name"`
	CurrentRoomID      string                     `json:"current_room_id"`
	DungeonState       map[string]model.RoomState `json:"dungeon_state"`
	InCombat           bool                       `json:"in_combat"`
	ActionHistory      []string                   `json:"action_history"`
	LastEntryDirection string                     `json:"last_entry_direction"`
}

func stateFrom(gs *model.GameState) stateDoc {
	return stateDoc{
		DungeonName:        gs.DungeonName,
		CurrentRoomID:      gs.CurrentRoomID,
		DungeonState:       gs.DungeonState,
		InCombat:           gs.InCombat,
		ActionHistory:      gs.ActionHistory,
		LastEntryDirection: gs.LastEntryDirection,
	}
}

func (d stateDoc) into(party []*model.Character) *model.GameState {
	return &model.GameState{
		Party:              party,
		DungeonName:        d.DungeonName,
		CurrentRoomID:      d.CurrentRoomID,
		DungeonState:       d.DungeonState,
		InCombat:           d.InCombat,
		ActionHistory:      d.ActionHistory,
		LastEntryDirection: d.LastEntryDirection,
	}
}

// requireKeys checks a decoded save document for its required top-level
// keys. The party must be a non-empty list when requireParty is set.
func requireKeys(doc map[string]json.RawMessage, path string, requireParty bool) error {
	for _, key := range []string{"version", "metadata", "party", "game_state"} {
		if _, ok := doc[key]; !ok {
			return fmt.Errorf("%w: %s: missing %q", storage.ErrInvalid, path, key)
		}
	}
	var party []json.RawMessage
	if err := json.Unmarshal(doc["party"], &party); err != nil {
		return fmt.Errorf("%w: %s: party must be a list", storage.ErrInvalid, path)
	}
	if requireParty && len(party) == 0 {
		return fmt.Errorf("%w: %s: party cannot be empty", storage.ErrInvalid, path)
	}
	return nil
}

func decodeVersion(doc map[string]json.RawMessage, fallback string) string {
	var v string
	if raw, ok := doc["version"]; ok {
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v
		}
	}
	return fallback
}
