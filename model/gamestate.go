package model

import (
	"fmt"
	"strings"
)

// RoomState captures per-room modifications the party leaves behind in a
// dungeon: whether the room was searched and which enemies remain.
type RoomState struct {
	Searched bool     `json:"searched"`
	Enemies  []string `json:"enemies"`
}

// GameState is the complete in-memory snapshot a save file round-trips.
// The save stores treat the dungeon portion as opaque: no dungeon logic
// lives here.
type GameState struct {
	Party []*Character `json:"party"`

	// DungeonName is the dungeon data filename, not the display name.
	DungeonName        string               `json:"dungeon_name"`
	CurrentRoomID      string               `json:"current_room_id"`
	DungeonState       map[string]RoomState `json:"dungeon_state"`
	InCombat           bool                 `json:"in_combat"`
	ActionHistory      []string             `json:"action_history"`
	LastEntryDirection string               `json:"last_entry_direction"`
}

// PartyNames returns the party members' names in order.
func (g *GameState) PartyNames() []string {
	names := make([]string, len(g.Party))
	for i, ch := range g.Party {
		names[i] = ch.Name
	}
	return names
}

// PartyLevels returns the party members' levels, parallel to PartyNames.
func (g *GameState) PartyLevels() []int {
	levels := make([]int, len(g.Party))
	for i, ch := range g.Party {
		levels[i] = ch.Level
	}
	return levels
}

// PartyHPSummary renders a compact per-member HP line, e.g.
// "Aria 23/30, Zephyr 18/18".
func (g *GameState) PartyHPSummary() string {
	parts := make([]string, len(g.Party))
	for i, ch := range g.Party {
		parts[i] = fmt.Sprintf("%s %d/%d", ch.Name, ch.CurrentHP, ch.MaxHP)
	}
	return strings.Join(parts, ", ")
}
