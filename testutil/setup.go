// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mkellner/dndterminal/model"
)

// Logger returns a zap logger that writes through t.Log.
func Logger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

// Character builds a valid character with sensible defaults for the fields
// tests rarely care about.
func Character(name, class string, level int) *model.Character {
	ch := model.NewCharacter(name, class, "human", level, 10+2*level, 14, model.Abilities{
		Strength:     14,
		Dexterity:    12,
		Constitution: 13,
		Intelligence: 10,
		Wisdom:       11,
		Charisma:     8,
	})
	return ch
}

// GameState builds a game state with the given party positioned in a dungeon
// room.
func GameState(dungeon, room string, party ...*model.Character) *model.GameState {
	return &model.GameState{
		Party:         party,
		DungeonName:   dungeon,
		CurrentRoomID: room,
		DungeonState:  map[string]model.RoomState{},
	}
}

// FixedClock returns a deterministic clock that advances by step on every
// call, starting at start.
func FixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}
