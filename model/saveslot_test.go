package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotAutoName(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty slot", func(t *testing.T) {
		s := NewEmptySlot(3, now)
		assert.True(t, s.IsEmpty())
		assert.Equal(t, "Empty Slot 3", s.AutoName())
	})

	t.Run("full format", func(t *testing.T) {
		s := &SaveSlot{
			SlotNumber:        1,
			AdventureName:     "Tomb of Horrors",
			AdventureProgress: "Room 12",
			PartyComposition:  []string{"Aria", "Zephyr"},
			PartyLevels:       []int{3, 3},
			PlaytimeSeconds:   9000,
		}
		assert.Equal(t, "Tomb of Horrors - Aria, Zephyr - Room 12 - 2h 30m", s.AutoName())
	})

	t.Run("large party truncates", func(t *testing.T) {
		s := &SaveSlot{
			SlotNumber:       2,
			AdventureName:    "Sunless Citadel",
			PartyComposition: []string{"Aria", "Zephyr", "Korgan", "Mira", "Tolan"},
			PartyLevels:      []int{4, 4, 3, 5, 4},
			PlaytimeSeconds:  60,
		}
		assert.Equal(t, "Sunless Citadel - Aria, Zephyr +3 - Level 4 - 1m", s.AutoName())
	})

	t.Run("no progress or levels", func(t *testing.T) {
		s := &SaveSlot{
			SlotNumber:       4,
			AdventureName:    "Sunless Citadel",
			PartyComposition: []string{},
		}
		assert.Equal(t, "Sunless Citadel - No Party - Just Started - 0m", s.AutoName())
	})
}

func TestSlotDisplayName(t *testing.T) {
	s := &SaveSlot{
		SlotNumber:       1,
		AdventureName:    "Tomb of Horrors",
		PartyComposition: []string{"Aria"},
		PlaytimeSeconds:  120,
	}
	assert.Equal(t, s.AutoName(), s.DisplayName())

	s.CustomName = "Before the lich fight"
	assert.Equal(t, "Before the lich fight", s.DisplayName())
}

func TestSlotPlaytimeDisplay(t *testing.T) {
	s := &SaveSlot{}
	assert.Equal(t, "0m", s.PlaytimeDisplay(), "fresh slots show minutes, not seconds")

	s.PlaytimeSeconds = 45
	assert.Equal(t, "45s", s.PlaytimeDisplay())
}
