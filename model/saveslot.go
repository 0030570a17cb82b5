package model

import (
	"fmt"
	"strings"
	"time"
)

// SlotVersion is the schema version written into v2 slot metadata.
const SlotVersion = "2.0.0"

// SlotCount is the fixed number of save slots in the v2 store.
const SlotCount = 10

// SaveSlot is the v2 save-store unit: one of ten fixed numbered slots holding
// a complete game snapshot. An empty slot has no adventure name.
type SaveSlot struct {
	SlotNumber        int       `json:"slot_number"`
	CreatedAt         time.Time `json:"created_at"`
	LastPlayed        time.Time `json:"last_played"`
	PlaytimeSeconds   int       `json:"playtime_seconds"`
	AdventureName     string    `json:"adventure_name,omitempty"`
	AdventureProgress string    `json:"adventure_progress,omitempty"`
	PartyComposition  []string  `json:"party_composition"`
	PartyLevels       []int     `json:"party_levels"`
	CustomName        string    `json:"custom_name,omitempty"`
	SaveVersion       string    `json:"save_version"`
}

// NewEmptySlot returns an unused slot placeholder.
func NewEmptySlot(slotNumber int, now time.Time) *SaveSlot {
	return &SaveSlot{
		SlotNumber:       slotNumber,
		CreatedAt:        now,
		LastPlayed:       now,
		PartyComposition: []string{},
		PartyLevels:      []int{},
		SaveVersion:      SlotVersion,
	}
}

// IsEmpty reports whether the slot has never held a save.
func (s *SaveSlot) IsEmpty() bool {
	return s.AdventureName == ""
}

// DisplayName returns the custom name when set, the auto-generated
// description otherwise.
func (s *SaveSlot) DisplayName() string {
	if s.CustomName != "" {
		return s.CustomName
	}
	return s.AutoName()
}

// AutoName builds "{Adventure} - {Party} - {Progress} - {Playtime}", e.g.
// "Tomb of Horrors - Aria, Zephyr - Room 12 - 2h 30m". Parties larger than
// three show the first two names plus a count. Empty slots read
// "Empty Slot N".
func (s *SaveSlot) AutoName() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Empty Slot %d", s.SlotNumber)
	}

	var party string
	switch {
	case len(s.PartyComposition) == 0:
		party = "No Party"
	case len(s.PartyComposition) <= 3:
		party = strings.Join(s.PartyComposition, ", ")
	default:
		party = fmt.Sprintf("%s +%d",
			strings.Join(s.PartyComposition[:2], ", "),
			len(s.PartyComposition)-2)
	}

	var progress string
	switch {
	case s.AdventureProgress != "":
		progress = s.AdventureProgress
	case len(s.PartyLevels) > 0:
		total := 0
		for _, lvl := range s.PartyLevels {
			total += lvl
		}
		progress = fmt.Sprintf("Level %d", total/len(s.PartyLevels))
	default:
		progress = "Just Started"
	}

	return fmt.Sprintf("%s - %s - %s - %s",
		s.AdventureName, party, progress, s.PlaytimeDisplay())
}

// PlaytimeDisplay renders the slot's cumulative playtime; fresh slots show
// "0m" rather than "0s".
func (s *SaveSlot) PlaytimeDisplay() string {
	if s.PlaytimeSeconds == 0 {
		return "0m"
	}
	return FormatPlaytime(s.PlaytimeSeconds)
}

// LastPlayedDisplay renders how long ago the slot was last loaded.
func (s *SaveSlot) LastPlayedDisplay(now time.Time) string {
	return FormatRelativeTime(s.LastPlayed, now)
}
