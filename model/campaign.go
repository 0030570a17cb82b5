package model

import (
	"fmt"
	"time"
)

// CampaignVersion is the schema version written into v1 campaign metadata.
const CampaignVersion = "1.0.0"

// Campaign is the v1 save-store unit: a named party playing through a
// dungeon, with its own directory of save files.
type Campaign struct {
	Name              string    `json:"name"`
	CreatedAt         time.Time `json:"created_at"`
	LastPlayed        time.Time `json:"last_played"`
	PlaytimeSeconds   int       `json:"playtime_seconds"`
	CurrentDungeon    string    `json:"current_dungeon"`
	CurrentRoom       string    `json:"current_room"`
	PartyCharacterIDs []string  `json:"party_character_ids"`
	SaveVersion       string    `json:"save_version"`
}

// NewCampaign returns a campaign created now with the v1 schema version.
func NewCampaign(name string, now time.Time) *Campaign {
	return &Campaign{
		Name:        name,
		CreatedAt:   now,
		LastPlayed:  now,
		SaveVersion: CampaignVersion,
	}
}

// PlaytimeDisplay renders the cumulative playtime, e.g. "6h 23m".
func (c *Campaign) PlaytimeDisplay() string {
	return FormatPlaytime(c.PlaytimeSeconds)
}

// LastPlayedDisplay renders how long ago the campaign was last loaded.
func (c *Campaign) LastPlayedDisplay(now time.Time) string {
	return FormatRelativeTime(c.LastPlayed, now)
}

// SaveSlotMeta summarizes one save file inside a campaign, enough to show a
// load menu without opening the save itself.
type SaveSlotMeta struct {
	SlotName       string    `json:"slot_name"`
	CreatedAt      time.Time `json:"created_at"`
	Location       string    `json:"location,omitempty"`
	PartyHPSummary string    `json:"party_hp_summary,omitempty"`
	SaveType       string    `json:"save_type"` // "auto", "quick", "manual"
}

// TimeDisplay renders when the save was made, relative for recent saves and
// as an absolute date past a month.
func (m *SaveSlotMeta) TimeDisplay(now time.Time) string {
	seconds := int(now.Sub(m.CreatedAt).Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minute%s ago", minutes, plural(minutes))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	}
	days := hours / 24
	switch {
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		weeks := days / 7
		return fmt.Sprintf("%d week%s ago", weeks, plural(weeks))
	default:
		return m.CreatedAt.Format("Jan 02, 2006 at 03:04 PM")
	}
}
