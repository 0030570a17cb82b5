package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
)

// campaignNameInvalid lists the characters replaced when deriving a
// campaign directory name.
const campaignNameInvalid = `<>:"/\|?*!@#$%^&()+=[]{};',.`

// filenameInvalid lists the characters replaced in manual save names.
const filenameInvalid = `<>:"/\|?*`

// SanitizeCampaignName derives a filesystem-safe directory name from a
// display name: lowercased, spaces and punctuation collapsed to single
// underscores. An unusable name falls back to "campaign".
func SanitizeCampaignName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	for _, ch := range campaignNameInvalid {
		safe = strings.ReplaceAll(safe, string(ch), "_")
	}
	for strings.Contains(safe, "__") {
		safe = strings.ReplaceAll(safe, "__", "_")
	}
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "campaign"
	}
	return safe
}

func sanitizeFilename(name string) string {
	for _, ch := range filenameInvalid {
		name = strings.ReplaceAll(name, string(ch), "_")
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "save"
	}
	return name
}

// CampaignStore is the legacy save store: each campaign owns a directory
// under the campaigns root with campaign.json metadata and a saves/
// subdirectory of save files.
type CampaignStore struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewCampaignStore opens the legacy store rooted at dir, creating it if
// missing.
func NewCampaignStore(dir string, logger *zap.Logger) (*CampaignStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: mkdir %s: %w", dir, err)
	}
	return &CampaignStore{root: dir, logger: logger, now: time.Now}, nil
}

func (s *CampaignStore) campaignDir(name string) string {
	return filepath.Join(s.root, SanitizeCampaignName(name))
}

func (s *CampaignStore) metadataPath(name string) string {
	return filepath.Join(s.campaignDir(name), "campaign.json")
}

// Create makes a new campaign directory and metadata. Collisions are
// detected on the sanitized name, so "My Campaign!" and "my campaign"
// collide.
func (s *CampaignStore) Create(name, dungeonName string, partyIDs []string) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: campaign name cannot be empty", storage.ErrInvalid)
	}

	dir := s.campaignDir(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: campaign %q already exists", storage.ErrInvalid, name)
	}
	for _, sub := range []string{"saves", "party"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("save: mkdir %s: %w", dir, err)
		}
	}

	campaign := model.NewCampaign(name, s.now())
	campaign.CurrentDungeon = dungeonName
	campaign.PartyCharacterIDs = partyIDs
	if campaign.PartyCharacterIDs == nil {
		campaign.PartyCharacterIDs = []string{}
	}
	if err := storage.WriteJSON(s.metadataPath(name), campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Load reads a campaign's metadata by display name.
func (s *CampaignStore) Load(name string) (*model.Campaign, error) {
	if _, err := os.Stat(s.campaignDir(name)); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: campaign %q", storage.ErrNotFound, name)
	}
	var campaign model.Campaign
	if err := storage.ReadJSON(s.metadataPath(name), &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func saveFileName(slotName string, now time.Time) string {
	switch slotName {
	case "auto":
		return "save_auto"
	case "quick":
		return "save_quick"
	default:
		return fmt.Sprintf("save_%s_%s", sanitizeFilename(slotName), now.Format("20060102_150405"))
	}
}

// SaveState writes the game state into a campaign save slot and refreshes
// the campaign metadata (last played, current position, party roster).
// slotName "auto" and "quick" overwrite in place; anything else creates a
// timestamped manual save. Returns the save file path.
func (s *CampaignStore) SaveState(name string, gs *model.GameState, slotName, saveType string) (string, error) {
	dir := s.campaignDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: campaign %q", storage.ErrNotFound, name)
	}

	now := s.now()
	path := filepath.Join(dir, "saves", saveFileName(slotName, now)+".json")
	doc := struct {
		Version  string             `json:"version"`
		Metadata saveMeta           `json:"metadata"`
		Party    []*model.Character `json:"party"`
		State    stateDoc           `json:"game_state"`
	}{
		Version: model.CampaignVersion,
		Metadata: saveMeta{
			Created:    now,
			LastPlayed: now,
			AutoSave:   saveType == "auto",
		},
		Party: gs.Party,
		State: stateFrom(gs),
	}
	if err := storage.WriteJSON(path, doc); err != nil {
		return "", err
	}

	campaign, err := s.Load(name)
	if err != nil {
		return "", err
	}
	campaign.LastPlayed = now
	campaign.CurrentDungeon = gs.DungeonName
	campaign.CurrentRoom = gs.CurrentRoomID
	campaign.PartyCharacterIDs = gs.PartyNames()
	if err := storage.WriteJSON(s.metadataPath(name), campaign); err != nil {
		return "", err
	}
	return path, nil
}

// LoadState reads the game state from a campaign save slot. The save's
// schema version must match exactly; the campaign's and the save's
// last_played timestamps are refreshed as a side effect.
func (s *CampaignStore) LoadState(name, slotName string) (*model.GameState, error) {
	dir := s.campaignDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: campaign %q", storage.ErrNotFound, name)
	}

	fileName := slotName
	switch slotName {
	case "auto":
		fileName = "save_auto"
	case "quick":
		fileName = "save_quick"
	}
	path := filepath.Join(dir, "saves", fileName+".json")

	var raw map[string]json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, path, true); err != nil {
		return nil, err
	}
	if v := decodeVersion(raw, "0.0.0"); v != model.CampaignVersion {
		return nil, fmt.Errorf("%w: save version %s (current %s)",
			storage.ErrVersionIncompatible, v, model.CampaignVersion)
	}

	var party []*model.Character
	if err := json.Unmarshal(raw["party"], &party); err != nil {
		return nil, fmt.Errorf("%w: %s: party: %v", storage.ErrInvalid, path, err)
	}
	var state stateDoc
	if err := json.Unmarshal(raw["game_state"], &state); err != nil {
		return nil, fmt.Errorf("%w: %s: game_state: %v", storage.ErrInvalid, path, err)
	}

	now := s.now()
	campaign, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	campaign.LastPlayed = now
	if err := storage.WriteJSON(s.metadataPath(name), campaign); err != nil {
		return nil, err
	}

	// Refresh last_played inside the save file too, preserving everything
	// else the document carries.
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(raw["metadata"], &meta); err == nil {
		if ts, err := json.Marshal(now); err == nil {
			meta["last_played"] = ts
			if enc, err := json.Marshal(meta); err == nil {
				raw["metadata"] = enc
				if err := storage.WriteJSON(path, raw); err != nil {
					return nil, err
				}
			}
		}
	}

	return state.into(party), nil
}

// ListCampaigns reads every campaign's metadata, most recently played first.
// Directories without campaign.json are ignored; directories whose metadata
// does not parse come back as Skips.
func (s *CampaignStore) ListCampaigns() ([]*model.Campaign, []storage.Skip, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, nil, fmt.Errorf("save: readdir %s: %w", s.root, err)
	}

	var campaigns []*model.Campaign
	var skipped []storage.Skip
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(s.root, e.Name(), "campaign.json")
		var campaign model.Campaign
		if err := storage.ReadJSON(path, &campaign); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("skipping unreadable campaign",
					zap.String("dir", e.Name()),
					zap.Error(err))
				skipped = append(skipped, storage.Skip{ID: e.Name(), Err: err})
			}
			continue
		}
		campaigns = append(campaigns, &campaign)
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].LastPlayed.After(campaigns[j].LastPlayed)
	})
	return campaigns, skipped, nil
}

// MostRecent returns the most recently played campaign, or nil when none
// exist.
func (s *CampaignStore) MostRecent() (*model.Campaign, error) {
	campaigns, _, err := s.ListCampaigns()
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}
	return campaigns[0], nil
}

// ListSaveSlots summarizes a campaign's save files: auto saves first, then
// quick, then manual, newest first within each group. Corrupt save files
// come back as Skips.
func (s *CampaignStore) ListSaveSlots(name string) ([]model.SaveSlotMeta, []storage.Skip, error) {
	dir := s.campaignDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: campaign %q", storage.ErrNotFound, name)
	}

	savesDir := filepath.Join(dir, "saves")
	entries, err := os.ReadDir(savesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("save: readdir %s: %w", savesDir, err)
	}

	var slots []model.SaveSlotMeta
	var skipped []storage.Skip
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".json")
		path := filepath.Join(savesDir, e.Name())

		var doc struct {
			Metadata saveMeta           `json:"metadata"`
			Party    []*model.Character `json:"party"`
			State    stateDoc           `json:"game_state"`
		}
		if err := storage.ReadJSON(path, &doc); err != nil {
			s.logger.Warn("skipping unreadable save file",
				zap.String("file", e.Name()),
				zap.Error(err))
			skipped = append(skipped, storage.Skip{ID: stem, Err: err})
			continue
		}

		saveType := "manual"
		switch stem {
		case "save_auto":
			saveType = "auto"
		case "save_quick":
			saveType = "quick"
		}

		gs := doc.State.into(doc.Party)
		slots = append(slots, model.SaveSlotMeta{
			SlotName:       stem,
			CreatedAt:      doc.Metadata.Created,
			Location:       fmt.Sprintf("%s - Room %s", doc.State.DungeonName, doc.State.CurrentRoomID),
			PartyHPSummary: gs.PartyHPSummary(),
			SaveType:       saveType,
		})
	}

	rank := map[string]int{"auto": 0, "quick": 1, "manual": 2}
	sort.Slice(slots, func(i, j int) bool {
		if rank[slots[i].SaveType] != rank[slots[j].SaveType] {
			return rank[slots[i].SaveType] < rank[slots[j].SaveType]
		}
		return slots[i].CreatedAt.After(slots[j].CreatedAt)
	})
	return slots, skipped, nil
}

// Delete removes a campaign and every save inside it, reporting whether
// anything was actually removed. Deleting an absent campaign is not an error.
func (s *CampaignStore) Delete(name string) (bool, error) {
	dir := s.campaignDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("save: remove %s: %w", dir, err)
	}
	return true, nil
}
