// Package migration converts the legacy per-campaign save layout into the
// ten-slot store and the single-file character vault. It is a one-shot,
// best-effort batch job: per-item failures become warnings, but a failed
// verification fails the whole run, and nothing already written is rolled
// back.
package migration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/save"
	"github.com/mkellner/dndterminal/storage"
	"github.com/mkellner/dndterminal/vault"
)

// Status tracks how far a migration run progressed. Transitions are strictly
// ordered: Pending -> BackedUp -> CharactersMigrated -> SlotsMigrated ->
// Verified, with Failed reachable from any step.
type Status string

const (
	StatusPending            Status = "pending"
	StatusBackedUp           Status = "backed_up"
	StatusCharactersMigrated Status = "characters_migrated"
	StatusSlotsMigrated      Status = "slots_migrated"
	StatusVerified           Status = "verified"
	StatusFailed             Status = "failed"
)

// Report is the outcome of one migration run.
type Report struct {
	Status             Status   `json:"status"`
	DryRun             bool     `json:"dry_run"`
	CampaignsMigrated  int      `json:"campaigns_migrated"`
	CharactersMigrated int      `json:"characters_migrated"`
	SlotsUsed          int      `json:"slots_used"`
	Warnings           []string `json:"warnings"`
	Message            string   `json:"message"`
}

// CampaignInfo is one row of the pre-migration census.
type CampaignInfo struct {
	Name       string    `json:"name"`
	LastPlayed time.Time `json:"last_played"`
	Playtime   string    `json:"playtime"`
	SaveCount  int       `json:"save_count"`
}

// CharacterInfo is one deduplicated character in the pre-migration census.
type CharacterInfo struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	Class string `json:"class"`
}

// Info describes what a migration run would touch.
type Info struct {
	TotalCampaigns      int             `json:"total_campaigns"`
	MigratableCampaigns int             `json:"migratable_campaigns"`
	TotalCharacters     int             `json:"total_characters"`
	Campaigns           []CampaignInfo  `json:"campaigns_to_migrate"`
	UniqueCharacters    []CharacterInfo `json:"unique_characters"`
}

// Manager runs the v1 to v2 migration.
type Manager struct {
	legacyDir string
	savesDir  string
	vaultPath string
	backupDir string
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager returns a migration manager over the given paths.
func NewManager(legacyDir, savesDir, vaultPath, backupDir string, logger *zap.Logger) *Manager {
	return &Manager{
		legacyDir: legacyDir,
		savesDir:  savesDir,
		vaultPath: vaultPath,
		backupDir: backupDir,
		logger:    logger,
		now:       time.Now,
	}
}

// ShouldMigrate reports whether a run is warranted: the legacy campaigns
// root has at least one entry and the slot store holds no non-empty slot.
// The gate keeps a re-run from clobbering live data.
func (m *Manager) ShouldMigrate() (bool, error) {
	entries, err := os.ReadDir(m.legacyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("migration: readdir %s: %w", m.legacyDir, err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	if _, err := os.Stat(m.savesDir); os.IsNotExist(err) {
		return true, nil
	}
	slots, err := save.NewSlotManager(m.savesDir, m.logger)
	if err != nil {
		return false, err
	}
	all, err := slots.ListSlots()
	if err != nil {
		return false, err
	}
	for _, slot := range all {
		if !slot.IsEmpty() {
			return false, nil
		}
	}
	return true, nil
}

// candidate pairs a legacy campaign with the save file chosen to represent
// it: its auto-save when present, otherwise its most recently modified save.
type candidate struct {
	campaign *model.Campaign
	savePath string
}

func (m *Manager) collectCandidates() ([]candidate, error) {
	entries, err := os.ReadDir(m.legacyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("migration: readdir %s: %w", m.legacyDir, err)
	}

	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.legacyDir, e.Name())

		var campaign model.Campaign
		if err := storage.ReadJSON(filepath.Join(dir, "campaign.json"), &campaign); err != nil {
			m.logger.Warn("skipping unreadable legacy campaign",
				zap.String("dir", e.Name()),
				zap.Error(err))
			continue
		}

		savePath, ok := pickSaveFile(filepath.Join(dir, "saves"))
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{campaign: &campaign, savePath: savePath})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].campaign.LastPlayed.After(candidates[j].campaign.LastPlayed)
	})
	return candidates, nil
}

func pickSaveFile(savesDir string) (string, bool) {
	autoPath := filepath.Join(savesDir, "save_auto.json")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath, true
	}

	entries, err := os.ReadDir(savesDir)
	if err != nil {
		return "", false
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(savesDir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, newest != ""
}

// legacySave is the subset of a legacy save file migration needs.
type legacySave struct {
	Party []*model.Character `json:"party"`
	State json.RawMessage    `json:"game_state"`
}

// collectUniqueCharacters deduplicates party members across the chosen save
// files by name; the highest-level occurrence wins. The same name at the
// same level keeps the first occurrence in most-recent-first campaign
// order. Returns the characters in first-seen order.
func (m *Manager) collectUniqueCharacters(candidates []candidate) []*model.Character {
	var order []string
	byName := map[string]*model.Character{}

	for _, c := range candidates {
		var doc legacySave
		if err := storage.ReadJSON(c.savePath, &doc); err != nil {
			m.logger.Warn("skipping unreadable legacy save",
				zap.String("path", c.savePath),
				zap.Error(err))
			continue
		}
		for _, ch := range doc.Party {
			if ch == nil || ch.Name == "" {
				continue
			}
			existing, seen := byName[ch.Name]
			if !seen {
				byName[ch.Name] = ch
				order = append(order, ch.Name)
			} else if ch.Level > existing.Level {
				byName[ch.Name] = ch
			}
		}
	}

	out := make([]*model.Character, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// Info reports what a migration would touch without writing anything.
func (m *Manager) Info() (*Info, error) {
	candidates, err := m.collectCandidates()
	if err != nil {
		return nil, err
	}

	info := &Info{
		TotalCampaigns:      len(candidates),
		MigratableCampaigns: min(len(candidates), model.SlotCount),
	}
	for i, c := range candidates {
		if i >= model.SlotCount {
			break
		}
		saveCount := 0
		if entries, err := os.ReadDir(filepath.Dir(c.savePath)); err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
					saveCount++
				}
			}
		}
		info.Campaigns = append(info.Campaigns, CampaignInfo{
			Name:       c.campaign.Name,
			LastPlayed: c.campaign.LastPlayed,
			Playtime:   c.campaign.PlaytimeDisplay(),
			SaveCount:  saveCount,
		})
	}

	for _, ch := range m.collectUniqueCharacters(candidates) {
		info.UniqueCharacters = append(info.UniqueCharacters, CharacterInfo{
			Name:  ch.Name,
			Level: ch.Level,
			Class: ch.CharacterClass,
		})
	}
	info.TotalCharacters = len(info.UniqueCharacters)
	return info, nil
}

// Migrate performs the run: backup, character dedup into the vault, campaign
// conversion into slots, then verification. With dryRun it only selects and
// counts. The returned Report always reflects how far the run got; the error
// is non-nil only when the run aborted outright.
func (m *Manager) Migrate(dryRun bool) (*Report, error) {
	report := &Report{Status: StatusPending, DryRun: dryRun}

	ok, err := m.ShouldMigrate()
	if err != nil {
		report.Status = StatusFailed
		report.Message = err.Error()
		return report, err
	}
	if !ok {
		report.Status = StatusFailed
		report.Message = "no migration needed or new system already has data"
		return report, nil
	}

	candidates, err := m.collectCandidates()
	if err != nil {
		report.Status = StatusFailed
		report.Message = err.Error()
		return report, err
	}
	if len(candidates) > model.SlotCount {
		candidates = candidates[:model.SlotCount]
	}
	if len(candidates) == 0 {
		report.Status = StatusFailed
		report.Message = "no valid campaigns found to migrate"
		return report, nil
	}

	characters := m.collectUniqueCharacters(candidates)

	if dryRun {
		report.Message = fmt.Sprintf("dry run: would migrate %d campaigns and %d characters",
			len(candidates), len(characters))
		return report, nil
	}

	if err := m.createBackup(); err != nil {
		report.Status = StatusFailed
		report.Message = err.Error()
		return report, err
	}
	report.Status = StatusBackedUp
	m.logger.Info("legacy campaigns backed up", zap.String("backup_dir", m.backupDir))

	vlt, err := vault.NewV2(m.vaultPath, m.logger)
	if err != nil {
		report.Status = StatusFailed
		report.Message = err.Error()
		return report, err
	}
	for _, ch := range characters {
		if _, err := vlt.Add(ch, ""); err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("failed to migrate character %s: %v", ch.Name, err))
			continue
		}
		report.CharactersMigrated++
	}
	report.Status = StatusCharactersMigrated

	slots, err := save.NewSlotManager(m.savesDir, m.logger)
	if err != nil {
		report.Status = StatusFailed
		report.Message = err.Error()
		return report, err
	}
	for i, c := range candidates {
		if err := m.migrateCampaign(slots, i+1, c); err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("failed to migrate campaign %s: %v", c.campaign.Name, err))
			continue
		}
		report.CampaignsMigrated++
		report.SlotsUsed++
	}
	report.Status = StatusSlotsMigrated

	if err := m.verify(report); err != nil {
		report.Status = StatusFailed
		report.Message = fmt.Sprintf("migration verification failed: %v", err)
		return report, nil
	}
	report.Status = StatusVerified
	report.Message = fmt.Sprintf("migrated %d campaigns and %d characters",
		report.CampaignsMigrated, report.CharactersMigrated)
	return report, nil
}

func (m *Manager) migrateCampaign(slots *save.SlotManager, slotNumber int, c candidate) error {
	var doc struct {
		Party []*model.Character         `json:"party"`
		State struct {
			DungeonName        string                     `json:"dungeon_name"`
			CurrentRoomID      string                     `json:"current_room_id"`
			DungeonState       map[string]model.RoomState `json:"dungeon_state"`
			InCombat           bool                       `json:"in_combat"`
			ActionHistory      []string                   `json:"action_history"`
			LastEntryDirection string                     `json:"last_entry_direction"`
		} `json:"game_state"`
	}
	if err := storage.ReadJSON(c.savePath, &doc); err != nil {
		return err
	}

	progress := "Unknown"
	if c.campaign.CurrentRoom != "" {
		progress = "Room " + c.campaign.CurrentRoom
	}

	gs := &model.GameState{
		Party:              doc.Party,
		DungeonName:        doc.State.DungeonName,
		CurrentRoomID:      doc.State.CurrentRoomID,
		DungeonState:       doc.State.DungeonState,
		InCombat:           doc.State.InCombat,
		ActionHistory:      doc.State.ActionHistory,
		LastEntryDirection: doc.State.LastEntryDirection,
	}

	slot := &model.SaveSlot{
		SlotNumber:        slotNumber,
		CreatedAt:         c.campaign.CreatedAt,
		LastPlayed:        c.campaign.LastPlayed,
		PlaytimeSeconds:   c.campaign.PlaytimeSeconds,
		AdventureName:     c.campaign.CurrentDungeon,
		AdventureProgress: progress,
		PartyComposition:  gs.PartyNames(),
		PartyLevels:       gs.PartyLevels(),
		SaveVersion:       model.SlotVersion,
	}
	_, err := slots.ImportSlot(slotNumber, slot, gs)
	return err
}

// createBackup copies the whole legacy root to the backup path, replacing
// any previous backup. The copy is not resumable: a failure mid-copy leaves
// a partial backup behind.
func (m *Manager) createBackup() error {
	if _, err := os.Stat(m.legacyDir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(m.backupDir); err != nil {
		return fmt.Errorf("migration: remove old backup %s: %w", m.backupDir, err)
	}
	return copyTree(m.legacyDir, m.backupDir)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("migration: open %s: %w", path, err)
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("migration: create %s: %w", target, err)
		}
		defer out.Close()
		if _, err := io.Copy(out, in); err != nil {
			return fmt.Errorf("migration: copy %s: %w", target, err)
		}
		return out.Close()
	})
}

func (m *Manager) verify(report *Report) error {
	if report.SlotsUsed == 0 {
		return fmt.Errorf("no save slots were created")
	}
	if report.CharactersMigrated == 0 {
		return fmt.Errorf("no characters were migrated to vault")
	}
	if _, err := os.Stat(m.savesDir); err != nil {
		return fmt.Errorf("new saves directory was not created")
	}
	if _, err := os.Stat(m.vaultPath); err != nil {
		return fmt.Errorf("new vault file was not created")
	}
	if _, err := os.Stat(m.backupDir); err != nil {
		return fmt.Errorf("backup was not created")
	}
	return nil
}
