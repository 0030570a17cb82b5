package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/save"
	"github.com/mkellner/dndterminal/storage"
	"github.com/mkellner/dndterminal/testutil"
	"github.com/mkellner/dndterminal/vault"
)

type fixture struct {
	mgr       *Manager
	legacyDir string
	savesDir  string
	vaultPath string
	backupDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		legacyDir: filepath.Join(root, "campaigns"),
		savesDir:  filepath.Join(root, "saves"),
		vaultPath: filepath.Join(root, "character_vault.json"),
		backupDir: filepath.Join(root, "backup_pre_migration"),
	}
	f.mgr = NewManager(f.legacyDir, f.savesDir, f.vaultPath, f.backupDir, testutil.Logger(t))
	return f
}

// addLegacyCampaign writes a legacy campaign directory with one auto-save
// holding the given party.
func (f *fixture) addLegacyCampaign(t *testing.T, name string, lastPlayed time.Time, party ...*model.Character) {
	t.Helper()
	dir := filepath.Join(f.legacyDir, save.SanitizeCampaignName(name))

	campaign := model.NewCampaign(name, lastPlayed.Add(-24*time.Hour))
	campaign.LastPlayed = lastPlayed
	campaign.PlaytimeSeconds = 3600
	campaign.CurrentDungeon = "lost_mines"
	campaign.CurrentRoom = "4"
	require.NoError(t, storage.WriteJSON(filepath.Join(dir, "campaign.json"), campaign))

	doc := map[string]any{
		"version":  model.CampaignVersion,
		"metadata": map[string]any{"created": lastPlayed, "last_played": lastPlayed, "auto_save": true},
		"party":    party,
		"game_state": map[string]any{
			"dungeon_name":    "lost_mines",
			"current_room_id": "4",
		},
	}
	require.NoError(t, storage.WriteJSON(filepath.Join(dir, "saves", "save_auto.json"), doc))
}

func TestShouldMigrate(t *testing.T) {
	f := newFixture(t)

	ok, err := f.mgr.ShouldMigrate()
	require.NoError(t, err)
	assert.False(t, ok, "nothing to migrate without a legacy store")

	f.addLegacyCampaign(t, "Lost Mines", time.Now(), testutil.Character("Aria", "fighter", 3))
	ok, err = f.mgr.ShouldMigrate()
	require.NoError(t, err)
	assert.True(t, ok)

	// A populated slot store blocks re-runs.
	slots, err := save.NewSlotManager(f.savesDir, testutil.Logger(t))
	require.NoError(t, err)
	gs := testutil.GameState("lost_mines", "1", testutil.Character("Aria", "fighter", 3))
	_, err = slots.SaveGame(1, gs, 10)
	require.NoError(t, err)

	ok, err = f.mgr.ShouldMigrate()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateEndToEnd(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC().Truncate(time.Second)
	f.addLegacyCampaign(t, "Lost Mines", now,
		testutil.Character("Aria", "fighter", 3),
		testutil.Character("Zephyr", "wizard", 2))
	f.addLegacyCampaign(t, "Sunless Citadel", now.Add(-time.Hour),
		testutil.Character("Korgan", "cleric", 4))

	report, err := f.mgr.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, report.Status)
	assert.Equal(t, 2, report.CampaignsMigrated)
	assert.Equal(t, 3, report.CharactersMigrated)
	assert.Equal(t, 2, report.SlotsUsed)
	assert.Empty(t, report.Warnings)

	// Most recently played campaign lands in slot 1, with its legacy
	// timestamps and raw dungeon id carried over.
	slots, err := save.NewSlotManager(f.savesDir, testutil.Logger(t))
	require.NoError(t, err)
	s1, err := slots.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, "lost_mines", s1.AdventureName)
	assert.Equal(t, "Room 4", s1.AdventureProgress)
	assert.Equal(t, 3600, s1.PlaytimeSeconds)
	assert.Equal(t, []string{"Aria", "Zephyr"}, s1.PartyComposition)

	s2, err := slots.GetSlot(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Korgan"}, s2.PartyComposition)

	// Slots load back as playable game states.
	gs, err := slots.LoadGame(1)
	require.NoError(t, err)
	assert.Equal(t, "lost_mines", gs.DungeonName)
	require.Len(t, gs.Party, 2)

	// Characters land in the vault.
	vlt, err := vault.NewV2(f.vaultPath, testutil.Logger(t))
	require.NoError(t, err)
	summaries, skipped, err := vlt.List()
	require.NoError(t, err)
	require.Empty(t, skipped)
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Aria", "Zephyr", "Korgan"}, names)

	// The legacy store was backed up.
	_, err = os.Stat(filepath.Join(f.backupDir, "lost_mines", "campaign.json"))
	assert.NoError(t, err)

	// A second run refuses to touch the populated store.
	report, err = f.mgr.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Contains(t, report.Message, "no migration needed")
}

func TestMigrateDeduplicatesCharacters(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	// Aria appears in both campaigns at different levels.
	f.addLegacyCampaign(t, "Newer", now, testutil.Character("Aria", "fighter", 2))
	f.addLegacyCampaign(t, "Older", now.Add(-time.Hour), testutil.Character("Aria", "fighter", 5))

	info, err := f.mgr.Info()
	require.NoError(t, err)
	require.Len(t, info.UniqueCharacters, 1)
	assert.Equal(t, 5, info.UniqueCharacters[0].Level, "highest level wins")

	report, err := f.mgr.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, report.Status)
	assert.Equal(t, 1, report.CharactersMigrated)
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.addLegacyCampaign(t, "Lost Mines", time.Now(), testutil.Character("Aria", "fighter", 3))

	report, err := f.mgr.Migrate(true)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, report.Status)
	assert.True(t, report.DryRun)
	assert.Contains(t, report.Message, "dry run")

	_, err = os.Stat(f.vaultPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(f.backupDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(f.savesDir)
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateSkipsUnreadableCampaigns(t *testing.T) {
	f := newFixture(t)
	f.addLegacyCampaign(t, "Lost Mines", time.Now(), testutil.Character("Aria", "fighter", 3))

	// A corrupt campaign directory is skipped, not fatal.
	corrupt := filepath.Join(f.legacyDir, "corrupt")
	require.NoError(t, os.MkdirAll(corrupt, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, "campaign.json"), []byte("{{{"), 0o644))

	report, err := f.mgr.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, report.Status)
	assert.Equal(t, 1, report.CampaignsMigrated)
}

func TestMigrateNothingToDo(t *testing.T) {
	f := newFixture(t)
	report, err := f.mgr.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Contains(t, report.Message, "no migration needed")
}

func TestInfoCensus(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.addLegacyCampaign(t, "Lost Mines", now,
		testutil.Character("Aria", "fighter", 3),
		testutil.Character("Zephyr", "wizard", 2))

	info, err := f.mgr.Info()
	require.NoError(t, err)
	assert.Equal(t, 1, info.TotalCampaigns)
	assert.Equal(t, 1, info.MigratableCampaigns)
	assert.Equal(t, 2, info.TotalCharacters)
	require.Len(t, info.Campaigns, 1)
	assert.Equal(t, "Lost Mines", info.Campaigns[0].Name)
	assert.Equal(t, 1, info.Campaigns[0].SaveCount)
	assert.Equal(t, "1h", info.Campaigns[0].Playtime)
}

func TestPickSaveFilePrefersAuto(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "save_old.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "save_auto.json"), []byte("{}"), 0o644))

	path, ok := pickSaveFile(dir)
	require.True(t, ok)
	assert.Equal(t, "save_auto.json", filepath.Base(path))

	require.NoError(t, os.Remove(filepath.Join(dir, "save_auto.json")))
	path, ok = pickSaveFile(dir)
	require.True(t, ok)
	assert.Equal(t, "save_old.json", filepath.Base(path))

	_, ok = pickSaveFile(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}
