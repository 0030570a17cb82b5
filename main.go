package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mkellner/dndterminal/config"
	"github.com/mkellner/dndterminal/migration"
	"github.com/mkellner/dndterminal/save"
	"github.com/mkellner/dndterminal/vault"
)

const usage = `usage: dndterminal [-config path] <command>

commands:
  info        show what a migration run would touch
  migrate     migrate legacy campaigns into the slot store (-dry-run to preview)
  slots       list the ten save slots
  campaigns   list legacy campaigns
  characters  list vault characters
  legacy-characters  list characters in the legacy vault
`

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Logging.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	cmd := flag.Arg(0)
	switch cmd {
	case "info":
		runInfo(cfg, logger)
	case "migrate":
		dryRun := false
		for _, a := range flag.Args()[1:] {
			if a == "-dry-run" || a == "--dry-run" {
				dryRun = true
			}
		}
		runMigrate(cfg, logger, dryRun)
	case "slots":
		runSlots(cfg, logger)
	case "campaigns":
		runCampaigns(cfg, logger)
	case "characters":
		runCharacters(cfg, logger)
	case "legacy-characters":
		runLegacyCharacters(cfg, logger)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func newMigrationManager(cfg *config.Config, logger *zap.Logger) *migration.Manager {
	return migration.NewManager(
		cfg.Storage.LegacyCampaignsDir,
		cfg.Storage.SavesDir,
		cfg.Storage.VaultPath,
		cfg.Storage.BackupDir,
		logger,
	)
}

func runInfo(cfg *config.Config, logger *zap.Logger) {
	mgr := newMigrationManager(cfg, logger)
	info, err := mgr.Info()
	if err != nil {
		log.Fatalf("info: %v", err)
	}

	fmt.Printf("Campaigns found: %d (migratable: %d)\n", info.TotalCampaigns, info.MigratableCampaigns)
	for _, c := range info.Campaigns {
		fmt.Printf("  %-24s last played %s, playtime %s, %d saves\n",
			c.Name, c.LastPlayed.Format("2006-01-02"), c.Playtime, c.SaveCount)
	}
	fmt.Printf("Unique characters: %d\n", info.TotalCharacters)
	for _, ch := range info.UniqueCharacters {
		fmt.Printf("  %-24s level %d %s\n", ch.Name, ch.Level, ch.Class)
	}
}

func runMigrate(cfg *config.Config, logger *zap.Logger, dryRun bool) {
	mgr := newMigrationManager(cfg, logger)
	report, err := mgr.Migrate(dryRun)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}

	fmt.Printf("Status: %s\n", report.Status)
	if report.Message != "" {
		fmt.Println(report.Message)
	}
	if !dryRun {
		fmt.Printf("Campaigns migrated: %d, characters migrated: %d, slots used: %d\n",
			report.CampaignsMigrated, report.CharactersMigrated, report.SlotsUsed)
	}
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if report.Status == migration.StatusFailed {
		os.Exit(1)
	}
}

func runSlots(cfg *config.Config, logger *zap.Logger) {
	slots, err := save.NewSlotManager(cfg.Storage.SavesDir, logger)
	if err != nil {
		log.Fatalf("slots: %v", err)
	}
	all, err := slots.ListSlots()
	if err != nil {
		log.Fatalf("slots: %v", err)
	}
	now := time.Now()
	for _, s := range all {
		fmt.Printf("%2d. %s", s.SlotNumber, s.DisplayName())
		if !s.IsEmpty() {
			fmt.Printf("  (last played %s)", s.LastPlayedDisplay(now))
		}
		fmt.Println()
	}
}

func runCampaigns(cfg *config.Config, logger *zap.Logger) {
	store, err := save.NewCampaignStore(cfg.Storage.LegacyCampaignsDir, logger)
	if err != nil {
		log.Fatalf("campaigns: %v", err)
	}
	campaigns, skipped, err := store.ListCampaigns()
	if err != nil {
		log.Fatalf("campaigns: %v", err)
	}
	now := time.Now()
	for _, c := range campaigns {
		fmt.Printf("%-24s %s in %s, last played %s\n",
			c.Name, c.PlaytimeDisplay(), c.CurrentDungeon, c.LastPlayedDisplay(now))
	}
	for _, s := range skipped {
		fmt.Printf("skipped %s: %v\n", s.ID, s.Err)
	}
}

func runCharacters(cfg *config.Config, logger *zap.Logger) {
	vlt, err := vault.NewV2(cfg.Storage.VaultPath, logger)
	if err != nil {
		log.Fatalf("characters: %v", err)
	}
	summaries, skipped, err := vlt.List()
	if err != nil {
		log.Fatalf("characters: %v", err)
	}
	for _, s := range summaries {
		fmt.Printf("%-24s level %d %s %s, used %d times\n",
			s.Name, s.Level, s.Race, s.Class, s.TimesUsed)
	}
	for _, s := range skipped {
		fmt.Printf("skipped %s: %v\n", s.ID, s.Err)
	}
}

func runLegacyCharacters(cfg *config.Config, logger *zap.Logger) {
	vlt, err := vault.New(cfg.Storage.LegacyVaultDir, logger)
	if err != nil {
		log.Fatalf("legacy-characters: %v", err)
	}
	summaries, skipped, err := vlt.List(true)
	if err != nil {
		log.Fatalf("legacy-characters: %v", err)
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%-24s level %d %s %s [%s]", s.Name, s.Level, s.Race, s.Class, s.State)
		if s.Campaign != "" {
			line += " in " + s.Campaign
		}
		fmt.Println(line)
	}
	for _, s := range skipped {
		fmt.Printf("skipped %s: %v\n", s.ID, s.Err)
	}
}
