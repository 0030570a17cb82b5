package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type StorageConfig struct {
	// LegacyCampaignsDir is the v1 per-campaign store root.
	LegacyCampaignsDir string `mapstructure:"legacy_campaigns_dir"`
	// SavesDir is the v2 ten-slot store directory.
	SavesDir string `mapstructure:"saves_dir"`
	// VaultPath is the v2 single-file character vault.
	VaultPath string `mapstructure:"vault_path"`
	// LegacyVaultDir is the v1 one-file-per-character vault directory.
	LegacyVaultDir string `mapstructure:"legacy_vault_dir"`
	// BackupDir receives the pre-migration copy of the legacy store.
	BackupDir string `mapstructure:"backup_dir"`
}

type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads config from the given YAML file path. A missing file is fine:
// every key has a home-directory default.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	// Defaults
	v.SetDefault("storage.legacy_campaigns_dir", filepath.Join(home, ".dnd_terminal", "campaigns"))
	v.SetDefault("storage.saves_dir", filepath.Join(home, ".dnd_game", "saves"))
	v.SetDefault("storage.vault_path", filepath.Join(home, ".dnd_game", "character_vault.json"))
	v.SetDefault("storage.legacy_vault_dir", filepath.Join(home, ".dnd_terminal", "characters", "vault"))
	v.SetDefault("storage.backup_dir", filepath.Join(home, ".dnd_terminal", "backup_pre_migration"))
	v.SetDefault("logging.debug", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
