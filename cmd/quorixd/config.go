package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/BurntSushi/toml"

	"quorix/pkg/voting"
)

// duration lets TOML carry values like "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type settingsConfig struct {
	Mode                    string   `toml:"mode"`
	SupportThresholdPercent float64  `toml:"support_threshold_percent"`
	MinParticipationPercent float64  `toml:"min_participation_percent"`
	MinDuration             duration `toml:"min_duration"`
	MinProposerPower        string   `toml:"min_proposer_power"`
}

type allowlistConfig struct {
	Members []string `toml:"members"`
}

type authzConfig struct {
	SettingsAdmins []string `toml:"settings_admins"`
	MemberAdmins   []string `toml:"member_admins"`
}

// Config is the daemon configuration file.
type Config struct {
	Listen    string          `toml:"listen"`
	LogLevel  string          `toml:"log_level"`
	Settings  settingsConfig  `toml:"settings"`
	Allowlist allowlistConfig `toml:"allowlist"`
	Authz     authzConfig     `toml:"authz"`
}

// DefaultConfig mirrors voting.DefaultSettings with a local listen address.
func DefaultConfig() Config {
	defaults := voting.DefaultSettings()
	return Config{
		Listen:   ":8545",
		LogLevel: "info",
		Settings: settingsConfig{
			Mode:                    defaults.Mode.String(),
			SupportThresholdPercent: defaults.SupportThreshold.Percent(),
			MinParticipationPercent: defaults.MinParticipation.Percent(),
			MinDuration:             duration{defaults.MinDuration},
			MinProposerPower:        "0",
		},
	}
}

// LoadConfig reads the TOML file over the defaults. An empty path keeps the
// defaults as-is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// VotingSettings converts the config section into engine settings.
func (c Config) VotingSettings() (voting.Settings, error) {
	mode, ok := voting.ParseVotingMode(c.Settings.Mode)
	if !ok {
		return voting.Settings{}, fmt.Errorf("unknown voting mode %q", c.Settings.Mode)
	}
	minPower := big.NewInt(0)
	if c.Settings.MinProposerPower != "" {
		if _, ok := minPower.SetString(c.Settings.MinProposerPower, 10); !ok {
			return voting.Settings{}, fmt.Errorf("invalid min_proposer_power %q", c.Settings.MinProposerPower)
		}
	}
	settings := voting.Settings{
		Mode:             mode,
		SupportThreshold: voting.PercentRatioFloat(c.Settings.SupportThresholdPercent),
		MinParticipation: voting.PercentRatioFloat(c.Settings.MinParticipationPercent),
		MinDuration:      c.Settings.MinDuration.Duration,
		MinProposerPower: minPower,
	}
	if err := settings.Validate(); err != nil {
		return voting.Settings{}, err
	}
	return settings, nil
}
