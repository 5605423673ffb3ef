package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./channelpulse.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port                 string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	RefreshIntervalHours int    `long:"refresh-interval" env:"REFRESH_INTERVAL_HOURS" default:"6" description:"Hours a successful refresh stays valid (1-168)"`
	MaxVideosPerChannel  int    `long:"max-videos" env:"MAX_VIDEOS_PER_CHANNEL" default:"12" description:"Latest videos tracked per channel (1-100)"`
	InstagramCookieFile  string `long:"instagram-cookie-file" env:"INSTAGRAM_COOKIE_FILE" description:"Path to a Netscape-format Instagram cookies file"`
	SchedulerInterval    int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"900" description:"Auto-refresh scheduler interval in seconds (0 disables)"`
	ChannelsFile         string `long:"channels-file" env:"CHANNELS_FILE" description:"Optional YAML file with channel URLs registered at startup"`
	APIAccessKey         string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36" description:"User agent string for upstream HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		Port:                 raw.Port,
		RefreshIntervalHours: clamp(raw.RefreshIntervalHours, 1, 168),
		MaxVideosPerChannel:  clamp(raw.MaxVideosPerChannel, 1, 100),
		InstagramCookieFile:  raw.InstagramCookieFile,
		SchedulerInterval:    raw.SchedulerInterval,
		ChannelsFile:         raw.ChannelsFile,
		APIAccessKey:         raw.APIAccessKey,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
