package config

import (
	"os"
	"strconv"
)

type ConfigStruct struct {
	Queue   QueueConfig
	Store   StoreConfig
	Discord DiscordConfig
	Options Options
}

type QueueConfig struct {
	MaxPreviousTracks int
}

type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string
	DBPath  string
}

type DiscordConfig struct {
	BotToken          string
	AnnounceChannelID string
}

type Options struct {
	Port     string
	LogLevel string
}

func (d *DiscordConfig) AnnouncerEnabled() bool {
	return d.BotToken != "" && d.AnnounceChannelID != ""
}

func (s *StoreConfig) IsSQLite() bool {
	return s.Backend == "sqlite"
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Queue: QueueConfig{
			MaxPreviousTracks: getMaxPreviousTracks(),
		},
		Store: StoreConfig{
			Backend: getStoreBackend(),
			DBPath:  os.Getenv("DB_PATH"),
		},
		Discord: DiscordConfig{
			BotToken:          os.Getenv("DISCORD_BOT_TOKEN"),
			AnnounceChannelID: os.Getenv("DISCORD_ANNOUNCE_CHANNEL_ID"),
		},
		Options: Options{
			Port:     os.Getenv("PORT"),
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
	}

	Config = config
}

func getMaxPreviousTracks() int {
	maxStr := os.Getenv("MAX_PREVIOUS_TRACKS")
	if maxStr == "" {
		return 25
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 0 {
		return 25
	}
	if max == 0 {
		return -1 // queue.Options treats negative as "keep no history"
	}
	if max > 1000 {
		return 1000 // Cap to keep queue documents a sane size
	}
	return max
}

func getStoreBackend() string {
	backend := os.Getenv("QUEUE_STORE")
	switch backend {
	case "memory", "sqlite":
		return backend
	case "":
		return "memory"
	default:
		return "memory"
	}
}
