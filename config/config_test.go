package config

import "testing"

func TestGetMaxPreviousTracks(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"unset falls back to default", "", 25},
		{"invalid falls back to default", "lots", 25},
		{"negative falls back to default", "-3", 25},
		{"zero disables history", "0", -1},
		{"explicit value", "10", 10},
		{"huge value is capped", "99999", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MAX_PREVIOUS_TRACKS", tt.env)
			if got := getMaxPreviousTracks(); got != tt.want {
				t.Errorf("getMaxPreviousTracks() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetStoreBackend(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"unset defaults to memory", "", "memory"},
		{"memory", "memory", "memory"},
		{"sqlite", "sqlite", "sqlite"},
		{"unknown defaults to memory", "redis", "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QUEUE_STORE", tt.env)
			if got := getStoreBackend(); got != tt.want {
				t.Errorf("getStoreBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("MAX_PREVIOUS_TRACKS", "7")
	t.Setenv("QUEUE_STORE", "sqlite")
	t.Setenv("DB_PATH", "/tmp/q.db")
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DISCORD_ANNOUNCE_CHANNEL_ID", "chan")

	NewConfig()

	if Config.Queue.MaxPreviousTracks != 7 {
		t.Errorf("MaxPreviousTracks = %d, want 7", Config.Queue.MaxPreviousTracks)
	}
	if !Config.Store.IsSQLite() || Config.Store.DBPath != "/tmp/q.db" {
		t.Errorf("store config = %+v, want sqlite at /tmp/q.db", Config.Store)
	}
	if !Config.Discord.AnnouncerEnabled() {
		t.Error("announcer should be enabled with token and channel set")
	}
}

func TestAnnouncerNeedsBothValues(t *testing.T) {
	d := DiscordConfig{BotToken: "token"}
	if d.AnnouncerEnabled() {
		t.Error("token without channel should not enable the announcer")
	}
	d = DiscordConfig{AnnounceChannelID: "chan"}
	if d.AnnouncerEnabled() {
		t.Error("channel without token should not enable the announcer")
	}
}
