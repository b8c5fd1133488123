package watcher

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"queuebot/models"
	"queuebot/queue"
)

// MessageSender is the slice of discordgo.Session the announcer needs.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts short queue-change announcements to one Discord
// channel. Send failures are logged and dropped; the queue never waits
// on Discord.
type DiscordAnnouncer struct {
	session   MessageSender
	channelID string
}

var _ queue.ChangesWatcher = (*DiscordAnnouncer)(nil)

func NewDiscordAnnouncer(session MessageSender, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session, channelID: channelID}
}

// NewDiscordSession builds a minimal session for announcements.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}
	return session, nil
}

func (a *DiscordAnnouncer) announce(guildID, content string) {
	if _, err := a.session.ChannelMessageSend(a.channelID, content); err != nil {
		log.Warnf("Failed to announce queue change for guild %s: %v", guildID, err)
	}
}

func trackLabel(t *models.Track) string {
	if t == nil {
		return "unknown track"
	}
	if t.Info.Title != "" {
		return t.Info.Title
	}
	if t.Info.URI != "" {
		return t.Info.URI
	}
	return "unknown track"
}

func (a *DiscordAnnouncer) Shuffled(guildID string, oldQueue, newQueue *models.StoredQueue) {
	a.announce(guildID, fmt.Sprintf("shuffled the queue (%d tracks)", len(newQueue.Tracks)))
}

func (a *DiscordAnnouncer) TracksAdd(guildID string, tracks []*models.Track, position int, oldQueue, newQueue *models.StoredQueue) {
	if len(tracks) == 1 {
		a.announce(guildID, "queued **"+trackLabel(tracks[0])+"**")
		return
	}
	a.announce(guildID, fmt.Sprintf("queued %d tracks", len(tracks)))
}

func (a *DiscordAnnouncer) TracksRemoved(guildID string, tracks []*models.Track, positions []int, oldQueue, newQueue *models.StoredQueue) {
	if len(tracks) == 1 {
		a.announce(guildID, "removed **"+trackLabel(tracks[0])+"** from the queue")
		return
	}
	a.announce(guildID, fmt.Sprintf("removed %d tracks from the queue", len(tracks)))
}

func (a *DiscordAnnouncer) Seeked(guildID string, positionMs int64, oldQueue, newQueue *models.StoredQueue) {
	a.announce(guildID, fmt.Sprintf("seeked to %ds", positionMs/1000))
}

func (a *DiscordAnnouncer) VolumeChanged(guildID string, volume int, oldQueue, newQueue *models.StoredQueue) {
	a.announce(guildID, fmt.Sprintf("volume set to %d", volume))
}

func (a *DiscordAnnouncer) PauseToggled(guildID string, paused bool, oldQueue, newQueue *models.StoredQueue) {
	if paused {
		a.announce(guildID, "playback paused")
		return
	}
	a.announce(guildID, "playback resumed")
}

func (a *DiscordAnnouncer) RepeatChanged(guildID string, mode queue.RepeatMode, oldQueue, newQueue *models.StoredQueue) {
	a.announce(guildID, "repeat mode set to "+string(mode))
}
