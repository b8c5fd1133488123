package main

import (
	"net/http"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "queuebot/config"
	"queuebot/controller"
	"queuebot/database"
	"queuebot/handlers"
	"queuebot/queue"
	appSentry "queuebot/sentry"
	"queuebot/store"
	"queuebot/watcher"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}
	appConfig.NewConfig()

	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"module", "guildID"},
	})
	if level, err := log.ParseLevel(appConfig.Config.Options.LogLevel); err == nil {
		log.SetLevel(level)
	}

	appSentry.Init()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	queueStore, err := buildStore()
	if err != nil {
		return err
	}

	ctrl := controller.NewController(queue.Options{
		MaxPreviousTracks: appConfig.Config.Queue.MaxPreviousTracks,
		Store:             queueStore,
		Watcher:           buildWatcher(),
	})

	router := gin.Default()
	router.Use(appSentry.GetSentryGin())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	handlers.NewManager(ctrl).Register(router)

	port := appConfig.Config.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Infof("Starting server on :%s", port)
	return http.ListenAndServe(":"+port, router)
}

func buildStore() (store.QueueStoreManager, error) {
	if appConfig.Config.Store.IsSQLite() {
		log.Info("Using SQLite queue store")
		return database.New()
	}
	log.Info("Using in-memory queue store")
	return store.NewMemoryStore(), nil
}

// buildWatcher picks the Discord announcer when a bot token and channel
// are configured, otherwise the console watcher.
func buildWatcher() queue.ChangesWatcher {
	discord := appConfig.Config.Discord
	if !discord.AnnouncerEnabled() {
		return watcher.LogWatcher{}
	}

	session, err := watcher.NewDiscordSession(discord.BotToken)
	if err != nil {
		log.Warnf("Falling back to log watcher: %v", err)
		return watcher.LogWatcher{}
	}
	log.Infof("Announcing queue changes to channel %s", discord.AnnounceChannelID)
	return watcher.NewDiscordAnnouncer(session, discord.AnnounceChannelID)
}
