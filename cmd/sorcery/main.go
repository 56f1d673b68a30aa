package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/config"
	"github.com/fhsourav/sorcery/internal/bot"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.Info("Sorcery - Discord Music Bot")

	cfg, err := config.Load()
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		log.Info("required environment variables:")
		log.Info("  DISCORD_TOKEN          - Discord bot token")
		log.Info("  DISCORD_APPLICATION_ID - Discord application ID")
		log.Info("  LAVALINK_ADDRESS       - audio node base URL, e.g. http://localhost:2333")
		log.Info("optional environment variables:")
		log.Info("  LAVALINK_PASSWORD      - audio node password")
		log.Info("  DISCORD_GUILD_ID       - guild ID for development command registration")
		log.Info("  LOG_LEVEL              - debug, info, warn, error (default: info)")
		log.Info("  DEFAULT_VOLUME         - starting volume 0-200 (default: 30)")
		log.Info("  INACTIVITY_TIMEOUT     - empty-channel grace period in seconds (default: 120)")
		log.Info("  SEARCH_CACHE_TTL       - autocomplete cache lifetime in seconds (default: 120)")
		log.Info("  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE")
		log.Info("  REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB")
		os.Exit(1)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.IsDevelopment() {
		log.Infof("mode: development (guild %s)", cfg.GuildID)
	} else {
		log.Info("mode: production (global commands)")
	}
	log.Infof("audio node: %s", cfg.LavalinkAddress)
	log.Infof("default volume: %d%%, inactivity timeout: %ds", cfg.DefaultVolume, cfg.InactivityTimeout)

	b, err := bot.New(cfg, log)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	log.Info("starting bot...")
	if err := b.Start(); err != nil {
		log.Fatalf("bot error: %v", err)
	}

	log.Info("bot is running, press CTRL+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	if err := b.Stop(); err != nil {
		log.Errorf("failed to stop bot: %v", err)
	}
}
