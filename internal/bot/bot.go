package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/config"
	"github.com/fhsourav/sorcery/internal/database"
	commands "github.com/fhsourav/sorcery/internal/features"
	musiclisteners "github.com/fhsourav/sorcery/internal/features/music/listeners"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
	"github.com/fhsourav/sorcery/internal/redis"
)

type Bot struct {
	config  *config.Config
	log     *logrus.Logger
	session *discordgo.Session

	node      *lavalink.Node
	registry  *music.Registry
	monitor   *music.Monitor
	guildRepo *database.GuildRepository

	started      bool
	presenceStop chan struct{}
}

func New(cfg *config.Config, log *logrus.Logger) (*Bot, error) {
	if log == nil {
		log = logrus.New()
	}

	dbConfig := &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	if err := database.Initalize(dbConfig); err != nil {
		log.Warnf("database initialization failed, continuing without persistence: %v", err)
	}

	redisConfig := redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	if _, err := redis.Init(redisConfig); err != nil {
		log.Warnf("redis initialization failed, falling back to in-memory search cache: %v", err)
	}

	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	grace := time.Duration(cfg.InactivityTimeout) * time.Second

	node := lavalink.New(lavalink.NodeConfig{
		Address:         cfg.LavalinkAddress,
		Password:        cfg.LavalinkPassword,
		UserID:          cfg.ApplicationID,
		InactiveTimeout: grace,
		Logger:          log,
	})

	gateway := NewGateway(s, log)
	cache := music.NewSearchCache(redis.Client(), time.Duration(cfg.SearchCacheTTL)*time.Second, log)
	guildRepo := database.NewGuildRepository()

	registry := music.NewRegistry(music.RegistryConfig{
		NewPlayer:     func(guildID string) music.Player { return node.Player(guildID) },
		Gateway:       gateway,
		Cache:         cache,
		Settings:      guildRepo,
		GracePeriod:   grace,
		DefaultVolume: cfg.DefaultVolume,
		Logger:        log,
	})

	node.SetListener(music.NewEventHandlers(registry, log))

	b := &Bot{
		config:    cfg,
		log:       log,
		session:   s,
		node:      node,
		registry:  registry,
		monitor:   music.NewMonitor(registry),
		guildRepo: guildRepo,
	}

	commands.Configure(commands.Dependencies{
		Registry:  registry,
		Node:      node,
		GuildRepo: guildRepo,
		Logger:    log,
	})
	musiclisteners.Configure(registry, b.monitor, node)

	return b, nil
}

func (b *Bot) Registry() *music.Registry { return b.registry }

func (b *Bot) Start() error {
	if b.started {
		return nil
	}

	b.registerHandlers(b.session)
	commands.AddHandlers(b.session)

	if _, err := commands.RegisterCommands(b.session, b.config.ApplicationID, b.config.GuildID); err != nil {
		b.log.Warnf("failed to register slash commands: %v", err)
	}

	if err := b.session.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := b.node.Open(ctx); err != nil {
		_ = b.session.Close()
		return err
	}

	b.startPresenceUpdater()
	b.started = true
	b.log.Info("bot session opened")
	return nil
}

func (b *Bot) registerHandlers(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if s.State != nil && s.State.User != nil {
			b.log.Infof("bot ready as %s", s.State.User.Username)
		} else {
			b.log.Info("bot ready")
		}
		b.updatePresence()
	})

	s.AddHandler(func(s *discordgo.Session, e *discordgo.VoiceServerUpdate) {
		musiclisteners.HandleVoiceServerUpdate(s, e)
	})

	s.AddHandler(func(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
		musiclisteners.HandleVoiceStateUpdate(s, e)
	})

	s.AddHandler(func(s *discordgo.Session, e *discordgo.GuildDelete) {
		// Unavailable means an outage, not a removal; the guild comes back.
		if e.Guild == nil || e.Unavailable {
			return
		}
		b.registry.Teardown(e.ID)
		if err := b.guildRepo.DeleteSettings(e.ID); err != nil {
			b.log.Warnf("failed to delete settings for guild %s: %v", e.ID, err)
		}
		b.log.WithField("guild_id", e.ID).Info("removed from guild, settings dropped")
	})
}

func (b *Bot) Stop() error {
	if !b.started {
		return nil
	}

	b.started = false
	b.stopPresenceUpdater()

	// Every active voice session gets a proper disconnect before the
	// gateway connection goes away.
	b.registry.Shutdown()
	b.node.Close()

	if err := b.session.Close(); err != nil {
		return err
	}

	if err := database.Close(); err != nil {
		b.log.Warnf("failed to close database: %v", err)
	}

	if err := redis.Close(); err != nil {
		b.log.Warnf("failed to close redis: %v", err)
	}

	b.log.Info("bot session closed")
	return nil
}
