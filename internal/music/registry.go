package music

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

var ErrUserNotInVoice = errors.New("user is not in a voice channel")

// SettingsSource supplies a guild's stored playback defaults. A nil source is
// fine; sessions then start from the configured defaults.
type SettingsSource interface {
	Defaults(guildID string) (volume int, autoplayMode string, ok bool)
}

type RegistryConfig struct {
	NewPlayer     PlayerFactory
	Gateway       Gateway
	Cache         *SearchCache
	Settings      SettingsSource
	GracePeriod   time.Duration
	DefaultVolume int
	Logger        *logrus.Logger
}

// Registry holds the one session each guild may have and owns their teardown.
type Registry struct {
	newPlayer     PlayerFactory
	gw            Gateway
	cache         *SearchCache
	settings      SettingsSource
	gracePeriod   time.Duration
	defaultVolume int
	log           *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = 120 * time.Second
	}

	return &Registry{
		newPlayer:     cfg.NewPlayer,
		gw:            cfg.Gateway,
		cache:         cfg.Cache,
		settings:      cfg.Settings,
		gracePeriod:   grace,
		defaultVolume: cfg.DefaultVolume,
		log:           logger,
		sessions:      make(map[string]*Session),
	}
}

func (r *Registry) Gateway() Gateway           { return r.gw }
func (r *Registry) Cache() *SearchCache        { return r.cache }
func (r *Registry) GracePeriod() time.Duration { return r.gracePeriod }

func (r *Registry) Get(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[guildID]
}

// CreateOrGet returns the guild's session, connecting a new one to the given
// voice channel if none exists. The session slot is reserved before the voice
// join so two racing callers share a single connect; created reports whether
// this call built the session.
func (r *Registry) CreateOrGet(guildID, voiceChannelID string) (session *Session, created bool, err error) {
	r.mu.Lock()
	if s, ok := r.sessions[guildID]; ok {
		r.mu.Unlock()
		return s, false, nil
	}
	r.mu.Unlock()

	// Settings lookup may hit the database; keep it outside the lock.
	volume := r.defaultVolume
	autoplay := lavalink.AutoPlayPartial
	if r.settings != nil {
		if v, mode, ok := r.settings.Defaults(guildID); ok {
			volume = v
			if mode != "" {
				autoplay = lavalink.AutoPlayMode(mode)
			}
		}
	}

	r.mu.Lock()
	if s, ok := r.sessions[guildID]; ok {
		r.mu.Unlock()
		return s, false, nil
	}

	player := r.newPlayer(guildID)
	player.SetAutoplayMode(autoplay)

	s := newSession(guildID, player, volume)
	s.SetVoiceChannel(voiceChannelID)
	r.sessions[guildID] = s
	r.mu.Unlock()

	if err := r.gw.JoinVoice(guildID, voiceChannelID); err != nil {
		r.mu.Lock()
		delete(r.sessions, guildID)
		r.mu.Unlock()
		_ = player.Destroy()
		return nil, false, fmt.Errorf("failed to join voice channel: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"guild_id":      guildID,
		"voice_channel": voiceChannelID,
	}).Info("player session created")

	return s, true, nil
}

// Teardown removes and dismantles the guild's session. It reports whether
// this call actually removed a session, so callers notify exactly once; a
// second invocation is a no-op.
func (r *Registry) Teardown(guildID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	if ok {
		delete(r.sessions, guildID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	s.cancelTimerQuietly()
	if r.cache != nil {
		r.cache.ClearGuild(guildID)
	}
	s.ClearOwnedStatus(r.gw)

	if err := s.player.Destroy(); err != nil {
		r.log.WithField("guild_id", guildID).Warnf("failed to destroy player: %v", err)
	}
	if err := r.gw.DisconnectVoice(guildID); err != nil {
		r.log.WithField("guild_id", guildID).Warnf("failed to disconnect voice: %v", err)
	}

	r.log.WithField("guild_id", guildID).Info("player session torn down")
	return true
}

// Shutdown tears down every session. Called on graceful process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	guildIDs := make([]string, 0, len(r.sessions))
	for guildID := range r.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	r.mu.Unlock()

	for _, guildID := range guildIDs {
		r.Teardown(guildID)
	}
}
