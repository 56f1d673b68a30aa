package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

// EventHandlers reacts to node notifications and applies them to the guild's
// session. The node delivers events for a guild one at a time, in playback
// order.
type EventHandlers struct {
	registry *Registry
	log      *logrus.Logger
}

func NewEventHandlers(registry *Registry, log *logrus.Logger) *EventHandlers {
	if log == nil {
		log = logrus.New()
	}
	return &EventHandlers{registry: registry, log: log}
}

var _ lavalink.EventListener = (*EventHandlers)(nil)

func (h *EventHandlers) OnNodeReady(resumed bool, sessionID string) {
	h.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"resumed":    resumed,
	}).Info("audio node ready")
}

func (h *EventHandlers) OnNodeClosed(err error) {
	h.log.Warnf("audio node connection closed: %v", err)
}

func (h *EventHandlers) OnTrackStart(guildID string, track lavalink.Track) {
	s := h.registry.Get(guildID)
	if s == nil {
		return
	}

	s.SetNodeIdle(false)
	s.PublishStatus(h.registry.Gateway(), "Playing "+track.Info.Title)

	if home := s.HomeChannelID(); home != "" {
		h.registry.Gateway().SendEmbed(home, nowPlayingEmbed(track))
	}
}

func (h *EventHandlers) OnTrackEnd(guildID string, track lavalink.Track, reason lavalink.TrackEndReason) {
	s := h.registry.Get(guildID)
	if s == nil {
		return
	}

	s.ClearOwnedStatus(h.registry.Gateway())
	s.SetNodeIdle(true)
}

func (h *EventHandlers) OnTrackStuck(guildID string, track lavalink.Track, thresholdMS int64) {
	h.recoverBySkip(guildID, fmt.Sprintf("Track got stuck, skipping: %s", track.Info.Title))
}

func (h *EventHandlers) OnTrackException(guildID string, track lavalink.Track, message string) {
	h.recoverBySkip(guildID, fmt.Sprintf("Playback error on %s: %s. Skipping.", track.Info.Title, message))
}

// recoverBySkip force-skips the offending track and tells the home channel.
// Errors are logged, never propagated; a broken track must not take the
// handler down with it.
func (h *EventHandlers) recoverBySkip(guildID, message string) {
	s := h.registry.Get(guildID)
	if s == nil {
		return
	}

	if home := s.HomeChannelID(); home != "" {
		h.registry.Gateway().Send(home, message)
	}

	if err := s.Player().Skip(true); err != nil {
		h.log.WithField("guild_id", guildID).Warnf("recovery skip failed: %v", err)
	}
}

// OnPlayerInactive handles the node's own idle detection. Any armed occupancy
// timer is dropped first so the two idle paths cannot both tear down.
func (h *EventHandlers) OnPlayerInactive(guildID string) {
	s := h.registry.Get(guildID)
	if s == nil {
		return
	}

	s.cancelTimerQuietly()

	if home := s.HomeChannelID(); home != "" {
		h.registry.Gateway().Send(home, "Disconnecting due to inactivity.")
	}
	h.registry.Teardown(guildID)
}

func nowPlayingEmbed(track lavalink.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("[%s](%s)\nby %s", track.Info.Title, track.Info.URI, track.Info.Author),
		Color:       0x5865F2,
	}
	if track.Info.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.Info.ArtworkURL}
	}
	if track.UserData.Recommended {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Recommended based on your queue"}
	} else if track.UserData.RequesterID != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Requested by " + track.UserData.RequesterID}
	}
	return embed
}
