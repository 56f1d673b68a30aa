package listeners

import (
	"github.com/bwmarrin/discordgo"

	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

var (
	registry *music.Registry
	monitor  *music.Monitor
	node     *lavalink.Node
)

func Configure(r *music.Registry, m *music.Monitor, n *lavalink.Node) {
	registry = r
	monitor = m
	node = n
}

// HandleVoiceServerUpdate forwards Discord's voice server credentials to the
// audio node; without them the node cannot stream into the channel.
func HandleVoiceServerUpdate(s *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	if e == nil || e.GuildID == "" || node == nil {
		return
	}
	if p := node.ExistingPlayer(e.GuildID); p != nil {
		p.OnVoiceServerUpdate(e.Token, e.Endpoint)
	}
}

// HandleVoiceStateUpdate splits voice-state traffic two ways: the bot's own
// updates maintain the node handshake and the session's voice binding, while
// everyone else's movements feed the occupancy monitor.
func HandleVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if s == nil || e == nil || e.GuildID == "" || registry == nil {
		return
	}

	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}

	prevChannelID := ""
	if e.BeforeUpdate != nil {
		prevChannelID = e.BeforeUpdate.ChannelID
	}

	if e.UserID == botID {
		handleOwnVoiceState(e)
		return
	}

	isBot := e.Member != nil && e.Member.User != nil && e.Member.User.Bot
	if monitor != nil {
		monitor.HandleVoiceChange(e.GuildID, e.UserID, isBot, prevChannelID, e.ChannelID)
	}
}

func handleOwnVoiceState(e *discordgo.VoiceStateUpdate) {
	sess := registry.Get(e.GuildID)

	if e.ChannelID == "" {
		// Kicked or disconnected from outside. A teardown the registry
		// already performed finds nothing here and no-ops.
		if sess != nil {
			registry.Teardown(e.GuildID)
		}
		return
	}

	if node != nil {
		if p := node.ExistingPlayer(e.GuildID); p != nil {
			p.OnVoiceStateUpdate(e.SessionID)
		}
	}
	if sess != nil {
		sess.SetVoiceChannel(e.ChannelID)
	}
}
