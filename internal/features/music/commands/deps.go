package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/database"
	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

// Package-level wiring, set once at startup before any handler runs.
var (
	registry  *music.Registry
	node      *lavalink.Node
	guildRepo *database.GuildRepository
	log       = logrus.StandardLogger()
)

func Configure(r *music.Registry, n *lavalink.Node, repo *database.GuildRepository, logger *logrus.Logger) {
	registry = r
	node = n
	guildRepo = repo
	if logger != nil {
		log = logger
	}
}

// guard runs the voice authorization gate and answers the rejection itself.
// Callers get a nil session when the command must not proceed.
func guard(s *discordgo.Session, i *discordgo.InteractionCreate, requireEmpty bool) *music.Session {
	if registry == nil {
		shared.RespondEphemeral(s, i, "The music player is not available right now.")
		return nil
	}

	sess, reason := registry.CheckVoice(music.Invocation{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    shared.GetInteractionUserID(i),
	}, requireEmpty)
	if sess == nil {
		shared.RespondEphemeral(s, i, reason)
		return nil
	}
	return sess
}

func requireGuild(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" {
		shared.RespondEphemeral(s, i, "This command can only be used in a server.")
		return false
	}
	return true
}
