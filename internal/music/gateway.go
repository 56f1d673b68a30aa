package music

import (
	"github.com/bwmarrin/discordgo"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

// Gateway is the slice of the chat platform the session lifecycle needs.
// internal/bot implements it over a live Discord session; tests supply fakes.
type Gateway interface {
	// Send posts a plain message to a text channel. Delivery failures are the
	// implementation's problem; lifecycle code never depends on them.
	Send(channelID, content string)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed)

	JoinVoice(guildID, channelID string) error
	DisconnectVoice(guildID string) error

	// SetVoiceStatus sets the voice channel's status label.
	SetVoiceStatus(channelID, status string) error
	// ClearVoiceStatusIf clears the label only when it still holds the value
	// this bot last wrote, so a label set by someone else is left alone.
	ClearVoiceStatusIf(channelID, expected string) error

	// HumanCount counts the non-bot members of a voice channel.
	HumanCount(guildID, channelID string) int
	// OccupantCount counts every member of a voice channel, bots included.
	OccupantCount(guildID, channelID string) int
	// UserVoiceChannel returns the channel the user is connected to, or ""
	// when they are not in voice.
	UserVoiceChannel(guildID, userID string) string
}

// Player is what a session needs from its audio node player. Satisfied by
// *lavalink.Player.
type Player interface {
	Play(track lavalink.Track, volume int) error
	Skip(force bool) error
	Pause(paused bool) error
	Seek(positionMS int64) error
	SetVolume(volume int) error
	SetFilters(filters lavalink.Filters) error

	Queue() *lavalink.Queue
	AutoQueue() *lavalink.Queue

	Playing() bool
	Paused() bool
	Current() *lavalink.Track
	Position() int64
	Volume() int

	AutoplayMode() lavalink.AutoPlayMode
	SetAutoplayMode(mode lavalink.AutoPlayMode)

	Destroy() error
}

// PlayerFactory hands out the player for a guild, creating it if needed.
type PlayerFactory func(guildID string) Player
