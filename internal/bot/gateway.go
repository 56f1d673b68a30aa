package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/music"
)

// Gateway adapts a live discordgo session to the narrow surface the session
// lifecycle needs. It remembers which voice-status labels this process set,
// since Discord offers no way to read a label back.
type Gateway struct {
	session *discordgo.Session
	log     *logrus.Logger

	mu       sync.Mutex
	statuses map[string]string
}

var _ music.Gateway = (*Gateway)(nil)

func NewGateway(session *discordgo.Session, log *logrus.Logger) *Gateway {
	if log == nil {
		log = logrus.New()
	}
	return &Gateway{
		session:  session,
		log:      log,
		statuses: make(map[string]string),
	}
}

func (g *Gateway) Send(channelID, content string) {
	if _, err := g.session.ChannelMessageSend(channelID, content); err != nil {
		g.log.Warnf("failed to send message to channel %s: %v", channelID, err)
	}
}

func (g *Gateway) SendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := g.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		g.log.Warnf("failed to send embed to channel %s: %v", channelID, err)
	}
}

func (g *Gateway) JoinVoice(guildID, channelID string) error {
	return g.session.ChannelVoiceJoinManual(guildID, channelID, false, true)
}

func (g *Gateway) DisconnectVoice(guildID string) error {
	return g.session.ChannelVoiceJoinManual(guildID, "", false, true)
}

// SetVoiceStatus writes the voice channel's status label. Not covered by
// discordgo's typed API yet, so it goes through the raw REST client.
func (g *Gateway) SetVoiceStatus(channelID, status string) error {
	payload := struct {
		Status string `json:"status"`
	}{Status: status}

	endpoint := discordgo.EndpointChannel(channelID) + "/voice-status"
	if _, err := g.session.RequestWithBucketID("PUT", endpoint, payload, endpoint); err != nil {
		return err
	}

	g.mu.Lock()
	if status == "" {
		delete(g.statuses, channelID)
	} else {
		g.statuses[channelID] = status
	}
	g.mu.Unlock()
	return nil
}

// ClearVoiceStatusIf clears the label only when this process last set exactly
// the expected value, so labels written by anything else are left alone.
func (g *Gateway) ClearVoiceStatusIf(channelID, expected string) error {
	g.mu.Lock()
	current, ok := g.statuses[channelID]
	g.mu.Unlock()

	if !ok || current != expected {
		return nil
	}
	return g.SetVoiceStatus(channelID, "")
}

func (g *Gateway) HumanCount(guildID, channelID string) int {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return 0
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		member, err := g.session.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil || member.User.Bot {
			continue
		}
		count++
	}
	return count
}

func (g *Gateway) OccupantCount(guildID, channelID string) int {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return 0
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			count++
		}
	}
	return count
}

func (g *Gateway) UserVoiceChannel(guildID, userID string) string {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return ""
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}
