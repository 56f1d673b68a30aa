package listeners

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	queueview "github.com/fhsourav/sorcery/internal/features/music/queueview"
)

func RouteMusicComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Type != discordgo.InteractionMessageComponent {
		return false
	}

	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, "music_") {
		return false
	}

	if page, perPage, ok := queueview.ParseQueuePageCustomID(customID); ok {
		handleQueuePage(s, i, page, perPage)
		return true
	}
	return false
}

func handleQueuePage(s *discordgo.Session, i *discordgo.InteractionCreate, page, perPage int) {
	if registry == nil || i.GuildID == "" {
		return
	}

	sess := registry.Get(i.GuildID)
	if sess == nil {
		return
	}

	tracks := sess.Player().Queue().Tracks()
	components, _ := queueview.BuildQueueComponents(tracks, page, perPage)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      discordgo.MessageFlagsIsComponentsV2,
		},
	})
	if err != nil {
		logrus.Warnf("queue page update failed: %v", err)
	}
}
