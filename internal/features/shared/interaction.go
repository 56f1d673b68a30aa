package shared

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var accentColor = 0x5865F2

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, heading, content string, ephemeral bool) {
	if s == nil || i == nil {
		return
	}

	divider := true
	spacing := discordgo.SeparatorSpacingSizeSmall

	components := []discordgo.MessageComponent{
		discordgo.Container{
			AccentColor: &accentColor,
			Components: []discordgo.MessageComponent{
				discordgo.TextDisplay{Content: heading},
				discordgo.Separator{Divider: &divider, Spacing: &spacing},
				discordgo.TextDisplay{Content: content},
			},
		},
	}

	flags := discordgo.MessageFlagsIsComponentsV2
	if ephemeral {
		flags |= discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      flags,
		},
	})
	if err != nil {
		logrus.Warnf("failed to respond to interaction: %v", err)
	}
}

// Respond posts a visible confirmation in the invoking channel.
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	respond(s, i, "Music", content, false)
}

// RespondEphemeral posts a reply only the invoker can see. Used for every
// guard rejection and error.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	respond(s, i, "Notice", content, true)
}

func GetOptionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func GetOptionInt(options []*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	for _, opt := range options {
		if opt.Name == name {
			return int(opt.IntValue())
		}
	}
	return 0
}

func GetOptionInt64(options []*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	for _, opt := range options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return 0
}

func GetOptionFloat(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (float64, bool) {
	for _, opt := range options {
		if opt.Name == name {
			return opt.FloatValue(), true
		}
	}
	return 0, false
}

func GetOptionBool(options []*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	for _, opt := range options {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return false
}

func HasOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	for _, opt := range options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

func GetInteractionUserID(i *discordgo.InteractionCreate) string {
	if i == nil {
		return ""
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
