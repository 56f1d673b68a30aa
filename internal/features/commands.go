package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/database"
	musiccmd "github.com/fhsourav/sorcery/internal/features/music/commands"
	musiclisteners "github.com/fhsourav/sorcery/internal/features/music/listeners"
	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

type Dependencies struct {
	Registry  *music.Registry
	Node      *lavalink.Node
	GuildRepo *database.GuildRepository
	Logger    *logrus.Logger
}

func Configure(deps Dependencies) {
	musiccmd.Configure(deps.Registry, deps.Node, deps.GuildRepo, deps.Logger)
}

func minPtr(v float64) *float64 { return &v }

func indexOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    true,
		MinValue:    minPtr(1),
	}
}

var (
	CommandList = []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Search for a track and play it",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "Track name or URL; pick a suggestion",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "source",
					Description: "Where to search",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "YouTube", Value: "ytsearch"},
						{Name: "YouTube Music", Value: "ytmsearch"},
						{Name: "SoundCloud", Value: "scsearch"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "playlist",
					Description: "Queue the whole playlist instead of just the selected track",
					Required:    false,
				},
			},
		},
		{
			Name:        "join",
			Description: "Connect to your voice channel",
		},
		{
			Name:        "disconnect",
			Description: "Disconnect and drop the queue",
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "toggle",
			Description: "Pause or resume playback",
		},
		{
			Name:        "nowplaying",
			Description: "Show the current track",
		},
		{
			Name:        "volume",
			Description: "Show or set the player volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume from 0 to 200",
					Required:    false,
				},
			},
		},
		{
			Name:        "seek",
			Description: "Jump to a position in the current track",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "minutes",
					Description: "Minutes",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seconds",
					Description: "Seconds",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "hours",
					Description: "Hours",
					Required:    false,
				},
			},
		},
		{
			Name:        "rewind",
			Description: "Jump backwards in the current track",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seconds",
					Description: "How far to jump (default 10)",
					Required:    false,
				},
			},
		},
		{
			Name:        "fastforward",
			Description: "Jump forwards in the current track",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seconds",
					Description: "How far to jump (default 10)",
					Required:    false,
				},
			},
		},
		{
			Name:        "replay",
			Description: "Restart the current track",
		},
		{
			Name:        "queue",
			Description: "Show the queued tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Tracks per page",
					Required:    false,
				},
			},
		},
		{
			Name:        "history",
			Description: "Show recently played tracks",
		},
		{
			Name:        "previous",
			Description: "Play a track from the history again",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "index",
					Description: "History position (1 = most recent)",
					Required:    false,
				},
			},
		},
		{
			Name:        "loop",
			Description: "Set the loop mode",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Off, current track, or whole queue",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: "off"},
						{Name: "Current track", Value: "track"},
						{Name: "Whole queue", Value: "queue"},
					},
				},
			},
		},
		{
			Name:        "autoplay",
			Description: "Autoplay mode and recommendation queues",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "mode",
					Description: "Set the autoplay mode",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "mode",
							Description: "Disabled, queue only, or with recommendations",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Disabled", Value: "disabled"},
								{Name: "Queue only", Value: "partial"},
								{Name: "With recommendations", Value: "enabled"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "queue",
					Description: "Show the upcoming recommended tracks",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "history",
					Description: "Show the recommended tracks that already played",
				},
			},
		},
		{
			Name:        "swap",
			Description: "Swap two tracks in the queue",
			Options: []*discordgo.ApplicationCommandOption{
				indexOption("first", "First queue position"),
				indexOption("second", "Second queue position"),
			},
		},
		{
			Name:        "delete",
			Description: "Remove a track from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				indexOption("index", "Queue position to remove"),
			},
		},
		{
			Name:        "skipto",
			Description: "Skip ahead to a queue position",
			Options: []*discordgo.ApplicationCommandOption{
				indexOption("index", "Queue position to jump to"),
			},
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the queue",
		},
		{
			Name:        "clear",
			Description: "Clear the queue, history or autoplay queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "target",
					Description: "What to clear (default: queue)",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Queue", Value: "queue"},
						{Name: "History", Value: "history"},
						{Name: "Autoplay queue", Value: "autoqueue"},
						{Name: "Autoplay history", Value: "autohistory"},
					},
				},
			},
		},
		{
			Name:        "reset",
			Description: "Clear the queue and the history",
		},
		{
			Name:        "filter",
			Description: "Audio filter controls",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "volume",
					Description: "Set the filter volume multiplier",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionNumber,
							Name:        "multiplier",
							Description: "0.0 to 5.0 (1.0 = unchanged)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "timescale",
					Description: "Adjust speed, pitch and rate",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionNumber,
							Name:        "speed",
							Description: "0.1 to 3.0",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionNumber,
							Name:        "pitch",
							Description: "0.1 to 3.0",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionNumber,
							Name:        "rate",
							Description: "0.1 to 3.0",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "equalizer",
					Description: "Boost or cut one equalizer band",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "band",
							Description: "Band 0 (lowest) to 14 (highest)",
							Required:    true,
							MinValue:    minPtr(0),
							MaxValue:    14,
						},
						{
							Type:        discordgo.ApplicationCommandOptionNumber,
							Name:        "gain",
							Description: "-0.25 to 1.0 (0 leaves the band unchanged)",
							Required:    true,
							MinValue:    minPtr(-0.25),
							MaxValue:    1.0,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "nightcore",
					Description: "Apply the nightcore preset",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Remove all filters",
				},
			},
		},
	}

	commandHandlers = map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"play":        musiccmd.Play,
		"join":        musiccmd.Join,
		"disconnect":  musiccmd.Disconnect,
		"skip":        musiccmd.Skip,
		"stop":        musiccmd.Stop,
		"toggle":      musiccmd.Toggle,
		"nowplaying":  musiccmd.NowPlaying,
		"volume":      musiccmd.Volume,
		"seek":        musiccmd.Seek,
		"rewind":      musiccmd.Rewind,
		"fastforward": musiccmd.FastForward,
		"replay":      musiccmd.Replay,
		"queue":       musiccmd.QueueList,
		"history":     musiccmd.History,
		"previous":    musiccmd.Previous,
		"loop":        musiccmd.Loop,
		"autoplay":    handleAutoplayCommand,
		"swap":        musiccmd.Swap,
		"delete":      musiccmd.Delete,
		"skipto":      musiccmd.SkipTo,
		"shuffle":     musiccmd.Shuffle,
		"clear":       musiccmd.Clear,
		"reset":       musiccmd.Reset,
		"filter":      handleFilterCommand,
	}
)

func handleFilterCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	sub := getSubcommandOption(data)
	if sub == nil {
		shared.RespondEphemeral(s, i, "Please pick a filter subcommand.")
		return
	}

	switch sub.Name {
	case "volume":
		musiccmd.FilterVolume(s, i, sub.Options)
	case "equalizer":
		musiccmd.FilterEqualizer(s, i, sub.Options)
	case "timescale":
		musiccmd.FilterTimescale(s, i, sub.Options)
	case "nightcore":
		musiccmd.FilterNightcore(s, i)
	case "reset":
		musiccmd.FilterReset(s, i)
	default:
		shared.RespondEphemeral(s, i, "Unknown filter subcommand.")
	}
}

func handleAutoplayCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	sub := getSubcommandOption(data)
	if sub == nil {
		shared.RespondEphemeral(s, i, "Please pick an autoplay subcommand.")
		return
	}

	switch sub.Name {
	case "mode":
		musiccmd.Autoplay(s, i, sub.Options)
	case "queue":
		musiccmd.AutoplayQueue(s, i)
	case "history":
		musiccmd.AutoplayHistory(s, i)
	default:
		shared.RespondEphemeral(s, i, "Unknown autoplay subcommand.")
	}
}

func getSubcommandOption(data discordgo.ApplicationCommandInteractionData) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			return opt
		}
	}
	return nil
}

func RegisterCommands(s *discordgo.Session, appID string, guildID string) ([]*discordgo.ApplicationCommand, error) {
	scope := "global"
	if guildID != "" {
		scope = fmt.Sprintf("guild:%s", guildID)
	}

	logrus.Infof("registering %d commands (%s)", len(CommandList), scope)

	cmds, err := s.ApplicationCommandBulkOverwrite(appID, guildID, CommandList)
	if err != nil {
		return nil, fmt.Errorf("cannot bulk overwrite commands: %w", err)
	}
	return cmds, nil
}

func AddHandlers(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			data := i.ApplicationCommandData()
			if handler, ok := commandHandlers[data.Name]; ok {
				handler(s, i)
			}
		case discordgo.InteractionApplicationCommandAutocomplete:
			if i.ApplicationCommandData().Name == "play" {
				musiccmd.Autocomplete(s, i)
			}
		case discordgo.InteractionMessageComponent:
			if musiclisteners.RouteMusicComponent(s, i) {
				return
			}
		default:
			return
		}
	})
}
