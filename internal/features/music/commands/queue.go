package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	queueview "github.com/fhsourav/sorcery/internal/features/music/queueview"
	"github.com/fhsourav/sorcery/internal/lavalink"
)

// QueueList shows the pending tracks with pagination buttons.
func QueueList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	tracks := sess.Player().Queue().Tracks()
	if len(tracks) == 0 {
		shared.RespondEphemeral(s, i, "The queue is empty.")
		return
	}

	perPage := shared.GetOptionInt(i.ApplicationCommandData().Options, "limit")
	if perPage <= 0 {
		perPage = queueview.DefaultPerPage
	}

	components, _ := queueview.BuildQueueComponents(tracks, 1, perPage)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      discordgo.MessageFlagsIsComponentsV2 | discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Warnf("queue respond failed: %v", err)
	}
}

func History(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	history := sess.Player().Queue().History()
	if len(history) == 0 {
		shared.RespondEphemeral(s, i, "No tracks have been played yet.")
		return
	}

	shared.Respond(s, i, strings.Join(formatTrackLines(history, trackListLimit, true), "\n"))
}

// Track list displays cap at one screenful; history views show most recent
// first.
const trackListLimit = 15

func formatTrackLines(tracks []lavalink.Track, limit int, newestFirst bool) []string {
	lines := make([]string, 0, min(limit, len(tracks)))
	for n := 0; n < len(tracks) && len(lines) < limit; n++ {
		idx := n
		if newestFirst {
			idx = len(tracks) - 1 - n
		}
		track := tracks[idx]
		lines = append(lines, fmt.Sprintf("%d. %s by %s", len(lines)+1, track.Info.Title, track.Info.Author))
	}
	return lines
}

func Loop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	mode := shared.GetOptionString(i.ApplicationCommandData().Options, "mode")
	queue := sess.Player().Queue()

	var label string
	switch mode {
	case "off":
		queue.SetMode(lavalink.QueueModeNormal)
		label = "Loop disabled."
	case "track":
		queue.SetMode(lavalink.QueueModeLoop)
		label = "Looping the current track."
	case "queue":
		queue.SetMode(lavalink.QueueModeLoopAll)
		label = "Looping the whole queue."
	default:
		shared.RespondEphemeral(s, i, "Unknown loop mode.")
		return
	}

	shared.Respond(s, i, label)
}

func Autoplay(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	mode := shared.GetOptionString(options, "mode")
	player := sess.Player()

	var label string
	switch lavalink.AutoPlayMode(mode) {
	case lavalink.AutoPlayDisabled:
		player.SetAutoplayMode(lavalink.AutoPlayDisabled)
		label = "Autoplay disabled. Playback stops when the queue runs out."
	case lavalink.AutoPlayPartial:
		player.SetAutoplayMode(lavalink.AutoPlayPartial)
		label = "Autoplay set to queue only."
	case lavalink.AutoPlayEnabled:
		player.SetAutoplayMode(lavalink.AutoPlayEnabled)
		label = "Autoplay enabled. I will keep the music going with recommendations."
	default:
		shared.RespondEphemeral(s, i, "Unknown autoplay mode.")
		return
	}

	if guildRepo != nil {
		if err := guildRepo.UpsertSettings(i.GuildID, sess.Volume(), mode); err != nil {
			log.Warnf("failed to persist autoplay mode for guild %s: %v", i.GuildID, err)
		}
	}

	shared.Respond(s, i, label)
}

// AutoplayQueue shows the recommended tracks waiting behind the main queue.
func AutoplayQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	tracks := sess.Player().AutoQueue().Tracks()
	if len(tracks) == 0 {
		shared.RespondEphemeral(s, i, "The autoplay queue is empty.")
		return
	}

	shared.Respond(s, i, strings.Join(formatTrackLines(tracks, trackListLimit, false), "\n"))
}

// AutoplayHistory shows the recommended tracks that already played, most
// recent first.
func AutoplayHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	history := sess.Player().AutoQueue().History()
	if len(history) == 0 {
		shared.RespondEphemeral(s, i, "No recommended tracks have been played yet.")
		return
	}

	shared.Respond(s, i, strings.Join(formatTrackLines(history, trackListLimit, true), "\n"))
}

// Swap exchanges two queued tracks. Indices are 1-based as shown in /queue.
func Swap(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	data := i.ApplicationCommandData()
	first := shared.GetOptionInt(data.Options, "first")
	second := shared.GetOptionInt(data.Options, "second")

	queue := sess.Player().Queue()
	a, errA := queue.Peek(first - 1)
	b, errB := queue.Peek(second - 1)
	if errA != nil || errB != nil {
		shared.RespondEphemeral(s, i, "Those positions are not in the queue.")
		return
	}

	if err := queue.Swap(first-1, second-1); err != nil {
		shared.RespondEphemeral(s, i, "Those positions are not in the queue.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Swapped **%s** and **%s**.", a.Info.Title, b.Info.Title))
}

func Delete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	index := shared.GetOptionInt(i.ApplicationCommandData().Options, "index")
	removed, err := sess.Player().Queue().Delete(index - 1)
	if err != nil {
		shared.RespondEphemeral(s, i, "That position is not in the queue.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Removed **%s** from the queue.", removed.Info.Title))
}

// SkipTo drops everything before the chosen position and jumps there.
func SkipTo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	index := shared.GetOptionInt(i.ApplicationCommandData().Options, "index")
	player := sess.Player()
	queue := player.Queue()

	target, err := queue.Peek(index - 1)
	if err != nil {
		shared.RespondEphemeral(s, i, "That position is not in the queue.")
		return
	}

	for n := 0; n < index-1; n++ {
		if _, err := queue.Get(); err != nil {
			break
		}
	}

	if player.Playing() {
		if err := player.Skip(true); err != nil {
			shared.RespondEphemeral(s, i, "Skipping failed. Please try again.")
			return
		}
	} else if next, err := queue.Get(); err == nil {
		if err := player.Play(next, sess.Volume()); err != nil {
			shared.RespondEphemeral(s, i, "Could not start that track.")
			return
		}
	}

	shared.Respond(s, i, fmt.Sprintf("Jumped to **%s**.", target.Info.Title))
}

func Shuffle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	queue := sess.Player().Queue()
	if queue.Len() < 2 {
		shared.RespondEphemeral(s, i, "There is nothing to shuffle.")
		return
	}

	queue.Shuffle()
	shared.Respond(s, i, fmt.Sprintf("Shuffled **%d** tracks.", queue.Len()))
}

// Clear empties the chosen list without touching the current track.
func Clear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	target := shared.GetOptionString(i.ApplicationCommandData().Options, "target")
	player := sess.Player()

	switch target {
	case "", "queue":
		player.Queue().Clear()
		shared.Respond(s, i, "Cleared the queue.")
	case "history":
		player.Queue().ClearHistory()
		shared.Respond(s, i, "Cleared the playback history.")
	case "autoqueue":
		player.AutoQueue().Clear()
		shared.Respond(s, i, "Cleared the autoplay queue.")
	case "autohistory":
		player.AutoQueue().ClearHistory()
		shared.Respond(s, i, "Cleared the autoplay history.")
	default:
		shared.RespondEphemeral(s, i, "Unknown clear target.")
	}
}

// Reset wipes the queue, the history and the autoplay queue in one go.
func Reset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	player := sess.Player()
	player.Queue().Reset()
	player.AutoQueue().Reset()

	shared.Respond(s, i, "Reset the queue and history.")
}

// Previous re-queues a track from the playback history and jumps to it.
// Index 1 is the most recently played track.
func Previous(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	index := shared.GetOptionInt(i.ApplicationCommandData().Options, "index")
	if index <= 0 {
		index = 1
	}

	player := sess.Player()
	history := player.Queue().History()
	if index > len(history) {
		shared.RespondEphemeral(s, i, "That position is not in the history.")
		return
	}

	track := history[len(history)-index]
	player.Queue().PutAt(0, track)

	if player.Playing() {
		if err := player.Skip(true); err != nil {
			shared.RespondEphemeral(s, i, "Could not jump to that track.")
			return
		}
	} else {
		next, err := player.Queue().Get()
		if err == nil {
			if err := player.Play(next, sess.Volume()); err != nil {
				shared.RespondEphemeral(s, i, "Could not start that track.")
				return
			}
		}
	}

	shared.Respond(s, i, fmt.Sprintf("Playing **%s** from the history.", track.Info.Title))
}
