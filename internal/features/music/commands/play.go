package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

// Play resolves the picked autocomplete suggestion, connects a session on
// first use (locking it to the invoking text channel), queues the result and
// starts playback when idle.
func Play(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	userID := shared.GetInteractionUserID(i)
	if userID == "" {
		shared.RespondEphemeral(s, i, "Could not identify the invoking user.")
		return
	}

	data := i.ApplicationCommandData()
	query := shared.GetOptionString(data.Options, "query")
	if query == "" {
		shared.RespondEphemeral(s, i, "Please pick a track from the search suggestions.")
		return
	}

	result, ok := music.CachedResult{}, false
	if cache := registry.Cache(); cache != nil {
		result, ok = cache.Resolve(i.GuildID, userID, query)
	}
	if !ok {
		handleCacheMiss(s, i)
		return
	}

	sess := registry.Get(i.GuildID)
	if sess == nil {
		voiceChannelID := registry.Gateway().UserVoiceChannel(i.GuildID, userID)
		if voiceChannelID == "" {
			shared.RespondEphemeral(s, i, "Please join a voice channel first.")
			return
		}

		connected, _, err := registry.CreateOrGet(i.GuildID, voiceChannelID)
		if err != nil {
			log.Warnf("voice connect failed for guild %s: %v", i.GuildID, err)
			shared.RespondEphemeral(s, i, "I could not join your voice channel. Check my permissions and try again.")
			return
		}
		sess = connected
	} else {
		if sess = guard(s, i, false); sess == nil {
			return
		}
	}

	sess.BindHome(i.ChannelID)

	player := sess.Player()
	queue := player.Queue()
	userData := lavalink.UserData{RequesterID: userID, RequestedAt: time.Now().UTC()}

	var confirmation string
	switch {
	case result.Playlist != nil:
		tracks := result.Playlist.Tracks
		if len(tracks) == 0 {
			shared.RespondEphemeral(s, i, "That playlist has no playable tracks.")
			return
		}
		// Without the playlist flag only the selected track is queued.
		if !shared.GetOptionBool(data.Options, "playlist") {
			selected := result.Playlist.Info.SelectedTrack
			if selected < 0 || selected >= len(tracks) {
				selected = 0
			}
			tracks = tracks[selected : selected+1]
		}
		for _, track := range tracks {
			track.UserData = userData
			queue.Put(track)
		}
		if len(tracks) == 1 {
			confirmation = fmt.Sprintf("Queued **%s** from **%s**.",
				tracks[0].Info.Title, result.Playlist.Info.Name)
		} else {
			confirmation = fmt.Sprintf("Queued **%d** tracks from **%s**.",
				len(tracks), result.Playlist.Info.Name)
		}
	case result.Track != nil:
		track := *result.Track
		track.UserData = userData
		queue.Put(track)
		confirmation = fmt.Sprintf("Queued **%s** by %s.", track.Info.Title, track.Info.Author)
	default:
		shared.RespondEphemeral(s, i, "That search result is no longer available. Please search again.")
		return
	}

	if !player.Playing() {
		next, err := queue.Get()
		if err == nil {
			if err := player.Play(next, sess.Volume()); err != nil {
				log.Warnf("failed to start playback for guild %s: %v", i.GuildID, err)
				shared.RespondEphemeral(s, i, "Queued, but starting playback failed. Try /skip.")
				return
			}
		}
	}

	shared.Respond(s, i, confirmation)
}

// handleCacheMiss answers a play whose query matches nothing we cached. A
// session that is connected but has nothing to play is useless at this point
// and gets disconnected.
func handleCacheMiss(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shared.RespondEphemeral(s, i, "That search expired. Please type your query again and pick a suggestion.")

	sess := registry.Get(i.GuildID)
	if sess == nil {
		return
	}
	player := sess.Player()
	if !player.Playing() && player.Queue().Len() == 0 {
		registry.Teardown(i.GuildID)
	}
}

// Join connects the bot to the invoker's voice channel without queueing
// anything.
func Join(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	userID := shared.GetInteractionUserID(i)
	voiceChannelID := registry.Gateway().UserVoiceChannel(i.GuildID, userID)
	if voiceChannelID == "" {
		shared.RespondEphemeral(s, i, "Please join a voice channel first.")
		return
	}

	sess, createdNow, err := registry.CreateOrGet(i.GuildID, voiceChannelID)
	if err != nil {
		shared.RespondEphemeral(s, i, "I could not join your voice channel. Check my permissions and try again.")
		return
	}
	if !createdNow {
		shared.RespondEphemeral(s, i, fmt.Sprintf("I am already connected to <#%s>.", sess.VoiceChannelID()))
		return
	}

	sess.BindHome(i.ChannelID)
	shared.Respond(s, i, fmt.Sprintf("Joined <#%s>.", voiceChannelID))
}

// Disconnect tears the session down. Allowed from outside the voice channel
// once only bots remain in it.
func Disconnect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess := guard(s, i, true)
	if sess == nil {
		return
	}

	if registry.Teardown(i.GuildID) {
		shared.Respond(s, i, "Disconnected. See you next time!")
		return
	}
	shared.RespondEphemeral(s, i, "I am not connected to a voice channel.")
}
