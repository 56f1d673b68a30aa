package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
)

func Skip(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	current := player.Current()
	if current == nil {
		shared.RespondEphemeral(s, i, "Nothing is playing.")
		return
	}

	// force bypasses loop-one so the skipped track does not replay itself.
	if err := player.Skip(true); err != nil {
		log.Warnf("skip failed for guild %s: %v", i.GuildID, err)
		shared.RespondEphemeral(s, i, "Skipping failed. Please try again.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Skipped **%s**.", current.Info.Title))
}

// Stop clears the queue and halts the current track. Autoplay is switched off
// for the duration so the auto queue cannot refill what we just emptied, then
// restored.
func Stop(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	sess.RememberAutoplay(string(player.AutoplayMode()))
	player.SetAutoplayMode(lavalink.AutoPlayDisabled)

	player.Queue().Clear()
	player.AutoQueue().Clear()

	if player.Playing() {
		if err := player.Skip(true); err != nil {
			log.Warnf("stop failed for guild %s: %v", i.GuildID, err)
		}
	}

	if prev := sess.RecallAutoplay(); prev != "" {
		player.SetAutoplayMode(lavalink.AutoPlayMode(prev))
	}

	shared.Respond(s, i, "Stopped playback and cleared the queue.")
}

// Toggle pauses or resumes, recording that the user asked for it so the
// inactivity timer will not auto-resume a deliberate pause.
func Toggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	if !player.Playing() {
		shared.RespondEphemeral(s, i, "Nothing is playing.")
		return
	}

	pausing := !player.Paused()
	if err := player.Pause(pausing); err != nil {
		shared.RespondEphemeral(s, i, "Could not change the playback state.")
		return
	}

	if pausing {
		sess.MarkPaused(true)
		shared.Respond(s, i, "Paused. Use /toggle again to resume.")
	} else {
		sess.MarkResumed()
		shared.Respond(s, i, "Resumed.")
	}
}

func Volume(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	if !shared.HasOption(data.Options, "level") {
		shared.Respond(s, i, fmt.Sprintf("Current volume is **%d%%**.", sess.Volume()))
		return
	}

	level := shared.GetOptionInt(data.Options, "level")
	if err := sess.SetVolume(level); err != nil {
		shared.RespondEphemeral(s, i, "Volume must be between 0 and 200.")
		return
	}

	player := sess.Player()
	if err := player.SetVolume(level); err != nil {
		shared.RespondEphemeral(s, i, "Could not change the volume.")
		return
	}

	if guildRepo != nil {
		if err := guildRepo.UpsertSettings(i.GuildID, level, string(player.AutoplayMode())); err != nil {
			log.Warnf("failed to persist volume for guild %s: %v", i.GuildID, err)
		}
	}

	shared.Respond(s, i, fmt.Sprintf("Volume set to **%d%%**.", level))
}

func NowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	current := player.Current()
	if current == nil {
		shared.RespondEphemeral(s, i, "Nothing is playing.")
		return
	}

	state := "playing"
	if player.Paused() {
		state = "paused"
	}

	line := fmt.Sprintf("**%s** by %s\n`%s / %s` (%s)",
		current.Info.Title, current.Info.Author,
		milliToMinutes(player.Position()), milliToMinutes(current.Info.Length), state)
	if current.UserData.Recommended {
		line += "\nRecommended based on your queue."
	} else if current.UserData.RequesterID != "" {
		line += fmt.Sprintf("\nRequested by <@%s>.", current.UserData.RequesterID)
	}

	shared.Respond(s, i, line)
}
