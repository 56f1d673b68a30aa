package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

const skipStepSeconds = 10

// seekable returns the session and the current track when it can be seeked,
// answering the interaction itself otherwise. Callers keep working with the
// returned session; a concurrent teardown may have already removed it from
// the registry by the time they act.
func seekable(s *discordgo.Session, i *discordgo.InteractionCreate) (*music.Session, *lavalink.Track, bool) {
	sess := guard(s, i, false)
	if sess == nil {
		return nil, nil, false
	}

	current := sess.Player().Current()
	if current == nil {
		shared.RespondEphemeral(s, i, "Nothing is playing.")
		return nil, nil, false
	}
	if current.Info.IsStream || !current.Info.IsSeekable {
		shared.RespondEphemeral(s, i, "This track cannot be seeked.")
		return nil, nil, false
	}
	return sess, current, true
}

func clampPosition(positionMS, lengthMS int64) int64 {
	if positionMS < 0 {
		return 0
	}
	if positionMS > lengthMS {
		return lengthMS
	}
	return positionMS
}

// Seek jumps to an absolute position given as hours/minutes/seconds.
func Seek(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess, current, ok := seekable(s, i)
	if !ok {
		return
	}

	data := i.ApplicationCommandData()
	hours := shared.GetOptionInt64(data.Options, "hours")
	minutes := shared.GetOptionInt64(data.Options, "minutes")
	seconds := shared.GetOptionInt64(data.Options, "seconds")

	target := ((hours*60+minutes)*60 + seconds) * 1000
	if target > current.Info.Length {
		shared.RespondEphemeral(s, i, fmt.Sprintf("The track is only %s long.", milliToMinutes(current.Info.Length)))
		return
	}
	target = clampPosition(target, current.Info.Length)

	if err := sess.Player().Seek(target); err != nil {
		shared.RespondEphemeral(s, i, "Seeking failed. Please try again.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Seeked to `%s`.", milliToMinutes(target)))
}

func Rewind(s *discordgo.Session, i *discordgo.InteractionCreate) {
	seekRelative(s, i, -1)
}

func FastForward(s *discordgo.Session, i *discordgo.InteractionCreate) {
	seekRelative(s, i, 1)
}

func seekRelative(s *discordgo.Session, i *discordgo.InteractionCreate, direction int64) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess, current, ok := seekable(s, i)
	if !ok {
		return
	}

	data := i.ApplicationCommandData()
	step := shared.GetOptionInt64(data.Options, "seconds")
	if step <= 0 {
		step = skipStepSeconds
	}

	player := sess.Player()
	target := clampPosition(player.Position()+direction*step*1000, current.Info.Length)

	if err := player.Seek(target); err != nil {
		shared.RespondEphemeral(s, i, "Seeking failed. Please try again.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Jumped to `%s`.", milliToMinutes(target)))
}

// Replay restarts the current track from the beginning.
func Replay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !requireGuild(s, i) {
		return
	}

	sess, current, ok := seekable(s, i)
	if !ok {
		return
	}

	if err := sess.Player().Seek(0); err != nil {
		shared.RespondEphemeral(s, i, "Replay failed. Please try again.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Replaying **%s** from the start.", current.Info.Title))
}
