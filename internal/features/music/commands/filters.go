package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
)

// FilterVolume applies the node-side volume multiplier, separate from the
// player volume. 1.0 is unchanged, values above it amplify.
func FilterVolume(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	multiplier, ok := shared.GetOptionFloat(options, "multiplier")
	if !ok {
		shared.RespondEphemeral(s, i, "Please provide a volume multiplier.")
		return
	}
	if multiplier < 0.0 || multiplier > 5.0 {
		shared.RespondEphemeral(s, i, "The volume multiplier must be between 0.0 and 5.0.")
		return
	}

	filters := lavalink.Filters{Volume: &multiplier}
	if err := sess.Player().SetFilters(filters); err != nil {
		shared.RespondEphemeral(s, i, "Could not apply the filter.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Filter volume set to **%.2fx**.", multiplier))
}

// FilterEqualizer boosts or cuts a single equalizer band. Bands run 0 (25 Hz)
// to 14 (16 kHz); gain runs -0.25 (muted) to 1.0 (doubled).
func FilterEqualizer(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	band := shared.GetOptionInt(options, "band")
	gain, ok := shared.GetOptionFloat(options, "gain")
	if !ok {
		shared.RespondEphemeral(s, i, "Please provide a gain value.")
		return
	}
	if band < 0 || band > 14 {
		shared.RespondEphemeral(s, i, "The band must be between 0 and 14.")
		return
	}
	if gain < -0.25 || gain > 1.0 {
		shared.RespondEphemeral(s, i, "The gain must be between -0.25 and 1.0.")
		return
	}

	filters := lavalink.Filters{Equalizer: []lavalink.EqBand{{Band: band, Gain: gain}}}
	if err := sess.Player().SetFilters(filters); err != nil {
		shared.RespondEphemeral(s, i, "Could not apply the filter.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Equalizer band %d set to %+.2f.", band, gain))
}

// FilterTimescale changes speed, pitch and rate together.
func FilterTimescale(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	speed, hasSpeed := shared.GetOptionFloat(options, "speed")
	pitch, hasPitch := shared.GetOptionFloat(options, "pitch")
	rate, hasRate := shared.GetOptionFloat(options, "rate")

	if !hasSpeed {
		speed = 1.0
	}
	if !hasPitch {
		pitch = 1.0
	}
	if !hasRate {
		rate = 1.0
	}

	for _, v := range []float64{speed, pitch, rate} {
		if v < 0.1 || v > 3.0 {
			shared.RespondEphemeral(s, i, "Timescale values must be between 0.1 and 3.0.")
			return
		}
	}

	filters := lavalink.Filters{
		Timescale: &lavalink.Timescale{Speed: speed, Pitch: pitch, Rate: rate},
	}
	if err := sess.Player().SetFilters(filters); err != nil {
		shared.RespondEphemeral(s, i, "Could not apply the filter.")
		return
	}

	shared.Respond(s, i, fmt.Sprintf("Timescale set to speed %.2f, pitch %.2f, rate %.2f.", speed, pitch, rate))
}

// FilterNightcore is a preset on top of timescale.
func FilterNightcore(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	filters := lavalink.Filters{
		Timescale: &lavalink.Timescale{Speed: 1.2, Pitch: 1.2, Rate: 1.0},
	}
	if err := sess.Player().SetFilters(filters); err != nil {
		shared.RespondEphemeral(s, i, "Could not apply the filter.")
		return
	}

	shared.Respond(s, i, "Nightcore filter enabled.")
}

// FilterReset drops every active filter.
func FilterReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := guard(s, i, false)
	if sess == nil {
		return
	}

	if err := sess.Player().SetFilters(lavalink.Filters{}); err != nil {
		shared.RespondEphemeral(s, i, "Could not reset the filters.")
		return
	}

	shared.Respond(s, i, "All filters reset.")
}
