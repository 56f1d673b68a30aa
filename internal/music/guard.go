package music

import "fmt"

// Invocation identifies where a command came from.
type Invocation struct {
	GuildID   string
	ChannelID string
	UserID    string
}

// CheckVoice is the authorization gate every mutating command runs first. It
// returns the session and "" when the command may proceed, or nil and a
// user-facing rejection reason.
//
// With requireEmpty set (the disconnect command), an invoker outside the voice
// channel is still allowed when nobody but bots is left in it.
func (r *Registry) CheckVoice(inv Invocation, requireEmpty bool) (*Session, string) {
	s := r.Get(inv.GuildID)
	if s == nil {
		return nil, "I am not connected to a voice channel."
	}

	if home := s.HomeChannelID(); home != "" && inv.ChannelID != home {
		return nil, fmt.Sprintf("The player is bound to <#%s>. Please use that channel.", home)
	}

	voiceChannelID := s.VoiceChannelID()
	if r.gw.UserVoiceChannel(inv.GuildID, inv.UserID) != voiceChannelID {
		if requireEmpty && r.gw.HumanCount(inv.GuildID, voiceChannelID) == 0 {
			return s, ""
		}
		if requireEmpty {
			return nil, fmt.Sprintf("The voice channel is not empty. Please join <#%s> to use this command.", voiceChannelID)
		}
		return nil, fmt.Sprintf("Please join <#%s> to use this command.", voiceChannelID)
	}

	return s, ""
}
