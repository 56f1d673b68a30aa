package music

// Monitor turns raw voice-presence changes into inactivity timer arms and
// cancels. It never touches the session's voice binding; the bot's own moves
// are handled separately by the connection layer.
type Monitor struct {
	registry *Registry
}

func NewMonitor(registry *Registry) *Monitor {
	return &Monitor{registry: registry}
}

// HandleVoiceChange processes one member's move between voice channels.
// prevChannelID and newChannelID are "" when the member was not, or is no
// longer, in voice.
func (m *Monitor) HandleVoiceChange(guildID, userID string, isBot bool, prevChannelID, newChannelID string) {
	if isBot || prevChannelID == newChannelID {
		return
	}

	s := m.registry.Get(guildID)
	if s == nil {
		return
	}

	voiceChannelID := s.VoiceChannelID()
	if voiceChannelID == "" {
		return
	}

	gw := m.registry.Gateway()

	switch {
	case prevChannelID == voiceChannelID && newChannelID != voiceChannelID:
		if gw.HumanCount(guildID, voiceChannelID) > 0 {
			return
		}
		if s.NodeIdle() {
			// The node already reported the player idle; its own inactivity
			// notification will handle the disconnect.
			return
		}
		botsRemain := gw.OccupantCount(guildID, voiceChannelID) > 1
		m.registry.ArmInactivity(s, botsRemain)

	case newChannelID == voiceChannelID:
		m.registry.CancelInactivity(s)
	}
}
