package music

import (
	"errors"
	"fmt"
	"sync"
)

var ErrVolumeRange = errors.New("volume must be between 0 and 200")

// Session is the per-guild playback state the bot owns itself. Queue contents
// and position live on the player; the session tracks the channels it is bound
// to, the status label it published, and the pending inactivity timer.
type Session struct {
	guildID string
	player  Player

	mu             sync.Mutex
	homeChannelID  string
	voiceChannelID string
	statusText     string
	pausedByUser   bool
	nodeIdle       bool
	volume         int
	prevAutoplay   string
	timer          *timerHandle
}

func newSession(guildID string, player Player, volume int) *Session {
	return &Session{
		guildID: guildID,
		player:  player,
		volume:  volume,
	}
}

func (s *Session) GuildID() string { return s.guildID }
func (s *Session) Player() Player  { return s.player }

func (s *Session) HomeChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.homeChannelID
}

// BindHome locks the session to its home text channel. The first caller wins;
// the lock never moves for the life of the session.
func (s *Session) BindHome(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.homeChannelID == "" {
		s.homeChannelID = channelID
	}
}

func (s *Session) VoiceChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceChannelID
}

// SetVoiceChannel records an explicit join or move. Occupancy events never
// call this; the voice binding only changes when the bot itself is moved.
func (s *Session) SetVoiceChannel(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceChannelID = channelID
}

func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Session) SetVolume(volume int) error {
	if volume < 0 || volume > 200 {
		return fmt.Errorf("%w: got %d", ErrVolumeRange, volume)
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()
	return nil
}

func (s *Session) PausedByUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pausedByUser
}

// MarkPaused records who caused a pause so the inactivity timer only resumes
// what it paused itself.
func (s *Session) MarkPaused(byUser bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pausedByUser = byUser
}

func (s *Session) MarkResumed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pausedByUser = false
}

func (s *Session) NodeIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeIdle
}

func (s *Session) SetNodeIdle(idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeIdle = idle
}

// RememberAutoplay stashes the current autoplay mode before stop temporarily
// disables it.
func (s *Session) RememberAutoplay(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevAutoplay = mode
}

func (s *Session) RecallAutoplay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := s.prevAutoplay
	s.prevAutoplay = ""
	return mode
}

// PublishStatus sets the voice channel's status label and records it so the
// session knows which label it owns.
func (s *Session) PublishStatus(gw Gateway, text string) {
	s.mu.Lock()
	channelID := s.voiceChannelID
	s.statusText = text
	s.mu.Unlock()

	if channelID == "" {
		return
	}
	_ = gw.SetVoiceStatus(channelID, text)
}

// ClearOwnedStatus removes the status label, but only if the channel still
// shows the label this session last set.
func (s *Session) ClearOwnedStatus(gw Gateway) {
	s.mu.Lock()
	channelID := s.voiceChannelID
	text := s.statusText
	s.statusText = ""
	s.mu.Unlock()

	if channelID == "" || text == "" {
		return
	}
	_ = gw.ClearVoiceStatusIf(channelID, text)
}

func (s *Session) TimerArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
