package music

import (
	"context"
	"fmt"
	"time"
)

// timerHandle identifies one armed countdown. The fire path re-checks that the
// session still holds this exact handle before acting, so a cancel that races
// the firing goroutine wins cleanly.
type timerHandle struct {
	cancel context.CancelFunc
}

// ArmInactivity starts the disconnect countdown for a session whose voice
// channel has no humans left. If playback is running it is paused first, with
// pausedByUser left false so a later cancel knows it may resume. Arming twice
// is a no-op.
func (r *Registry) ArmInactivity(s *Session, botsRemain bool) {
	s.mu.Lock()
	if s.timer != nil || s.nodeIdle {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &timerHandle{cancel: cancel}
	s.timer = handle

	shouldPause := s.player.Playing() && !s.player.Paused()
	if shouldPause {
		s.pausedByUser = false
	}
	homeChannelID := s.homeChannelID
	s.mu.Unlock()

	if shouldPause {
		if err := s.player.Pause(true); err != nil {
			r.log.WithField("guild_id", s.guildID).Warnf("failed to auto-pause: %v", err)
		}
		// A cancel may have landed before the pause took effect; its resume
		// check saw an unpaused player and did nothing. If this handle is no
		// longer armed, undo the pause here.
		s.mu.Lock()
		lost := s.timer != handle
		resume := lost && !s.pausedByUser
		s.mu.Unlock()
		if resume {
			if err := s.player.Pause(false); err != nil {
				r.log.WithField("guild_id", s.guildID).Warnf("failed to undo auto-pause: %v", err)
			}
		}
	}

	msg := fmt.Sprintf("Everyone left the voice channel. I will disconnect in %d seconds unless someone joins.", int(r.gracePeriod.Seconds()))
	if botsRemain {
		msg = fmt.Sprintf("Only bots are left in the voice channel. I will disconnect in %d seconds unless someone joins.", int(r.gracePeriod.Seconds()))
	}
	if homeChannelID != "" {
		r.gw.Send(homeChannelID, msg)
	}

	r.log.WithField("guild_id", s.guildID).Debug("inactivity timer armed")

	go func() {
		timer := time.NewTimer(r.gracePeriod)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			// Cancelled; the cancelling side already cleared the handle.
			return
		case <-timer.C:
			r.fireInactivity(s, handle)
		}
	}()
}

// fireInactivity runs when the grace period elapses. Ownership of the handle
// is verified under the session lock so a concurrent cancel or a newer timer
// makes this a no-op.
func (r *Registry) fireInactivity(s *Session, handle *timerHandle) {
	s.mu.Lock()
	if s.timer != handle {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	homeChannelID := s.homeChannelID
	s.mu.Unlock()

	r.log.WithField("guild_id", s.guildID).Info("inactivity timer fired")

	if homeChannelID != "" {
		r.gw.Send(homeChannelID, "Disconnecting due to inactivity.")
	}
	r.Teardown(s.guildID)
}

// CancelInactivity stops an armed countdown, resuming playback when the
// arming auto-paused it. Reports whether a timer was actually cancelled.
func (r *Registry) CancelInactivity(s *Session) bool {
	s.mu.Lock()
	handle := s.timer
	if handle == nil {
		s.mu.Unlock()
		return false
	}
	s.timer = nil
	resume := !s.pausedByUser
	homeChannelID := s.homeChannelID
	s.mu.Unlock()

	handle.cancel()

	if resume && s.player.Paused() {
		if err := s.player.Pause(false); err != nil {
			r.log.WithField("guild_id", s.guildID).Warnf("failed to auto-resume: %v", err)
		}
	}

	if homeChannelID != "" {
		r.gw.Send(homeChannelID, "Someone joined the voice channel. Disconnect timer cancelled.")
	}

	r.log.WithField("guild_id", s.guildID).Debug("inactivity timer cancelled")
	return true
}

// cancelTimerQuietly drops any armed timer without side effects. Used by
// teardown paths that are already sending their own notification.
func (s *Session) cancelTimerQuietly() {
	s.mu.Lock()
	handle := s.timer
	s.timer = nil
	s.mu.Unlock()

	if handle != nil {
		handle.cancel()
	}
}
