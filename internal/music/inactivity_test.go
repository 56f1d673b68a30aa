package music

import (
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestArmPausesAndNotifies(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")
	player.playing = true

	registry.ArmInactivity(s, false)

	if !s.TimerArmed() {
		t.Fatal("timer should be armed")
	}
	if !player.Paused() {
		t.Error("arming should pause running playback")
	}
	if s.PausedByUser() {
		t.Error("auto-pause must record pausedByUser=false")
	}
	if !strings.Contains(gw.lastMessage(), "60 seconds") {
		t.Errorf("notification should name the grace period, got %q", gw.lastMessage())
	}
}

func TestArmIsIdempotent(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")

	registry.ArmInactivity(s, false)
	registry.ArmInactivity(s, false)

	if gw.messageCount() != 1 {
		t.Errorf("second arm must be a no-op, got %d notifications", gw.messageCount())
	}
}

func TestArmSkippedWhenNodeIdle(t *testing.T) {
	registry, _, _ := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.SetNodeIdle(true)

	registry.ArmInactivity(s, false)

	if s.TimerArmed() {
		t.Error("node-idle sessions are handled by the node's own timeout")
	}
}

func TestCancelResumesAutoPausedPlayback(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")
	player.playing = true

	registry.ArmInactivity(s, false)
	if !registry.CancelInactivity(s) {
		t.Fatal("cancel should report an armed timer")
	}

	if player.Paused() {
		t.Error("cancel should resume what arming paused")
	}
	if s.TimerArmed() {
		t.Error("cancelled timer handle must be cleared")
	}
	if !strings.Contains(gw.lastMessage(), "cancelled") {
		t.Errorf("expected a cancellation notice, got %q", gw.lastMessage())
	}
}

func TestCancelDoesNotResumeUserPause(t *testing.T) {
	registry, _, player := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	player.playing = true
	player.paused = true
	s.MarkPaused(true)

	registry.ArmInactivity(s, false)
	registry.CancelInactivity(s)

	if !player.Paused() {
		t.Error("a user-issued pause must survive timer cancellation")
	}
}

func TestCancelDuringPendingAutoPauseRollsBack(t *testing.T) {
	registry, _, player := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	player.playing = true

	// The cancel lands while the auto-pause request is still in flight, so
	// its resume check sees an unpaused player and does nothing.
	player.pauseHook = func() {
		registry.CancelInactivity(s)
	}

	registry.ArmInactivity(s, false)

	if s.TimerArmed() {
		t.Error("the cancel should have cleared the timer")
	}
	if player.Paused() {
		t.Error("arming must undo a pause its timer no longer owns")
	}
}

func TestCancelWithoutTimerIsNoop(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")

	if registry.CancelInactivity(s) {
		t.Error("cancel with no armed timer should report false")
	}
	if gw.messageCount() != 0 {
		t.Error("no-op cancel must not notify")
	}
}

func TestFireTearsDownOnce(t *testing.T) {
	registry, gw, player := newTestRegistry(20 * time.Millisecond)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")

	registry.ArmInactivity(s, false)

	waitFor(t, time.Second, func() bool { return registry.Get("guild1") == nil })
	waitFor(t, time.Second, func() bool { return gw.disconnCount() == 1 })

	if s.TimerArmed() {
		t.Error("fired timer handle must be cleared")
	}
	if player.destroyCount() != 1 {
		t.Errorf("expected one player destroy, got %d", player.destroyCount())
	}
	found := false
	for _, msg := range gw.allMessages() {
		if strings.Contains(msg, "inactivity") {
			found = true
		}
	}
	if !found {
		t.Error("firing should announce the disconnect")
	}
}

func TestCancelBeforeFirePreventsTeardown(t *testing.T) {
	registry, _, player := newTestRegistry(30 * time.Millisecond)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")

	registry.ArmInactivity(s, false)
	registry.CancelInactivity(s)

	time.Sleep(80 * time.Millisecond)

	if registry.Get("guild1") == nil {
		t.Error("cancelled timer must not tear the session down")
	}
	if player.destroyCount() != 0 {
		t.Error("cancelled path must have no side effects")
	}
}

func TestRearmAfterCancelUsesFreshHandle(t *testing.T) {
	registry, _, _ := newTestRegistry(25 * time.Millisecond)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")

	registry.ArmInactivity(s, false)
	registry.CancelInactivity(s)
	registry.ArmInactivity(s, false)

	if !s.TimerArmed() {
		t.Fatal("re-arm after cancel should install a new handle")
	}

	waitFor(t, time.Second, func() bool { return registry.Get("guild1") == nil })
}
