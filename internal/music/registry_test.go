package music

import (
	"strings"
	"testing"
	"time"
)

func TestCreateOrGetIdempotent(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	s1, created, err := registry.CreateOrGet("guild1", "voice1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("first call should create the session")
	}

	s2, created, err := registry.CreateOrGet("guild1", "voice2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("second call should reuse the existing session")
	}
	if s1 != s2 {
		t.Error("both calls should return the same session")
	}
	if len(gw.joins) != 1 {
		t.Errorf("expected exactly one voice join, got %d", len(gw.joins))
	}
	if s1.VoiceChannelID() != "voice1" {
		t.Errorf("voice binding should stay voice1, got %s", s1.VoiceChannelID())
	}
}

func TestCreateOrGetJoinFailureReleasesSlot(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)
	gw.joinErr = errJoinRefused

	if _, _, err := registry.CreateOrGet("guild1", "voice1"); err == nil {
		t.Fatal("expected an error when the voice join fails")
	}
	if registry.Get("guild1") != nil {
		t.Error("failed connect must not leave a session behind")
	}
	if player.destroyCount() != 1 {
		t.Errorf("expected the reserved player to be destroyed, got %d destroys", player.destroyCount())
	}

	gw.joinErr = nil
	if _, created, err := registry.CreateOrGet("guild1", "voice1"); err != nil || !created {
		t.Errorf("retry after failure should create a session, created=%t err=%v", created, err)
	}
}

func TestTeardownIdempotent(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)

	s, _, err := registry.CreateOrGet("guild1", "voice1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.PublishStatus(gw, "Playing something")

	if !registry.Teardown("guild1") {
		t.Error("first teardown should report removal")
	}
	if registry.Teardown("guild1") {
		t.Error("second teardown must be a no-op")
	}

	if registry.Get("guild1") != nil {
		t.Error("session should be gone from the registry")
	}
	if player.destroyCount() != 1 {
		t.Errorf("expected one player destroy, got %d", player.destroyCount())
	}
	if gw.disconns != 1 {
		t.Errorf("expected one voice disconnect, got %d", gw.disconns)
	}
	if gw.status("voice1") != "" {
		t.Error("teardown should clear the owned status label")
	}
}

func TestTeardownLeavesForeignStatusLabel(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.PublishStatus(gw, "Playing something")
	// Another integration overwrote the label after we set it.
	gw.statuses["voice1"] = "Movie night"

	registry.Teardown("guild1")

	if gw.status("voice1") != "Movie night" {
		t.Errorf("externally-set label must survive teardown, got %q", gw.status("voice1"))
	}
}

func TestShutdownTearsDownAllSessions(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	registry.CreateOrGet("guild1", "voice1")
	registry.CreateOrGet("guild2", "voice2")

	registry.Shutdown()

	if registry.Get("guild1") != nil || registry.Get("guild2") != nil {
		t.Error("shutdown should remove every session")
	}
	if gw.disconns != 2 {
		t.Errorf("expected two voice disconnects, got %d", gw.disconns)
	}
}

func TestSessionDefaultsFromSettings(t *testing.T) {
	gw := newFakeGateway()
	player := newFakePlayer()

	registry := NewRegistry(RegistryConfig{
		NewPlayer:     func(guildID string) Player { return player },
		Gateway:       gw,
		GracePeriod:   time.Minute,
		DefaultVolume: 30,
		Settings:      stubSettings{volume: 80, autoplay: "enabled"},
		Logger:        quietLogger(),
	})

	s, _, err := registry.CreateOrGet("guild1", "voice1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Volume() != 80 {
		t.Errorf("expected stored volume 80, got %d", s.Volume())
	}
	if string(player.AutoplayMode()) != "enabled" {
		t.Errorf("expected stored autoplay mode, got %s", player.AutoplayMode())
	}
}

type stubSettings struct {
	volume   int
	autoplay string
}

func (s stubSettings) Defaults(guildID string) (int, string, bool) {
	return s.volume, s.autoplay, true
}

func TestBindHomeNeverMoves(t *testing.T) {
	s := newSession("guild1", newFakePlayer(), 30)

	s.BindHome("text1")
	s.BindHome("text2")

	if s.HomeChannelID() != "text1" {
		t.Errorf("home channel must not move once bound, got %s", s.HomeChannelID())
	}
}

func TestSessionVolumeRange(t *testing.T) {
	s := newSession("guild1", newFakePlayer(), 30)

	if err := s.SetVolume(201); err == nil {
		t.Error("volume above 200 should be rejected")
	}
	if err := s.SetVolume(-1); err == nil {
		t.Error("negative volume should be rejected")
	}
	if err := s.SetVolume(0); err != nil {
		t.Errorf("volume 0 should be accepted: %v", err)
	}
	if err := s.SetVolume(200); err != nil {
		t.Errorf("volume 200 should be accepted: %v", err)
	}

	err := s.SetVolume(500)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("error should name the rejected value, got %v", err)
	}
}
