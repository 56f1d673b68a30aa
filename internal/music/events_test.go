package music

import (
	"strings"
	"testing"
	"time"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

func testTrack(title string) lavalink.Track {
	return lavalink.Track{
		Encoded: "enc-" + title,
		Info: lavalink.TrackInfo{
			Title:  title,
			Author: "some artist",
			URI:    "https://example.com/" + title,
		},
	}
}

func TestTrackStartPublishesStatus(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")
	s.SetNodeIdle(true)

	handlers.OnTrackStart("guild1", testTrack("song"))

	if s.NodeIdle() {
		t.Error("track start should clear the node-idle flag")
	}
	if gw.status("voice1") != "Playing song" {
		t.Errorf("expected status label 'Playing song', got %q", gw.status("voice1"))
	}
	if len(gw.embeds) != 1 {
		t.Fatalf("expected one now-playing embed, got %d", len(gw.embeds))
	}
	if !strings.Contains(gw.embeds[0].Description, "song") {
		t.Error("embed should name the track")
	}
}

func TestTrackStartNotesRecommendedTracks(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")

	track := testTrack("song")
	track.UserData.Recommended = true
	handlers.OnTrackStart("guild1", track)

	if len(gw.embeds) != 1 || gw.embeds[0].Footer == nil {
		t.Fatal("expected an embed with a footer")
	}
	if !strings.Contains(gw.embeds[0].Footer.Text, "Recommended") {
		t.Errorf("recommended tracks should be flagged, got %q", gw.embeds[0].Footer.Text)
	}
}

func TestTrackEndClearsOwnedStatusOnly(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")

	handlers.OnTrackStart("guild1", testTrack("song"))
	handlers.OnTrackEnd("guild1", testTrack("song"), lavalink.TrackEndFinished)

	if gw.status("voice1") != "" {
		t.Errorf("track end should clear the label the session set, got %q", gw.status("voice1"))
	}
	if !s.NodeIdle() {
		t.Error("track end should set the node-idle flag")
	}

	// Someone else's label must survive the next end.
	handlers.OnTrackStart("guild1", testTrack("other"))
	gw.statuses["voice1"] = "Movie night"
	handlers.OnTrackEnd("guild1", testTrack("other"), lavalink.TrackEndFinished)

	if gw.status("voice1") != "Movie night" {
		t.Errorf("externally-set label must not be clobbered, got %q", gw.status("voice1"))
	}
}

func TestTrackStuckForcesSkip(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")
	player.playing = true

	handlers.OnTrackStuck("guild1", testTrack("song"), 5000)

	force, called := player.lastSkipForce()
	if !called || !force {
		t.Error("a stuck track should be force-skipped")
	}
	if !strings.Contains(gw.lastMessage(), "stuck") {
		t.Errorf("home channel should hear about the stuck track, got %q", gw.lastMessage())
	}
}

func TestTrackExceptionForcesSkip(t *testing.T) {
	registry, gw, player := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")
	player.playing = true

	handlers.OnTrackException("guild1", testTrack("song"), "decoder blew up")

	force, called := player.lastSkipForce()
	if !called || !force {
		t.Error("a failing track should be force-skipped")
	}
	if !strings.Contains(gw.lastMessage(), "decoder blew up") {
		t.Errorf("notification should carry the backend message, got %q", gw.lastMessage())
	}
}

func TestPlayerInactiveTearsDownWithoutDoubleFire(t *testing.T) {
	registry, gw, player := newTestRegistry(50 * time.Millisecond)
	handlers := NewEventHandlers(registry, quietLogger())

	s, _, _ := registry.CreateOrGet("guild1", "voice1")
	s.BindHome("text1")

	// An occupancy timer is pending when the node reports idle on its own.
	registry.ArmInactivity(s, false)
	handlers.OnPlayerInactive("guild1")

	if registry.Get("guild1") != nil {
		t.Fatal("inactive-player notification should tear the session down")
	}
	if player.destroyCount() != 1 {
		t.Errorf("expected exactly one destroy, got %d", player.destroyCount())
	}

	disconns := gw.disconnCount()
	time.Sleep(120 * time.Millisecond)
	if gw.disconnCount() != disconns {
		t.Error("the armed timer must not fire a second teardown")
	}
}

func TestEventsWithoutSessionAreIgnored(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)
	handlers := NewEventHandlers(registry, quietLogger())

	handlers.OnTrackStart("guild1", testTrack("song"))
	handlers.OnTrackEnd("guild1", testTrack("song"), lavalink.TrackEndFinished)
	handlers.OnTrackStuck("guild1", testTrack("song"), 5000)
	handlers.OnPlayerInactive("guild1")

	if gw.messageCount() != 0 || len(gw.embeds) != 0 {
		t.Error("events for unknown guilds must be silent")
	}
}
