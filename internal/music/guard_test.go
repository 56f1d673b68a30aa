package music

import (
	"strings"
	"testing"
	"time"
)

func TestCheckVoiceNoSession(t *testing.T) {
	registry, _, _ := newTestRegistry(time.Minute)

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text1", UserID: "user1"}, false)

	if s != nil {
		t.Error("no session means no access")
	}
	if !strings.Contains(reason, "not connected") {
		t.Errorf("expected a not-connected rejection, got %q", reason)
	}
}

func TestCheckVoiceWrongHomeChannel(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	sess, _, _ := registry.CreateOrGet("guild1", "voice1")
	sess.BindHome("text1")
	gw.userVoice["user1"] = "voice1"

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text2", UserID: "user1"}, false)

	if s != nil {
		t.Error("commands from outside the home channel must be rejected")
	}
	if !strings.Contains(reason, "text1") {
		t.Errorf("rejection should name the home channel, got %q", reason)
	}
}

func TestCheckVoiceInvokerNotInChannel(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	sess, _, _ := registry.CreateOrGet("guild1", "voice1")
	sess.BindHome("text1")
	gw.userVoice["user1"] = "voice2"

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text1", UserID: "user1"}, false)

	if s != nil {
		t.Error("invoker outside the bound voice channel must be rejected")
	}
	if !strings.Contains(reason, "voice1") {
		t.Errorf("rejection should name the bound channel, got %q", reason)
	}
}

func TestCheckVoiceDisconnectFromEmptyChannel(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	sess, _, _ := registry.CreateOrGet("guild1", "voice1")
	sess.BindHome("text1")
	gw.userVoice["user1"] = ""
	gw.humans["voice1"] = 0

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text1", UserID: "user1"}, true)

	if s == nil {
		t.Fatalf("disconnect from outside an emptied channel should be allowed, got %q", reason)
	}
}

func TestCheckVoiceDisconnectFromOccupiedChannel(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	sess, _, _ := registry.CreateOrGet("guild1", "voice1")
	sess.BindHome("text1")
	gw.userVoice["user1"] = ""
	gw.humans["voice1"] = 2

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text1", UserID: "user1"}, true)

	if s != nil {
		t.Error("disconnect must not bypass an occupied channel")
	}
	if !strings.Contains(reason, "not empty") {
		t.Errorf("expected a channel-not-empty rejection, got %q", reason)
	}
}

func TestCheckVoiceAllowed(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	sess, _, _ := registry.CreateOrGet("guild1", "voice1")
	sess.BindHome("text1")
	gw.userVoice["user1"] = "voice1"

	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "text1", UserID: "user1"}, false)

	if s == nil || reason != "" {
		t.Errorf("expected access, got rejection %q", reason)
	}
}

func TestCheckVoiceBeforeHomeBound(t *testing.T) {
	registry, gw, _ := newTestRegistry(time.Minute)

	registry.CreateOrGet("guild1", "voice1")
	gw.userVoice["user1"] = "voice1"

	// Home not yet bound; any text channel may command the session.
	s, reason := registry.CheckVoice(Invocation{GuildID: "guild1", ChannelID: "anywhere", UserID: "user1"}, false)

	if s == nil {
		t.Errorf("unbound session should accept any text channel, got %q", reason)
	}
}
