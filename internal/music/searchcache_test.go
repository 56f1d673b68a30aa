package music

import (
	"testing"
	"time"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

func TestSearchCacheSaveAndResolve(t *testing.T) {
	cache := NewSearchCache(nil, time.Minute, quietLogger())

	track := testTrack("song")
	cache.Save("guild1", "user1", map[string]CachedResult{
		"[03:05] song by some artist": {Track: &track},
	})

	result, ok := cache.Resolve("guild1", "user1", "[03:05] song by some artist")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if result.Track == nil || result.Track.Info.Title != "song" {
		t.Error("resolved entry should carry the cached track")
	}

	if _, ok := cache.Resolve("guild1", "user1", "something else"); ok {
		t.Error("unknown display strings must miss")
	}
	if _, ok := cache.Resolve("guild1", "user2", "[03:05] song by some artist"); ok {
		t.Error("another user's cache must not be visible")
	}
}

func TestSearchCacheNewQueryOverwrites(t *testing.T) {
	cache := NewSearchCache(nil, time.Minute, quietLogger())

	first := testTrack("first")
	second := testTrack("second")

	cache.Save("guild1", "user1", map[string]CachedResult{"first": {Track: &first}})
	cache.Save("guild1", "user1", map[string]CachedResult{"second": {Track: &second}})

	if _, ok := cache.Resolve("guild1", "user1", "first"); ok {
		t.Error("a new query must replace the previous results")
	}
	if _, ok := cache.Resolve("guild1", "user1", "second"); !ok {
		t.Error("the latest results should resolve")
	}
}

func TestSearchCacheExpires(t *testing.T) {
	cache := NewSearchCache(nil, 10*time.Millisecond, quietLogger())

	track := testTrack("song")
	cache.Save("guild1", "user1", map[string]CachedResult{"song": {Track: &track}})

	time.Sleep(25 * time.Millisecond)

	if _, ok := cache.Resolve("guild1", "user1", "song"); ok {
		t.Error("entries must expire after the TTL")
	}
}

func TestSearchCacheClearGuild(t *testing.T) {
	cache := NewSearchCache(nil, time.Minute, quietLogger())

	track := testTrack("song")
	cache.Save("guild1", "user1", map[string]CachedResult{"song": {Track: &track}})
	cache.Save("guild1", "user2", map[string]CachedResult{"song": {Track: &track}})
	cache.Save("guild2", "user1", map[string]CachedResult{"song": {Track: &track}})

	cache.ClearGuild("guild1")

	if _, ok := cache.Resolve("guild1", "user1", "song"); ok {
		t.Error("guild1 entries should be gone")
	}
	if _, ok := cache.Resolve("guild1", "user2", "song"); ok {
		t.Error("every guild1 user should be cleared")
	}
	if _, ok := cache.Resolve("guild2", "user1", "song"); !ok {
		t.Error("other guilds must be untouched")
	}

	playlist := &lavalink.Playlist{Info: lavalink.PlaylistInfo{Name: "mix"}}
	cache.Save("guild1", "user1", map[string]CachedResult{"mix": {Playlist: playlist}})
	result, ok := cache.Resolve("guild1", "user1", "mix")
	if !ok || result.Playlist == nil || result.Playlist.Info.Name != "mix" {
		t.Error("playlists should round-trip through the cache")
	}
}
