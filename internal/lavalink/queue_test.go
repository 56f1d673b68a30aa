package lavalink

import (
	"errors"
	"testing"
)

func track(title string) Track {
	return Track{Encoded: "enc-" + title, Info: TrackInfo{Title: title}}
}

func titles(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Info.Title
	}
	return out
}

func TestQueueOrdering(t *testing.T) {
	q := NewQueue()
	q.Put(track("a"))
	q.Put(track("b"))
	q.PutAt(0, track("c"))

	got := titles(q.Tracks())
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	first, err := q.Get()
	if err != nil || first.Info.Title != "c" {
		t.Errorf("expected to pop c, got %s (%v)", first.Info.Title, err)
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 remaining, got %d", q.Len())
	}
}

func TestQueueGetEmpty(t *testing.T) {
	q := NewQueue()
	if _, err := q.Get(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestQueueDelete(t *testing.T) {
	q := NewQueue()
	q.Put(track("a"))
	q.Put(track("b"))
	q.Put(track("c"))

	removed, err := q.Delete(1)
	if err != nil || removed.Info.Title != "b" {
		t.Fatalf("expected to delete b, got %s (%v)", removed.Info.Title, err)
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 tracks left, got %d", q.Len())
	}

	if _, err := q.Delete(5); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := q.Delete(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for negative index, got %v", err)
	}
}

func TestQueueSwap(t *testing.T) {
	q := NewQueue()
	q.Put(track("a"))
	q.Put(track("b"))
	q.Put(track("c"))

	if err := q.Swap(0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := titles(q.Tracks())
	if got[0] != "c" || got[2] != "a" {
		t.Errorf("swap failed, got %v", got)
	}

	if err := q.Swap(0, 9); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestQueueResetDropsHistory(t *testing.T) {
	q := NewQueue()
	q.Put(track("a"))
	q.AddHistory(track("played"))

	q.Clear()
	if len(q.History()) != 1 {
		t.Error("clear must keep the history")
	}

	q.Put(track("b"))
	q.Reset()
	if q.Len() != 0 || len(q.History()) != 0 {
		t.Error("reset must drop both pending tracks and history")
	}
}

func TestTrackEndRecordsAutoplayHistory(t *testing.T) {
	p := newPlayer(New(NodeConfig{Address: "http://localhost:2333"}), "guild1")
	p.SetAutoplayMode(AutoPlayDisabled)

	recommended := track("rec")
	recommended.UserData.Recommended = true

	p.handleTrackEnd(track("requested"), TrackEndFinished)
	p.handleTrackEnd(recommended, TrackEndFinished)

	if len(p.Queue().History()) != 2 {
		t.Errorf("expected both tracks in the main history, got %d", len(p.Queue().History()))
	}
	autoHistory := p.AutoQueue().History()
	if len(autoHistory) != 1 || autoHistory[0].Info.Title != "rec" {
		t.Errorf("only recommended tracks belong in the autoplay history, got %v", titles(autoHistory))
	}
}

func TestTrackEndReasonShouldAdvance(t *testing.T) {
	cases := map[TrackEndReason]bool{
		TrackEndFinished:   true,
		TrackEndLoadFailed: true,
		TrackEndStopped:    false,
		TrackEndReplaced:   false,
		TrackEndCleanup:    false,
	}
	for reason, want := range cases {
		if got := reason.ShouldAdvance(); got != want {
			t.Errorf("ShouldAdvance(%s) = %t, want %t", reason, got, want)
		}
	}
}

func TestDecodeLoadResult(t *testing.T) {
	searchBody := []byte(`{"loadType":"search","data":[{"encoded":"abc","info":{"title":"song","author":"artist"}}]}`)
	result, err := decodeLoadResult(searchBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != LoadTypeSearch || len(result.Tracks) != 1 || result.Tracks[0].Info.Title != "song" {
		t.Errorf("bad search decode: %+v", result)
	}

	playlistBody := []byte(`{"loadType":"playlist","data":{"info":{"name":"mix","selectedTrack":0},"tracks":[{"encoded":"a","info":{"title":"one"}},{"encoded":"b","info":{"title":"two"}}]}}`)
	result, err = decodeLoadResult(playlistBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Playlist == nil || result.Playlist.Info.Name != "mix" || len(result.Tracks) != 2 {
		t.Errorf("bad playlist decode: %+v", result)
	}

	emptyBody := []byte(`{"loadType":"empty","data":null}`)
	result, err = decodeLoadResult(emptyBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Empty() {
		t.Error("empty load should report Empty()")
	}
}
