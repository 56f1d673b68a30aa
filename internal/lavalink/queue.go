package lavalink

import (
	"errors"
	"math/rand"
	"sync"
)

var (
	ErrQueueEmpty   = errors.New("queue is empty")
	ErrInvalidIndex = errors.New("queue index out of range")
)

// Queue is the in-memory per-player track queue with its playback history.
// All indices are 0-based; the command layer translates from the 1-based
// indices users see.
type Queue struct {
	mu      sync.Mutex
	items   []Track
	history []Track
	mode    QueueMode
}

func NewQueue() *Queue {
	return &Queue{mode: QueueModeNormal}
}

func (q *Queue) Put(track Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, track)
}

func (q *Queue) PutAt(index int, track Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(q.items) {
		index = len(q.items)
	}
	q.items = append(q.items[:index], append([]Track{track}, q.items[index:]...)...)
}

// Get pops the next track. The caller records it into the history once it
// has actually been played.
func (q *Queue) Get() (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Track{}, ErrQueueEmpty
	}
	track := q.items[0]
	q.items = q.items[1:]
	return track, nil
}

func (q *Queue) Peek(index int) (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.items) {
		return Track{}, ErrInvalidIndex
	}
	return q.items[index], nil
}

func (q *Queue) Delete(index int) (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.items) {
		return Track{}, ErrInvalidIndex
	}
	track := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return track, nil
}

func (q *Queue) Swap(i, j int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i < 0 || i >= len(q.items) || j < 0 || j >= len(q.items) {
		return ErrInvalidIndex
	}
	q.items[i], q.items[j] = q.items[j], q.items[i]
	return nil
}

func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Reset drops both the pending tracks and the history.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.history = nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Tracks() []Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	tracks := make([]Track, len(q.items))
	copy(tracks, q.items)
	return tracks
}

func (q *Queue) AddHistory(track Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.history = append(q.history, track)
}

// History returns the played tracks, oldest first.
func (q *Queue) History() []Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	tracks := make([]Track, len(q.history))
	copy(tracks, q.history)
	return tracks
}

func (q *Queue) ClearHistory() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.history = nil
}

func (q *Queue) Mode() QueueMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}

func (q *Queue) SetMode(mode QueueMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.mode = mode
}
