package lavalink

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const autoQueueRefillThreshold = 3

// Player is the per-guild handle onto the audio node. Queue contents and
// playback state live here; the node only ever knows about the single track
// it is currently decoding.
type Player struct {
	node    *Node
	guildID string

	queue     *Queue
	autoQueue *Queue

	mu       sync.Mutex
	current  *Track
	paused   bool
	position int64
	volume   int
	autoplay AutoPlayMode

	voiceToken     string
	voiceEndpoint  string
	voiceSessionID string

	inactiveTimer *time.Timer
}

func newPlayer(node *Node, guildID string) *Player {
	return &Player{
		node:      node,
		guildID:   guildID,
		queue:     NewQueue(),
		autoQueue: NewQueue(),
		volume:    100,
		autoplay:  AutoPlayPartial,
	}
}

func (p *Player) GuildID() string   { return p.guildID }
func (p *Player) Queue() *Queue     { return p.queue }
func (p *Player) AutoQueue() *Queue { return p.autoQueue }

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	track := *p.current
	return &track
}

func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) AutoplayMode() AutoPlayMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoplay
}

func (p *Player) SetAutoplayMode(mode AutoPlayMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoplay = mode
}

// Play pushes the given track to the node, replacing whatever is playing.
// A volume < 0 keeps the player's current volume.
func (p *Player) Play(track Track, volume int) error {
	p.stopInactiveTimer()

	p.mu.Lock()
	if volume < 0 {
		volume = p.volume
	}
	p.volume = volume
	p.mu.Unlock()

	paused := false
	update := playerUpdate{
		Track:  &updateTrack{Encoded: &track.Encoded, UserData: track.UserData},
		Volume: &volume,
		Paused: &paused,
	}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

// Skip ends the current track and moves on to whatever the queue mode says
// comes next; with nothing queued it stops playback. force skips even when
// the queue mode would replay the current track.
func (p *Player) Skip(force bool) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return ErrQueueEmpty
	}
	ended := *p.current
	p.mu.Unlock()

	next, ok := p.nextTrack(ended, force)
	if ok {
		return p.Play(next, -1)
	}
	return p.stopPlayback()
}

func (p *Player) stopPlayback() error {
	update := playerUpdate{Track: &updateTrack{Encoded: nil}}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

func (p *Player) Pause(paused bool) error {
	update := playerUpdate{Paused: &paused}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to set paused=%t: %w", paused, err)
	}

	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
	return nil
}

func (p *Player) Seek(positionMS int64) error {
	update := playerUpdate{Position: &positionMS}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	p.mu.Lock()
	p.position = positionMS
	p.mu.Unlock()
	return nil
}

func (p *Player) SetVolume(volume int) error {
	update := playerUpdate{Volume: &volume}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	return nil
}

func (p *Player) SetFilters(filters Filters) error {
	update := playerUpdate{Filters: &filters}
	if err := p.node.updatePlayer(p.guildID, update, false); err != nil {
		return fmt.Errorf("failed to set filters: %w", err)
	}
	return nil
}

// OnVoiceServerUpdate feeds the Discord voice server credentials through to
// the node. The player cannot produce audio until both the server update and
// the bot's own voice state have arrived.
func (p *Player) OnVoiceServerUpdate(token, endpoint string) {
	p.mu.Lock()
	p.voiceToken = token
	p.voiceEndpoint = endpoint
	p.mu.Unlock()
	p.sendVoiceUpdate()
}

func (p *Player) OnVoiceStateUpdate(voiceSessionID string) {
	p.mu.Lock()
	p.voiceSessionID = voiceSessionID
	p.mu.Unlock()
	p.sendVoiceUpdate()
}

func (p *Player) sendVoiceUpdate() {
	p.mu.Lock()
	if p.voiceToken == "" || p.voiceEndpoint == "" || p.voiceSessionID == "" {
		p.mu.Unlock()
		return
	}
	voice := voiceServerState{
		Token:     p.voiceToken,
		Endpoint:  p.voiceEndpoint,
		SessionID: p.voiceSessionID,
	}
	p.mu.Unlock()

	if err := p.node.updatePlayer(p.guildID, playerUpdate{Voice: &voice}, true); err != nil {
		p.node.log.Warnf("failed to forward voice update for guild %s: %v", p.guildID, err)
	}
}

// Destroy removes the player from the node and drops its queues, so a later
// session for the same guild starts clean. Safe to call twice.
func (p *Player) Destroy() error {
	p.stopInactiveTimer()

	p.mu.Lock()
	p.current = nil
	p.position = 0
	p.mu.Unlock()

	p.queue.Reset()
	p.queue.SetMode(QueueModeNormal)
	p.autoQueue.Reset()

	return p.node.destroyPlayer(p.guildID)
}

func (p *Player) handleTrackStart(track Track) {
	p.stopInactiveTimer()

	p.mu.Lock()
	t := track
	p.current = &t
	p.paused = false
	p.position = 0
	autoplay := p.autoplay
	p.mu.Unlock()

	if autoplay == AutoPlayEnabled && p.autoQueue.Len() < autoQueueRefillThreshold {
		go p.refillAutoQueue(track)
	}
}

func (p *Player) handleTrackEnd(track Track, reason TrackEndReason) {
	p.queue.AddHistory(track)
	if track.UserData.Recommended {
		p.autoQueue.AddHistory(track)
	}

	p.mu.Lock()
	p.current = nil
	p.position = 0
	autoplay := p.autoplay
	p.mu.Unlock()

	if reason.ShouldAdvance() && autoplay != AutoPlayDisabled {
		if next, ok := p.nextTrack(track, false); ok {
			if err := p.Play(next, -1); err != nil {
				p.node.log.Warnf("failed to play next track for guild %s: %v", p.guildID, err)
			}
			return
		}
	}

	// A replaced track is immediately followed by the replacement; every
	// other dead end leaves the player idle.
	if reason != TrackEndReplaced {
		p.startInactiveTimer()
	}
}

func (p *Player) handlePlayerUpdate(positionMS int64) {
	p.mu.Lock()
	p.position = positionMS
	p.mu.Unlock()
}

// nextTrack picks what follows the ended track according to the queue mode
// and the autoplay mode. force overrides loop-one replaying.
func (p *Player) nextTrack(ended Track, force bool) (Track, bool) {
	mode := p.queue.Mode()

	if mode == QueueModeLoop && !force {
		return ended, true
	}

	if next, err := p.queue.Get(); err == nil {
		if mode == QueueModeLoopAll {
			p.queue.Put(ended)
		}
		return next, true
	}

	if p.AutoplayMode() == AutoPlayEnabled {
		if next, err := p.autoQueue.Get(); err == nil {
			return next, true
		}
	}

	return Track{}, false
}

func (p *Player) refillAutoQueue(seed Track) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("ytmsearch:%s %s", seed.Info.Author, seed.Info.Title)
	result, err := p.node.Search(ctx, query)
	if err != nil {
		p.node.log.Debugf("autoplay recommendation search failed for guild %s: %v", p.guildID, err)
		return
	}

	// The seed, pending recommendations and already-played recommendations
	// are all off limits, so autoplay does not loop the same few tracks.
	seen := map[string]bool{seed.Info.Identifier: true}
	for _, t := range p.autoQueue.Tracks() {
		seen[t.Info.Identifier] = true
	}
	for _, t := range p.autoQueue.History() {
		seen[t.Info.Identifier] = true
	}

	for _, track := range result.Tracks {
		if seen[track.Info.Identifier] {
			continue
		}
		track.UserData = UserData{Recommended: true, RequestedAt: time.Now().UTC()}
		p.autoQueue.Put(track)
		if p.autoQueue.Len() >= autoQueueRefillThreshold {
			break
		}
	}
}

func (p *Player) startInactiveTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.node.inactiveTimeout <= 0 {
		return
	}
	if p.inactiveTimer != nil {
		p.inactiveTimer.Stop()
	}
	p.inactiveTimer = time.AfterFunc(p.node.inactiveTimeout, func() {
		p.mu.Lock()
		idle := p.current == nil
		p.inactiveTimer = nil
		p.mu.Unlock()

		if idle {
			p.node.dispatchPlayerInactive(p.guildID)
		}
	})
}

func (p *Player) stopInactiveTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inactiveTimer != nil {
		p.inactiveTimer.Stop()
		p.inactiveTimer = nil
	}
}
