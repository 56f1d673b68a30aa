package music

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

// fakeGateway records every outbound effect so tests can assert on exactly
// what the lifecycle code did.
type fakeGateway struct {
	mu sync.Mutex

	messages  []string
	embeds    []*discordgo.MessageEmbed
	statuses  map[string]string
	joins     []string
	disconns  int
	joinErr   error
	humans    map[string]int
	occupants map[string]int
	userVoice map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statuses:  make(map[string]string),
		humans:    make(map[string]int),
		occupants: make(map[string]int),
		userVoice: make(map[string]string),
	}
}

func (g *fakeGateway) Send(channelID, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, content)
}

func (g *fakeGateway) SendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.embeds = append(g.embeds, embed)
}

func (g *fakeGateway) JoinVoice(guildID, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.joinErr != nil {
		return g.joinErr
	}
	g.joins = append(g.joins, channelID)
	return nil
}

func (g *fakeGateway) DisconnectVoice(guildID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconns++
	return nil
}

func (g *fakeGateway) SetVoiceStatus(channelID, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[channelID] = status
	return nil
}

func (g *fakeGateway) ClearVoiceStatusIf(channelID, expected string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statuses[channelID] == expected {
		delete(g.statuses, channelID)
	}
	return nil
}

func (g *fakeGateway) HumanCount(guildID, channelID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.humans[channelID]
}

func (g *fakeGateway) OccupantCount(guildID, channelID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.occupants[channelID]
}

func (g *fakeGateway) UserVoiceChannel(guildID, userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userVoice[userID]
}

func (g *fakeGateway) messageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.messages)
}

func (g *fakeGateway) lastMessage() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.messages) == 0 {
		return ""
	}
	return g.messages[len(g.messages)-1]
}

func (g *fakeGateway) disconnCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disconns
}

func (g *fakeGateway) allMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.messages))
	copy(out, g.messages)
	return out
}

func (g *fakeGateway) status(channelID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statuses[channelID]
}

// fakePlayer implements Player without a node behind it.
type fakePlayer struct {
	mu sync.Mutex

	queue     *lavalink.Queue
	autoQueue *lavalink.Queue
	playing   bool
	paused    bool
	position  int64
	volume    int
	autoplay  lavalink.AutoPlayMode

	pauseCalls []bool
	skipCalls  []bool
	destroys   int
	playErr    error

	// pauseHook runs once, before the next Pause(true) takes effect, to
	// model work racing the in-flight pause request.
	pauseHook func()
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		queue:     lavalink.NewQueue(),
		autoQueue: lavalink.NewQueue(),
		volume:    100,
		autoplay:  lavalink.AutoPlayPartial,
	}
}

func (p *fakePlayer) Play(track lavalink.Track, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	p.paused = false
	return nil
}

func (p *fakePlayer) Skip(force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipCalls = append(p.skipCalls, force)
	p.playing = false
	return nil
}

func (p *fakePlayer) Pause(paused bool) error {
	if paused {
		p.mu.Lock()
		hook := p.pauseHook
		p.pauseHook = nil
		p.mu.Unlock()
		if hook != nil {
			hook()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauseCalls = append(p.pauseCalls, paused)
	p.paused = paused
	return nil
}

func (p *fakePlayer) Seek(positionMS int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = positionMS
	return nil
}

func (p *fakePlayer) SetVolume(volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	return nil
}

func (p *fakePlayer) SetFilters(filters lavalink.Filters) error { return nil }

func (p *fakePlayer) Queue() *lavalink.Queue     { return p.queue }
func (p *fakePlayer) AutoQueue() *lavalink.Queue { return p.autoQueue }

func (p *fakePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *fakePlayer) Current() *lavalink.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return nil
	}
	return &lavalink.Track{Info: lavalink.TrackInfo{Title: "current"}}
}

func (p *fakePlayer) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *fakePlayer) AutoplayMode() lavalink.AutoPlayMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoplay
}

func (p *fakePlayer) SetAutoplayMode(mode lavalink.AutoPlayMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoplay = mode
}

func (p *fakePlayer) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroys++
	p.playing = false
	return nil
}

func (p *fakePlayer) destroyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroys
}

func (p *fakePlayer) lastSkipForce() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.skipCalls) == 0 {
		return false, false
	}
	return p.skipCalls[len(p.skipCalls)-1], true
}

var errJoinRefused = errors.New("join refused")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newTestRegistry wires a registry to a fake gateway and a single fake player
// handed out for every guild.
func newTestRegistry(grace time.Duration) (*Registry, *fakeGateway, *fakePlayer) {
	gw := newFakeGateway()
	player := newFakePlayer()

	registry := NewRegistry(RegistryConfig{
		NewPlayer:     func(guildID string) Player { return player },
		Gateway:       gw,
		Cache:         NewSearchCache(nil, time.Minute, quietLogger()),
		GracePeriod:   grace,
		DefaultVolume: 30,
		Logger:        quietLogger(),
	})
	return registry, gw, player
}
