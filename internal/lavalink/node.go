package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	ErrNodeNotReady = errors.New("audio node session is not ready")
	ErrNoListener   = errors.New("no event listener registered")
)

type NodeConfig struct {
	// Address is the node's base URL including scheme, e.g. http://localhost:2333.
	Address  string
	Password string
	// UserID is the bot's Discord user ID, sent on the websocket handshake.
	UserID string
	// InactiveTimeout is how long a player may sit with no current track and
	// an empty queue before the node wrapper reports it inactive. Zero
	// disables the check.
	InactiveTimeout time.Duration
	Logger          *logrus.Logger
}

// Node is a client for a single Lavalink v4 node: REST for track loading and
// player updates, a websocket for the event stream.
type Node struct {
	address         string
	password        string
	userID          string
	inactiveTimeout time.Duration
	log             *logrus.Logger
	httpc           *http.Client

	mu        sync.Mutex
	sessionID string
	conn      *websocket.Conn
	players   map[string]*Player
	listener  EventListener
	closing   bool
}

func New(cfg NodeConfig) *Node {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Node{
		address:         strings.TrimRight(cfg.Address, "/"),
		password:        cfg.Password,
		userID:          cfg.UserID,
		inactiveTimeout: cfg.InactiveTimeout,
		log:             logger,
		httpc:           &http.Client{Timeout: 15 * time.Second},
		players:         make(map[string]*Player),
	}
}

func (n *Node) SetListener(listener EventListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listener = listener
}

// Open dials the event websocket and starts the read loop.
func (n *Node) Open(ctx context.Context) error {
	wsURL := strings.Replace(n.address, "http", "ws", 1) + "/v4/websocket"

	header := http.Header{}
	header.Set("Authorization", n.password)
	header.Set("User-Id", n.userID)
	header.Set("Client-Name", "sorcery/1.0")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to audio node at %s: %w", wsURL, err)
	}

	n.mu.Lock()
	n.conn = conn
	n.closing = false
	n.mu.Unlock()

	go n.readLoop(conn)
	return nil
}

func (n *Node) Close() {
	n.mu.Lock()
	n.closing = true
	conn := n.conn
	n.conn = nil
	players := make([]*Player, 0, len(n.players))
	for _, p := range n.players {
		players = append(players, p)
	}
	n.players = make(map[string]*Player)
	n.mu.Unlock()

	for _, p := range players {
		p.stopInactiveTimer()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// Player returns the guild's player, creating one if needed.
func (n *Node) Player(guildID string) *Player {
	n.mu.Lock()
	defer n.mu.Unlock()

	if p, ok := n.players[guildID]; ok {
		return p
	}
	p := newPlayer(n, guildID)
	n.players[guildID] = p
	return p
}

func (n *Node) ExistingPlayer(guildID string) *Player {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.players[guildID]
}

// RemovePlayer destroys the guild's player on the node and forgets it.
func (n *Node) RemovePlayer(guildID string) {
	n.mu.Lock()
	p, ok := n.players[guildID]
	delete(n.players, guildID)
	n.mu.Unlock()

	if ok {
		if err := p.Destroy(); err != nil {
			n.log.Debugf("failed to destroy player for guild %s: %v", guildID, err)
		}
	}
}

// Search loads tracks for a query. Prefix the query with a source hint such
// as ytsearch:, ytmsearch: or scsearch:, or pass a plain URL.
func (n *Node) Search(ctx context.Context, query string) (LoadResult, error) {
	endpoint := fmt.Sprintf("%s/v4/loadtracks?identifier=%s", n.address, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LoadResult{}, err
	}
	req.Header.Set("Authorization", n.password)

	resp, err := n.httpc.Do(req)
	if err != nil {
		return LoadResult{}, fmt.Errorf("track load request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoadResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return LoadResult{}, fmt.Errorf("track load returned status %d: %s", resp.StatusCode, string(body))
	}

	return decodeLoadResult(body)
}

type playerUpdate struct {
	Track    *updateTrack      `json:"track,omitempty"`
	Position *int64            `json:"position,omitempty"`
	Volume   *int              `json:"volume,omitempty"`
	Paused   *bool             `json:"paused,omitempty"`
	Filters  *Filters          `json:"filters,omitempty"`
	Voice    *voiceServerState `json:"voice,omitempty"`
}

// updateTrack marshals Encoded as an explicit null when unset; a null track
// tells the node to stop playback.
type updateTrack struct {
	Encoded  *string     `json:"encoded"`
	UserData interface{} `json:"userData,omitempty"`
}

type voiceServerState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

func (n *Node) updatePlayer(guildID string, update playerUpdate, noReplace bool) error {
	n.mu.Lock()
	sessionID := n.sessionID
	n.mu.Unlock()

	if sessionID == "" {
		return ErrNodeNotReady
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s?noReplace=%t", n.address, sessionID, guildID, noReplace)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", n.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("player update request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("player update returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (n *Node) destroyPlayer(guildID string) error {
	n.mu.Lock()
	sessionID := n.sessionID
	n.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s", n.address, sessionID, guildID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", n.password)

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("player destroy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("player destroy returned status %d", resp.StatusCode)
	}
	return nil
}

type wsMessage struct {
	Op          string          `json:"op"`
	Resumed     bool            `json:"resumed"`
	SessionID   string          `json:"sessionId"`
	Type        string          `json:"type"`
	GuildID     string          `json:"guildId"`
	Track       *Track          `json:"track"`
	Reason      TrackEndReason  `json:"reason"`
	ThresholdMS int64           `json:"thresholdMs"`
	Exception   *wsException    `json:"exception"`
	State       *wsPlayerState  `json:"state"`
	Raw         json.RawMessage `json:"-"`
}

type wsException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

type wsPlayerState struct {
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
}

func (n *Node) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			n.mu.Lock()
			closing := n.closing
			listener := n.listener
			n.mu.Unlock()

			if !closing {
				n.log.Warnf("audio node websocket closed: %v", err)
				if listener != nil {
					listener.OnNodeClosed(err)
				}
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			n.log.Debugf("failed to decode node message: %v", err)
			continue
		}

		n.handleMessage(msg)
	}
}

func (n *Node) handleMessage(msg wsMessage) {
	n.mu.Lock()
	listener := n.listener
	n.mu.Unlock()

	switch msg.Op {
	case "ready":
		n.mu.Lock()
		n.sessionID = msg.SessionID
		n.mu.Unlock()

		n.log.Infof("audio node ready (session %s, resumed=%t)", msg.SessionID, msg.Resumed)
		if listener != nil {
			listener.OnNodeReady(msg.Resumed, msg.SessionID)
		}
	case "playerUpdate":
		if msg.State != nil {
			if p := n.ExistingPlayer(msg.GuildID); p != nil {
				p.handlePlayerUpdate(msg.State.Position)
			}
		}
	case "stats":
		// Periodic node statistics; nothing consumes them yet.
	case "event":
		n.handleEvent(msg, listener)
	}
}

func (n *Node) handleEvent(msg wsMessage, listener EventListener) {
	if msg.Track == nil && msg.Type != "WebSocketClosedEvent" {
		return
	}

	player := n.ExistingPlayer(msg.GuildID)

	switch msg.Type {
	case "TrackStartEvent":
		if player != nil {
			player.handleTrackStart(*msg.Track)
		}
		if listener != nil {
			listener.OnTrackStart(msg.GuildID, *msg.Track)
		}
	case "TrackEndEvent":
		if player != nil {
			player.handleTrackEnd(*msg.Track, msg.Reason)
		}
		if listener != nil {
			listener.OnTrackEnd(msg.GuildID, *msg.Track, msg.Reason)
		}
	case "TrackStuckEvent":
		if listener != nil {
			listener.OnTrackStuck(msg.GuildID, *msg.Track, msg.ThresholdMS)
		}
	case "TrackExceptionEvent":
		message := "unknown playback error"
		if msg.Exception != nil && msg.Exception.Message != "" {
			message = msg.Exception.Message
		}
		if listener != nil {
			listener.OnTrackException(msg.GuildID, *msg.Track, message)
		}
	case "WebSocketClosedEvent":
		n.log.Debugf("discord voice websocket closed for guild %s", msg.GuildID)
	}
}

func (n *Node) dispatchPlayerInactive(guildID string) {
	n.mu.Lock()
	listener := n.listener
	n.mu.Unlock()

	if listener != nil {
		listener.OnPlayerInactive(guildID)
	}
}
