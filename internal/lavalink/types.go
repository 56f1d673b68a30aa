package lavalink

import (
	"encoding/json"
	"time"
)

// AutoPlayMode mirrors the node wrapper's autoplay behaviour: disabled does
// nothing on track end, partial advances the queue, enabled additionally
// feeds the auto queue with recommended tracks.
type AutoPlayMode string

const (
	AutoPlayDisabled AutoPlayMode = "disabled"
	AutoPlayPartial  AutoPlayMode = "partial"
	AutoPlayEnabled  AutoPlayMode = "enabled"
)

type QueueMode string

const (
	QueueModeNormal  QueueMode = "normal"
	QueueModeLoop    QueueMode = "loop"
	QueueModeLoopAll QueueMode = "loop_all"
)

type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// ShouldAdvance reports whether a track that ended for this reason should be
// followed by the next queued track. Stopped/replaced ends are always the
// result of an explicit player call that has already decided what comes next.
func (r TrackEndReason) ShouldAdvance() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed
}

type TrackInfo struct {
	Identifier string `json:"identifier"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	IsSeekable bool   `json:"isSeekable"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// UserData is the requester metadata the bot staples onto a track for the
// lifetime of its stay in the queue.
type UserData struct {
	RequesterID string    `json:"requesterId,omitempty"`
	RequestedAt time.Time `json:"requestedAt,omitempty"`
	Recommended bool      `json:"recommended,omitempty"`
}

type Track struct {
	Encoded  string    `json:"encoded"`
	Info     TrackInfo `json:"info"`
	UserData UserData  `json:"userData"`
}

type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
}

type Playlist struct {
	Info   PlaylistInfo `json:"info"`
	Tracks []Track      `json:"tracks"`
}

type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// LoadResult is the decoded /v4/loadtracks response. Exactly one of Tracks
// and Playlist is populated for search/playlist loads.
type LoadResult struct {
	Type     LoadType
	Tracks   []Track
	Playlist *Playlist
}

func (r LoadResult) Empty() bool {
	return r.Type == LoadTypeEmpty || r.Type == LoadTypeError || (len(r.Tracks) == 0 && r.Playlist == nil)
}

type rawLoadResult struct {
	LoadType LoadType        `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

func decodeLoadResult(body []byte) (LoadResult, error) {
	var raw rawLoadResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return LoadResult{}, err
	}

	result := LoadResult{Type: raw.LoadType}

	switch raw.LoadType {
	case LoadTypeTrack:
		var track Track
		if err := json.Unmarshal(raw.Data, &track); err != nil {
			return LoadResult{}, err
		}
		result.Tracks = []Track{track}
	case LoadTypePlaylist:
		var playlist Playlist
		if err := json.Unmarshal(raw.Data, &playlist); err != nil {
			return LoadResult{}, err
		}
		result.Playlist = &playlist
		result.Tracks = playlist.Tracks
	case LoadTypeSearch:
		if err := json.Unmarshal(raw.Data, &result.Tracks); err != nil {
			return LoadResult{}, err
		}
	}

	return result, nil
}

// Filters carries the node's filter set. Nil members are omitted from the
// player update so untouched filters keep their server-side state.
type Filters struct {
	Volume     *float64    `json:"volume,omitempty"`
	Equalizer  []EqBand    `json:"equalizer,omitempty"`
	Timescale  *Timescale  `json:"timescale,omitempty"`
	Karaoke    *Karaoke    `json:"karaoke,omitempty"`
	Tremolo    *Oscillator `json:"tremolo,omitempty"`
	Vibrato    *Oscillator `json:"vibrato,omitempty"`
	Rotation   *Rotation   `json:"rotation,omitempty"`
	Distortion *Distortion `json:"distortion,omitempty"`
	ChannelMix *ChannelMix `json:"channelMix,omitempty"`
	LowPass    *LowPass    `json:"lowPass,omitempty"`
}

type EqBand struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type Timescale struct {
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
	Rate  float64 `json:"rate"`
}

type Karaoke struct {
	Level       float64 `json:"level"`
	MonoLevel   float64 `json:"monoLevel"`
	FilterBand  float64 `json:"filterBand"`
	FilterWidth float64 `json:"filterWidth"`
}

type Oscillator struct {
	Frequency float64 `json:"frequency"`
	Depth     float64 `json:"depth"`
}

type Rotation struct {
	RotationHz float64 `json:"rotationHz"`
}

type Distortion struct {
	SinOffset float64 `json:"sinOffset"`
	SinScale  float64 `json:"sinScale"`
	CosOffset float64 `json:"cosOffset"`
	CosScale  float64 `json:"cosScale"`
	TanOffset float64 `json:"tanOffset"`
	TanScale  float64 `json:"tanScale"`
	Offset    float64 `json:"offset"`
	Scale     float64 `json:"scale"`
}

type ChannelMix struct {
	LeftToLeft   float64 `json:"leftToLeft"`
	LeftToRight  float64 `json:"leftToRight"`
	RightToLeft  float64 `json:"rightToLeft"`
	RightToRight float64 `json:"rightToRight"`
}

type LowPass struct {
	Smoothing float64 `json:"smoothing"`
}

// EventListener receives node and playback notifications. All callbacks are
// invoked from the node's read loop, one at a time, in delivery order.
type EventListener interface {
	OnNodeReady(resumed bool, sessionID string)
	OnNodeClosed(err error)
	OnTrackStart(guildID string, track Track)
	OnTrackEnd(guildID string, track Track, reason TrackEndReason)
	OnTrackStuck(guildID string, track Track, thresholdMS int64)
	OnTrackException(guildID string, track Track, message string)
	OnPlayerInactive(guildID string)
}
