package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	shared "github.com/fhsourav/sorcery/internal/features/shared"
	"github.com/fhsourav/sorcery/internal/lavalink"
	"github.com/fhsourav/sorcery/internal/music"
)

const (
	maxSuggestions   = 25
	maxChoiceLength  = 100
	searchTimeout    = 8 * time.Second
	defaultSourceTag = "ytsearch"
)

// milliToMinutes renders a track length as mm:ss, or hh:mm:ss past the hour.
func milliToMinutes(ms int64) string {
	total := ms / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// truncateChoice caps a label at Discord's choice limit. The limit counts
// characters, so the cut lands on a rune boundary, never mid-sequence.
func truncateChoice(label string) string {
	runes := []rune(label)
	if len(runes) <= maxChoiceLength {
		return label
	}
	return string(runes[:maxChoiceLength-1]) + "…"
}

func suggestionLabel(track lavalink.Track) string {
	return truncateChoice(fmt.Sprintf("[%s] %s by %s (%s)",
		milliToMinutes(track.Info.Length), track.Info.Title, track.Info.Author, track.Info.SourceName))
}

func playlistLabel(playlist *lavalink.Playlist) string {
	return truncateChoice(fmt.Sprintf("[playlist] %s (%d tracks)", playlist.Info.Name, len(playlist.Tracks)))
}

// Autocomplete rate limiting, one limiter per user. A user gets a burst of
// three lookups and then one every two seconds; throttled keystrokes are
// silently dropped.
var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*rate.Limiter)
)

func userLimiter(userID string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()

	if l, ok := limiters[userID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(2*time.Second), 3)
	limiters[userID] = l
	return l
}

// Autocomplete resolves the in-progress query against the audio node and
// caches each suggestion so the play command can resolve the user's pick by
// exact string match.
func Autocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || node == nil || registry == nil {
		respondChoices(s, i, nil)
		return
	}

	userID := shared.GetInteractionUserID(i)
	data := i.ApplicationCommandData()

	query := ""
	for _, opt := range data.Options {
		if opt.Focused {
			query = strings.TrimSpace(opt.StringValue())
		}
	}
	if query == "" {
		respondChoices(s, i, nil)
		return
	}

	if !userLimiter(userID).Allow() {
		respondChoices(s, i, nil)
		return
	}

	source := shared.GetOptionString(data.Options, "source")
	identifier := query
	if !strings.Contains(query, "://") {
		if source == "" {
			source = defaultSourceTag
		}
		identifier = source + ":" + query
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	result, err := node.Search(ctx, identifier)
	if err != nil {
		log.Debugf("autocomplete search failed: %v", err)
		respondChoices(s, i, nil)
		return
	}
	if result.Empty() {
		respondChoices(s, i, nil)
		return
	}

	entries := make(map[string]music.CachedResult)
	var choices []*discordgo.ApplicationCommandOptionChoice

	if result.Playlist != nil {
		label := playlistLabel(result.Playlist)
		entries[label] = music.CachedResult{Playlist: result.Playlist}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: label, Value: label})
	} else {
		for _, track := range result.Tracks {
			if len(choices) >= maxSuggestions {
				break
			}
			label := suggestionLabel(track)
			if _, dup := entries[label]; dup {
				continue
			}
			t := track
			entries[label] = music.CachedResult{Track: &t}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: label, Value: label})
		}
	}

	if cache := registry.Cache(); cache != nil {
		cache.Save(i.GuildID, userID, entries)
	}

	respondChoices(s, i, choices)
}

func respondChoices(s *discordgo.Session, i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		log.Debugf("autocomplete respond failed: %v", err)
	}
}
