package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

const guildRepoTimeout = 2 * time.Second

// GuildRepository persists per-guild playback defaults. All methods are
// nil-safe so the bot runs fine without a database configured.
type GuildRepository struct {
	db *sql.DB
}

func NewGuildRepository() *GuildRepository {
	return &GuildRepository{db: GetDB()}
}

func (r *GuildRepository) UpsertSettings(guildID string, defaultVolume int, autoplayMode string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), guildRepoTimeout)
	defer cancel()

	const query = `
		INSERT INTO guild_music_settings (guild_id, default_volume, autoplay_mode, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			default_volume = EXCLUDED.default_volume,
			autoplay_mode = EXCLUDED.autoplay_mode,
			updated_at = NOW();
	`

	_, err := r.db.ExecContext(ctx, query, guildID, defaultVolume, autoplayMode)
	return err
}

func (r *GuildRepository) GetSettings(guildID string) (int, string, bool, error) {
	if r == nil || r.db == nil {
		return 0, "", false, nil
	}
	if guildID == "" {
		return 0, "", false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), guildRepoTimeout)
	defer cancel()

	const query = `
		SELECT default_volume, autoplay_mode
		FROM guild_music_settings
		WHERE guild_id = $1
	`

	var volume int
	var autoplayMode string
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(&volume, &autoplayMode)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}

	return volume, autoplayMode, true, nil
}

func (r *GuildRepository) DeleteSettings(guildID string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), guildRepoTimeout)
	defer cancel()

	const query = `
		DELETE FROM guild_music_settings
		WHERE guild_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, guildID)
	return err
}

// Defaults adapts the repository to the session registry's settings lookup.
// Lookup failures fall back to the configured defaults rather than blocking
// session creation.
func (r *GuildRepository) Defaults(guildID string) (int, string, bool) {
	volume, autoplayMode, ok, err := r.GetSettings(guildID)
	if err != nil {
		logrus.Warnf("failed to load settings for guild %s: %v", guildID, err)
		return 0, "", false
	}
	return volume, autoplayMode, ok
}
