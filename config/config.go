package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken  string
	ApplicationID string

	GuildID string

	LogLevel string

	LavalinkAddress  string
	LavalinkPassword string

	InactivityTimeout int
	DefaultVolume     int
	SearchCacheTTL    int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		ApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),

		GuildID: os.Getenv("DISCORD_GUILD_ID"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		LavalinkAddress:  os.Getenv("LAVALINK_ADDRESS"),
		LavalinkPassword: os.Getenv("LAVALINK_PASSWORD"),

		InactivityTimeout: getEnvAsIntWithDefault("INACTIVITY_TIMEOUT", 120),
		DefaultVolume:     getEnvAsIntWithDefault("DEFAULT_VOLUME", 30),
		SearchCacheTTL:    getEnvAsIntWithDefault("SEARCH_CACHE_TTL", 120),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvAsInt("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  os.Getenv("DB_SSLMODE"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvAsInt("REDIS_PORT"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}

	if c.ApplicationID == "" {
		return errors.New("DISCORD_APPLICATION_ID is required")
	}

	if c.LavalinkAddress == "" {
		return errors.New("LAVALINK_ADDRESS is required")
	}

	if c.DefaultVolume < 0 || c.DefaultVolume > 200 {
		return errors.New("DEFAULT_VOLUME must be between 0 and 200")
	}

	if c.InactivityTimeout < 1 {
		return errors.New("INACTIVITY_TIMEOUT must be at least 1 second")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.GuildID != ""
}

func getEnvAsInt(key string) int {
	return getEnvAsIntWithDefault(key, 0)
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
