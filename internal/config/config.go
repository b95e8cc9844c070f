// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Output names the media element implementation.
type Output string

const (
	OutputMPD     Output = "mpd"
	OutputSpeaker Output = "speaker"
)

// Config holds every runtime setting.
type Config struct {
	Port   string
	Output Output

	MPDHost     string
	MPDPort     int
	MPDPassword string

	MediaRoot string // resolves rooted track sources for the speaker output
	DataDir   string // holds the library database
	Catalog   string // JSON file of available tracks

	RedisAddr     string // empty keeps play counts in memory
	RedisPassword string
	RedisDB       int

	FreePlays int // 0 disables the free-tier gate

	MaxRemoteClients int // 0 disables the cap; loopback clients are never limited

	LogLevel string
	LogFile  string // empty logs to the console only
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment take precedence over the file.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded, using environment and defaults")
	}

	dataDir := getEnv("PP_DATA_DIR", "data")
	return &Config{
		Port:          getEnv("PP_PORT", "3001"),
		Output:        Output(strings.ToLower(getEnv("PP_OUTPUT", string(OutputMPD)))),
		MPDHost:       getEnv("PP_MPD_HOST", "localhost"),
		MPDPort:       getEnvInt("PP_MPD_PORT", 6600),
		MPDPassword:   os.Getenv("PP_MPD_PASSWORD"),
		MediaRoot:     getEnv("PP_MEDIA_ROOT", "media"),
		DataDir:       dataDir,
		Catalog:       getEnv("PP_CATALOG", filepath.Join(dataDir, "catalog.json")),
		RedisAddr:     getEnv("PP_REDIS_ADDR", ""),
		RedisPassword: os.Getenv("PP_REDIS_PASSWORD"),
		RedisDB:       getEnvInt("PP_REDIS_DB", 0),
		FreePlays:     getEnvInt("PP_FREE_PLAYS", 0),
		LogLevel:      getEnv("PP_LOG_LEVEL", "info"),
		LogFile:       getEnv("PP_LOG_FILE", ""),

		MaxRemoteClients: getEnvInt("PP_MAX_REMOTE_CLIENTS", 4),
	}
}

// DBPath is where the library database lives.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pyramidplay.db")
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputMPD, OutputSpeaker:
	default:
		return fmt.Errorf("unknown output %q (want %q or %q)", c.Output, OutputMPD, OutputSpeaker)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q: %w", c.Port, err)
	}
	if c.FreePlays < 0 {
		return fmt.Errorf("free plays must not be negative, got %d", c.FreePlays)
	}
	if c.MaxRemoteClients < 0 {
		return fmt.Errorf("max remote clients must not be negative, got %d", c.MaxRemoteClients)
	}
	return nil
}
