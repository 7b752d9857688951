package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv
const (
	EnvConfigPath = "SYNC_PLAYER_CONFIG"
	EnvLogLevel   = "SYNC_PLAYER_LOG_LEVEL"
	EnvLogFile    = "SYNC_PLAYER_LOG_FILE"
	EnvSampleRate = "SYNC_PLAYER_SAMPLE_RATE"
)

// Config holds application configuration
type Config struct {
	SampleRate    int      `json:"sample_rate"`
	BufferMs      int      `json:"buffer_ms"`
	FrameMs       int      `json:"frame_ms"`
	DefaultVolume float64  `json:"default_volume"`
	SeekStep      float64  `json:"seek_step"`
	FadeSeconds   float64  `json:"fade_seconds"`
	LogLevel      string   `json:"log_level"`
	LogFile       string   `json:"log_file"`
	CueDirs       []string `json:"cue_dirs"`
	KeyBindings   KeyMap   `json:"key_bindings"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause   string `json:"play_pause"`
	SeekForward string `json:"seek_forward"`
	SeekBack    string `json:"seek_back"`
	AddMarker   string `json:"add_marker"`
	EraseMarker string `json:"erase_marker"`
	ToggleLoop  string `json:"toggle_loop"`
	NextSection string `json:"next_section"`
	Save        string `json:"save"`
	Quit        string `json:"quit"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		SampleRate:    44100,
		BufferMs:      100,
		FrameMs:       20,
		DefaultVolume: 0.5,
		SeekStep:      5,
		FadeSeconds:   0.1,
		LogLevel:      "info",
		CueDirs:       []string{},
		KeyBindings: KeyMap{
			PlayPause:   " ",
			SeekForward: "right",
			SeekBack:    "left",
			AddMarker:   "m",
			EraseMarker: "x",
			ToggleLoop:  "l",
			NextSection: "n",
			Save:        "s",
			Quit:        "q",
		},
	}
}

// Buffer returns the output buffer duration
func (c *Config) Buffer() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

// FrameInterval returns the time between synchronizer updates
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameMs) * time.Millisecond
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	case c.BufferMs <= 0:
		return fmt.Errorf("buffer_ms must be positive, got %d", c.BufferMs)
	case c.FrameMs <= 0:
		return fmt.Errorf("frame_ms must be positive, got %d", c.FrameMs)
	case c.DefaultVolume < 0 || c.DefaultVolume > 1:
		return fmt.Errorf("default_volume must be between 0 and 1, got %v", c.DefaultVolume)
	}
	return nil
}

// LoadConfig reads and unmarshals configuration from file. Fields missing
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists
func LoadOrCreate(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Save default config if file didn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return config, nil
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment without overriding what is already set. Missing files are
// skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides config fields from the environment
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv(EnvSampleRate); v != "" {
		sr, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSampleRate, err)
		}
		c.SampleRate = sr
	}
	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "syncplayer", "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "syncplayer", "config.json")
}
