package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Network NetworkConfig `toml:"network"`
	Account AccountConfig `toml:"account"`
	World   WorldConfig   `toml:"world"`
	Data    DataConfig    `toml:"data"`
	Store   StoreConfig   `toml:"store"`
	Capture CaptureConfig `toml:"capture"`
	Logging LoggingConfig `toml:"logging"`
}

type NetworkConfig struct {
	Host              string        `toml:"host"`
	Port              int           `toml:"port"`
	Transport         string        `toml:"transport"`  // "tcp" or "websocket"
	Encryption        string        `toml:"encryption"` // "none", "xor" or "twofish"
	TickRate          time.Duration `toml:"tick_rate"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	DialTimeout       time.Duration `toml:"dial_timeout"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	DefaultLength     int           `toml:"unknown_default_length"` // framing for unknown fixed opcodes
	ClientVersion     [4]uint32     `toml:"client_version"`
}

type AccountConfig struct {
	Name      string `toml:"name"`
	Password  string `toml:"password"`
	Shard     string `toml:"shard"`     // empty = last used, else first listed
	Character string `toml:"character"` // empty = last used, else first slot
}

type WorldConfig struct {
	AutoDeleteRange   int           `toml:"auto_delete_range"`
	SectorCacheRadius int           `toml:"sector_cache_radius"` // in sectors around the player's
	MapWidth          int           `toml:"map_width"`
	MapHeight         int           `toml:"map_height"`
	SpeechDuration    time.Duration `toml:"speech_duration"`
	SystemLogLimit    int           `toml:"system_log_limit"`
	SystemLogTTL      time.Duration `toml:"system_log_ttl"`
}

type DataConfig struct {
	MapList        string `toml:"map_list"`
	TileDir        string `toml:"tile_dir"`
	TileData       string `toml:"tiledata"`
	ScriptsDir     string `toml:"scripts_dir"`
	AssetCacheSize int    `toml:"asset_cache_size"`
}

type StoreConfig struct {
	DSN string `toml:"dsn"` // postgres:// URL, or a sqlite file path
}

type CaptureConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// sectorSize mirrors the world sector edge in tiles.
const sectorSize = 8

// Validate rejects combinations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Network.Transport {
	case "tcp", "websocket":
	default:
		return fmt.Errorf("network.transport: unknown %q", c.Network.Transport)
	}
	switch c.Network.Encryption {
	case "none", "xor", "twofish":
	default:
		return fmt.Errorf("network.encryption: unknown %q", c.Network.Encryption)
	}
	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		return fmt.Errorf("network.port: %d out of range", c.Network.Port)
	}
	if c.Network.DefaultLength < 0 {
		return fmt.Errorf("network.unknown_default_length: %d is negative", c.Network.DefaultLength)
	}
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive")
	}
	if c.World.AutoDeleteRange <= 0 {
		return fmt.Errorf("world.auto_delete_range must be positive")
	}
	// Evicted objects must always lie outside the loaded window's reach.
	if c.World.SectorCacheRadius*sectorSize < c.World.AutoDeleteRange+2 {
		return fmt.Errorf("world.sector_cache_radius %d too small for auto_delete_range %d",
			c.World.SectorCacheRadius, c.World.AutoDeleteRange)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Network: NetworkConfig{
			Host:              "127.0.0.1",
			Port:              2593,
			Transport:         "tcp",
			Encryption:        "none",
			TickRate:          50 * time.Millisecond,
			InQueueSize:       256,
			OutQueueSize:      256,
			MaxPacketsPerTick: 64,
			DialTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			DefaultLength:     1,
			ClientVersion:     [4]uint32{7, 0, 15, 1},
		},
		World: WorldConfig{
			AutoDeleteRange:   18,
			SectorCacheRadius: 3,
			SpeechDuration:    5 * time.Second,
			SystemLogLimit:    64,
			SystemLogTTL:      time.Minute,
		},
		Data: DataConfig{
			MapList:        "data/yaml/maps.yaml",
			TileDir:        "data/maps",
			TileData:       "data/yaml/tiledata.yaml",
			ScriptsDir:     "scripts",
			AssetCacheSize: 4096,
		},
		Store: StoreConfig{
			DSN: "uogo.db",
		},
		Capture: CaptureConfig{
			Dir: "captures",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
