// Package config loads the tool settings from a TOML file
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BertoldVdb/ch347eeprom/ch347/eepromsim"
	"github.com/BertoldVdb/ch347eeprom/eeprom"
	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Config holds the settings that are not part of the positional arguments
type Config struct {
	// Driver is the ch347 driver used to open the device path
	Driver     string
	WriteDelay time.Duration
	Verify     bool
	LogLevel   logrus.Level

	// Image describes the memory emulated by the "image" driver
	Image eepromsim.Config
}

// Default returns the built in settings
func Default() Config {
	return Config{
		Driver:     "ch347",
		WriteDelay: eeprom.DefaultWriteDelay,
		LogLevel:   logrus.InfoLevel,
		Image:      eepromsim.DefaultConfig,
	}
}

type imageConfig struct {
	BusAddress    string `toml:"bus_address"`
	AddressLength int    `toml:"address_length"`
	PageSize      int    `toml:"page_size"`
	Size          int    `toml:"size"`
}

type fileConfig struct {
	Driver     string      `toml:"driver"`
	WriteDelay string      `toml:"write_delay"`
	Verify     bool        `toml:"verify"`
	LogLevel   string      `toml:"log_level"`
	Image      imageConfig `toml:"image"`
}

// Load applies the keys set in the file at path on top of Default()
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("driver") {
		driver := strings.TrimSpace(raw.Driver)
		if driver == "" {
			return Config{}, fmt.Errorf("driver cannot be empty")
		}
		cfg.Driver = driver
	}

	if meta.IsDefined("write_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteDelay))
		if err != nil {
			return Config{}, fmt.Errorf("parse write_delay: %w", err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("write_delay cannot be negative")
		}
		cfg.WriteDelay = d
	}

	if meta.IsDefined("verify") {
		cfg.Verify = raw.Verify
	}

	if meta.IsDefined("log_level") {
		level, err := logrus.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("image", "bus_address") {
		var addr uint8
		if _, err := fmt.Sscanf(strings.TrimPrefix(strings.TrimSpace(raw.Image.BusAddress), "0x"), "%x", &addr); err != nil {
			return Config{}, fmt.Errorf("parse image.bus_address: %w", err)
		}
		cfg.Image.BusAddress = addr
	}
	if meta.IsDefined("image", "address_length") {
		cfg.Image.AddressLength = raw.Image.AddressLength
	}
	if meta.IsDefined("image", "page_size") {
		cfg.Image.PageSize = raw.Image.PageSize
	}
	if meta.IsDefined("image", "size") {
		cfg.Image.Size = raw.Image.Size
	}

	return cfg, nil
}
