// File: dispatch/config.go
// Package dispatch: per-server Config, loaded from YAML with
// fill-in-defaults the way the teacher's example configs do.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures one River server instance.
type Config struct {
	ListenAddr        string        `yaml:"listen_addr"`
	Path              string        `yaml:"path"`
	Codec             string        `yaml:"codec"` // "json" or "messagepack"
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ChannelCapacity   int           `yaml:"channel_capacity"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	Workers           int           `yaml:"workers"`
}

// DefaultConfig returns the Config LoadConfig starts from; any key a YAML
// file omits keeps the value set here.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		Path:              "/delta",
		Codec:             "json",
		HeartbeatInterval: time.Second,
		ChannelCapacity:   256,
		ShutdownTimeout:   5 * time.Second,
		Workers:           8,
	}
}

// LoadConfig reads a YAML file at path, starting from DefaultConfig so any
// key the file omits keeps its default value. A file that sets
// heartbeat_interval to 0 explicitly disables the heartbeat ticker rather
// than falling back to the default, since unmarshal only overwrites keys
// actually present in the document.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
