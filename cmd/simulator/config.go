package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SIMULATOR_LOG_LEVEL keeps the demo output clean by default
	LogLevel string `envconfig:"SIMULATOR_LOG_LEVEL" default:"ERROR"`
	// SIMULATOR_COLOURS enables colorized endpoint output and headers
	Colours     bool   `envconfig:"SIMULATOR_COLOURS" default:"true"`
	HistorySize int    `envconfig:"SIMULATOR_HISTORY_SIZE" default:"50"`
	Room        string `envconfig:"SIMULATOR_ROOM" default:"Room123"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
