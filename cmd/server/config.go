package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                  string        `env:"HOST,default=localhost" validate:"required"`
	Port                  int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	GrpcPort              int           `env:"GRPC_PORT,default=9090" validate:"min=1,max=65535,nefield=Port"`
	LogLevel              string        `env:"LOG_LEVEL,default=INFO"`
	DiagnosticsBufferSize int           `env:"DIAGNOSTICS_BUFFER_SIZE,default=1024" validate:"min=1"`
	SinkTimeout           time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	SendTimeout           time.Duration `env:"SEND_TIMEOUT,default=5s" validate:"gt=0"`
	RestartInterval       time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	ReportInterval        time.Duration `env:"REPORT_INTERVAL,default=30s" validate:"gt=0"`
	// Empty keeps the transcript in memory.
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096" validate:"min=1"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
