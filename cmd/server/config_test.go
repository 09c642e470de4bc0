package main

import (
	"testing"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults_Are_Valid(t *testing.T) {
	req := require.New(t)
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.NoError(config.Validate())
	req.Equal(8080, config.Port)
	req.Empty(config.BadgerFilepath)
}

func TestConfig_Validate_Rejects_Shared_Port(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GRPC_PORT", "9000")
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	require.NoError(t, err)

	require.Error(t, config.Validate())
}
