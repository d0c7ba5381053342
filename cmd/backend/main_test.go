package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackendFlagDefaults(t *testing.T) {
	addr, err := rootCmd.Flags().GetString("addr")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7070", addr)

	level, err := rootCmd.Flags().GetString("log-level")
	require.NoError(t, err)
	require.Equal(t, "info", level)

	timeout, err := rootCmd.Flags().GetDuration("recv-timeout")
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, timeout)
}
