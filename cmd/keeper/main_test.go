package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeeperFlagDefaults(t *testing.T) {
	path, err := rootCmd.Flags().GetString("config")
	require.NoError(t, err)
	require.Equal(t, "bins.json", path)

	replicas, err := rootCmd.Flags().GetInt("replicas")
	require.NoError(t, err)
	require.Equal(t, 1, replicas)

	rangeName, err := rootCmd.Flags().GetString("range")
	require.NoError(t, err)
	require.Equal(t, "default", rangeName)
}
