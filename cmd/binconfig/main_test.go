package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/tribbler/internal/config"
)

func TestPortPickerFixedIsSequential(t *testing.T) {
	p := newPortPicker(true)
	a, err := p.next()
	require.NoError(t, err)
	b, err := p.next()
	require.NoError(t, err)
	require.Equal(t, a+1, b)
}

func TestPortPickerFreePortsAreDistinct(t *testing.T) {
	p := newPortPicker(false)
	a, err := p.next()
	require.NoError(t, err)
	b, err := p.next()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPrintTopologyWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	topo := config.Topology{Backs: []string{"localhost:3000"}, Keepers: []string{"localhost:3001"}}
	require.NoError(t, printTopology(&buf, topo))

	var got config.Topology
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, topo, got)
}
