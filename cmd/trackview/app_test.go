package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelP17/HARPY-sub000/internal/config"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
)

func TestNewApp_IndexKindsFollowConfiguredLayers(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Layers = []string{"aircraft", "vessel"}
	cfg.Metrics.Listen = ""

	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	kinds := a.pipeline.Filter().AllowedKinds
	assert.Equal(t, l2index.NewKindSet(l1wire.KindAircraft, l1wire.KindVessel), kinds)
	assert.False(t, kinds.Has(l1wire.KindUnspecified))
	assert.Equal(t, []l1wire.Kind{l1wire.KindAircraft, l1wire.KindVessel}, a.coordinator.State().Layers)
}
