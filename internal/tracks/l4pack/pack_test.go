package l4pack

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l3lod"
)

func entity(i int) l3lod.RenderEntity {
	kind := l1wire.AllKinds[i%len(l1wire.AllKinds)]
	return l3lod.RenderEntity{
		TrackState: l2index.TrackState{
			ID:         fmt.Sprintf("e%d", i),
			ProviderID: fmt.Sprintf("p%d", i%3),
			Kind:       kind,
			Lat:        float64(i) * 0.5,
			Lon:        -float64(i),
			AltMeters:  float64(i) * 100,
			HeadingDeg: float64(i),
			SpeedMps:   float64(i) * 2,
			ColorRGBA:  l2index.KindColor(kind),
		},
		ClusterCount: 1,
	}
}

func TestPack_LengthInvariant(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17, 1000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			entities := make([]l3lod.RenderEntity, n)
			for i := range entities {
				entities[i] = entity(i)
			}
			p := Pack(entities)
			require.NoError(t, p.Validate())
			assert.Equal(t, n, p.Count)
			assert.Len(t, p.Positions, 3*n)
			assert.Len(t, p.IDs, n)
			assert.Len(t, p.Providers, n)
		})
	}
}

func TestPack_PreservesOrderAndValues(t *testing.T) {
	cluster := entity(3)
	cluster.ID = "cluster:vessel:-:1:2"
	cluster.ClusterCount = 4
	cluster.ClusterLabel = "4 VSL"
	entities := []l3lod.RenderEntity{cluster, entity(1), entity(2)}

	p := Pack(entities)

	assert.Equal(t, []string{"cluster:vessel:-:1:2", "e1", "e2"}, p.IDs)
	assert.Equal(t, []float64{1.5, -3, 300, 0.5, -1, 100, 1, -2, 200}, p.Positions)
	assert.Equal(t, []float32{3, 1, 2}, p.Headings)
	assert.Equal(t, []float32{6, 2, 4}, p.Speeds)
	assert.Equal(t, []uint8{uint8(l1wire.KindVessel), uint8(l1wire.KindSatellite), uint8(l1wire.KindGround)}, p.Kinds)
	assert.Equal(t, []uint32{l2index.ColorVessel, l2index.ColorSatellite, l2index.ColorGround}, p.Colors)
	assert.Equal(t, []uint32{4, 1, 1}, p.ClusterCounts)
	assert.Equal(t, []string{"4 VSL", "", ""}, p.Labels)
	assert.Equal(t, 1, p.Clusters())
}

func TestPack_FreshBuffersPerCall(t *testing.T) {
	entities := []l3lod.RenderEntity{entity(0), entity(1)}
	first := Pack(entities)
	second := Pack(entities)

	first.Positions[0] = 99
	first.IDs[0] = "mutated"

	assert.Equal(t, 0.0, second.Positions[0])
	assert.Equal(t, "e0", second.IDs[0])
	assert.Equal(t, "e0", entities[0].ID)
}

func TestValidate_DetectsMismatch(t *testing.T) {
	p := Pack([]l3lod.RenderEntity{entity(0)})
	p.Speeds = p.Speeds[:0]
	assert.Error(t, p.Validate())

	p = Pack([]l3lod.RenderEntity{entity(0)})
	p.Positions = append(p.Positions, 1)
	assert.Error(t, p.Validate())
}
