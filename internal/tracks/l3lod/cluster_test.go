package l3lod

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
)

func track(id string, kind l1wire.Kind, lat, lon, alt float64) l2index.TrackState {
	return l2index.TrackState{
		ID:         id,
		ProviderID: "p-" + id,
		Kind:       kind,
		Lat:        lat,
		Lon:        lon,
		AltMeters:  alt,
		ColorRGBA:  l2index.KindColor(kind),
	}
}

var halfDegree = LodState{DeclutterStride: 1, ClusterCellDegrees: 0.5}

func TestProcess_ThreeAircraftCluster(t *testing.T) {
	live := []l2index.TrackState{
		track("ADSB_4CA1B2F", l1wire.KindAircraft, 10.0, 20.0, 1000),
		track("ADSB_ABC", l1wire.KindAircraft, 10.001, 20.001, 1050),
		track("ADSB_XYZ", l1wire.KindAircraft, 10.002, 20.002, 1100),
	}
	live[0].SpeedMps, live[1].SpeedMps, live[2].SpeedMps = 100, 300, 200
	live[0].LastUpdateMs, live[1].LastUpdateMs, live[2].LastUpdateMs = 5, 9, 7

	out := Process(live, halfDegree)
	require.Len(t, out, 1)

	c := out[0]
	assert.True(t, c.IsCluster())
	assert.Equal(t, uint32(3), c.ClusterCount)
	assert.InDelta(t, 10.001, c.Lat, 1e-9)
	assert.InDelta(t, 20.001, c.Lon, 1e-9)
	assert.InDelta(t, 1050, c.AltMeters, 1e-9)
	assert.Equal(t, 300.0, c.SpeedMps, "speed is the max, not the mean")
	assert.Equal(t, uint64(9), c.LastUpdateMs)
	assert.Equal(t, "p-ADSB_4CA1B2F", c.ProviderID)
	assert.Equal(t, l2index.ColorAircraft, c.ColorRGBA)
	assert.Equal(t, "cluster:aircraft:-:200:400", c.ID)
	assert.Contains(t, c.ClusterLabel, "3 AC")
	assert.Equal(t, "3 AC · 4CA1B2,ABC", c.ClusterLabel)
}

func TestProcess_SingleMemberBucketIsNotCluster(t *testing.T) {
	live := []l2index.TrackState{
		track("a", l1wire.KindAircraft, 10, 20, 0),
		track("b", l1wire.KindAircraft, 40, 20, 0),
		track("v", l1wire.KindVessel, 10, 20, 0),
	}

	out := Process(live, halfDegree)
	require.Len(t, out, 3)
	for _, e := range out {
		assert.False(t, e.IsCluster(), "%s", e.ID)
		assert.Equal(t, uint32(1), e.ClusterCount)
		assert.Empty(t, e.ClusterLabel)
		assert.False(t, strings.HasPrefix(e.ID, ClusterIDPrefix))
	}
}

func TestProcess_PassThroughWhenCellZero(t *testing.T) {
	var live []l2index.TrackState
	for i := 0; i < 20; i++ {
		live = append(live, track(fmt.Sprintf("t%d", i), l1wire.KindAircraft, 10, 20, 0))
	}

	out := Process(live, LodState{DeclutterStride: 8, ClusterCellDegrees: 0})
	require.Len(t, out, len(live))
	for i := range live {
		if diff := cmp.Diff(single(live[i]), out[i]); diff != "" {
			t.Fatalf("entity %d changed (-want +got):\n%s", i, diff)
		}
	}
}

func TestProcess_DecimationKeepsEveryKth(t *testing.T) {
	tests := []struct {
		m, k int
	}{
		{10, 3},
		{9, 3},
		{1, 8},
		{7, 1},
		{16, 4},
		{0, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("m=%d,k=%d", tt.m, tt.k), func(t *testing.T) {
			live := make([]l2index.TrackState, tt.m)
			for i := range live {
				// one degree apart, so every entity is alone in its cell
				live[i] = track(fmt.Sprintf("s%d", i), l1wire.KindVessel, float64(i)-40, 0, 0)
			}

			out := Process(live, LodState{DeclutterStride: uint32(tt.k), ClusterCellDegrees: 0.5})

			want := (tt.m + tt.k - 1) / tt.k
			require.Len(t, out, want)
			for n, e := range out {
				assert.Equal(t, fmt.Sprintf("s%d", n*tt.k), e.ID)
			}
		})
	}
}

func TestProcess_ClustersPrecedeSingles(t *testing.T) {
	live := []l2index.TrackState{
		track("lone", l1wire.KindAircraft, -30, 100, 0),
		track("V1", l1wire.KindVessel, 50.1, 1.1, 0),
		track("V2", l1wire.KindVessel, 50.2, 1.2, 0),
	}

	out := Process(live, halfDegree)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsCluster())
	assert.Equal(t, "2 VSL", out[0].ClusterLabel)
	assert.Equal(t, "lone", out[1].ID)
}

func TestProcess_SatelliteShells(t *testing.T) {
	live := []l2index.TrackState{
		track("SAT_1", l1wire.KindSatellite, 5, 5, 420_000),
		track("SAT_2", l1wire.KindSatellite, 5.1, 5.1, 430_000),
		track("SAT_3", l1wire.KindSatellite, 5, 5, 800_000),
	}

	out := Process(live, halfDegree)
	require.Len(t, out, 2)
	assert.Equal(t, "2 SAT · SHELL 3", out[0].ClusterLabel)
	assert.Equal(t, "cluster:satellite:3:190:370", out[0].ID)
	assert.Equal(t, "SAT_3", out[1].ID)
}

func TestProcess_GroundCellIsWider(t *testing.T) {
	// Separate 0.5° cells, same 0.675° cell.
	ground := []l2index.TrackState{
		track("G1", l1wire.KindGround, 0.55, 0.01, 0),
		track("G2", l1wire.KindGround, 1.05, 0.01, 0),
	}
	out := Process(ground, halfDegree)
	require.Len(t, out, 1)
	assert.Equal(t, "2 GND", out[0].ClusterLabel)

	air := []l2index.TrackState{
		track("A1", l1wire.KindAircraft, 0.55, 0.01, 0),
		track("A2", l1wire.KindAircraft, 1.05, 0.01, 0),
	}
	assert.Len(t, Process(air, halfDegree), 2)
}

func TestClusterLabel(t *testing.T) {
	tests := []struct {
		name    string
		kind    l1wire.Kind
		n       int
		band    int64
		samples []string
		want    string
	}{
		{"aircraft", l1wire.KindAircraft, 4, -1, []string{"OPENSKY_A1B2C3D4", "N123"}, "4 AC · A1B2C3,N123"},
		{"aircraft nested underscores", l1wire.KindAircraft, 2, -1, []string{"x_y_ZZ", "q"}, "2 AC · ZZ,q"},
		{"satellite", l1wire.KindSatellite, 12, 4, []string{"a", "b"}, "12 SAT · SHELL 4"},
		{"all cameras", l1wire.KindGround, 5, -1, []string{"CAM_001", "cam-77"}, "5 CAM · METRO"},
		{"half cameras", l1wire.KindGround, 5, -1, []string{"SENSOR_1", "Cam_2"}, "5 CAM · METRO"},
		{"no cameras", l1wire.KindGround, 3, -1, []string{"S1", "S2"}, "3 GND"},
		{"vessel", l1wire.KindVessel, 6, -1, nil, "6 VSL"},
		{"unspecified", l1wire.KindUnspecified, 2, -1, nil, "2 OBJ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clusterLabel(tt.kind, tt.n, tt.band, tt.samples))
		})
	}
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	live := []l2index.TrackState{
		track("a", l1wire.KindAircraft, 10, 20, 0),
		track("b", l1wire.KindAircraft, 10.1, 20.1, 0),
	}
	before := append([]l2index.TrackState(nil), live...)
	Process(live, halfDegree)
	if diff := cmp.Diff(before, live); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}
