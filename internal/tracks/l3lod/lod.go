package l3lod

import "fmt"

// LodState controls clustering and decimation. A zero ClusterCellDegrees
// disables both.
type LodState struct {
	DeclutterStride    uint32
	ClusterCellDegrees float64
}

func (s LodState) String() string {
	return fmt.Sprintf("stride=%d cell=%g°", s.DeclutterStride, s.ClusterCellDegrees)
}

// lodBands is ordered from the highest camera to the lowest. A camera above
// minHeightM uses the band.
var lodBands = []struct {
	minHeightM float64
	state      LodState
}{
	{12_000_000, LodState{DeclutterStride: 8, ClusterCellDegrees: 8}},
	{6_000_000, LodState{DeclutterStride: 4, ClusterCellDegrees: 4}},
	{3_000_000, LodState{DeclutterStride: 3, ClusterCellDegrees: 2}},
	{1_500_000, LodState{DeclutterStride: 2, ClusterCellDegrees: 1}},
	{700_000, LodState{DeclutterStride: 1, ClusterCellDegrees: 0.5}},
}

// CloseRange is the LodState below the lowest band: no clustering, no thinning.
var CloseRange = LodState{DeclutterStride: 1, ClusterCellDegrees: 0}

// FromCameraHeight returns the LodState for a camera height in metres.
func FromCameraHeight(heightM float64) LodState {
	for _, b := range lodBands {
		if heightM > b.minHeightM {
			return b.state
		}
	}
	return CloseRange
}
