package l4pack

import (
	"fmt"

	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l3lod"
)

// RenderPayload is the renderer-bound structure of arrays. Entity i is
// described by index i of every array (3i..3i+2 for Positions).
//
// Each payload owns freshly allocated arrays; the producer keeps no
// reference after handing it off.
type RenderPayload struct {
	Count int

	Positions     []float64 // lat, lon, alt interleaved
	Headings      []float32 // degrees
	Speeds        []float32 // m/s
	Kinds         []uint8   // l1wire.Kind
	Colors        []uint32  // 0xRRGGBBAA
	ClusterCounts []uint32  // 1 for singles

	IDs       []string
	Providers []string
	Labels    []string // empty for singles
}

// Pack fills a new payload from entities in input order.
func Pack(entities []l3lod.RenderEntity) *RenderPayload {
	n := len(entities)
	p := &RenderPayload{
		Count:         n,
		Positions:     make([]float64, 3*n),
		Headings:      make([]float32, n),
		Speeds:        make([]float32, n),
		Kinds:         make([]uint8, n),
		Colors:        make([]uint32, n),
		ClusterCounts: make([]uint32, n),
		IDs:           make([]string, n),
		Providers:     make([]string, n),
		Labels:        make([]string, n),
	}
	for i := range entities {
		e := &entities[i]
		p.Positions[3*i] = e.Lat
		p.Positions[3*i+1] = e.Lon
		p.Positions[3*i+2] = e.AltMeters
		p.Headings[i] = float32(e.HeadingDeg)
		p.Speeds[i] = float32(e.SpeedMps)
		p.Kinds[i] = uint8(e.Kind)
		p.Colors[i] = e.ColorRGBA
		p.ClusterCounts[i] = e.ClusterCount
		p.IDs[i] = e.ID
		p.Providers[i] = e.ProviderID
		p.Labels[i] = e.ClusterLabel
	}
	metrics.PackedEntities.Observe(float64(n))
	return p
}

// Validate checks that every array agrees with Count.
func (p *RenderPayload) Validate() error {
	if len(p.Positions) != 3*p.Count {
		return fmt.Errorf("l4pack: positions length %d, want %d", len(p.Positions), 3*p.Count)
	}
	for name, l := range map[string]int{
		"headings":       len(p.Headings),
		"speeds":         len(p.Speeds),
		"kinds":          len(p.Kinds),
		"colors":         len(p.Colors),
		"cluster_counts": len(p.ClusterCounts),
		"ids":            len(p.IDs),
		"providers":      len(p.Providers),
		"labels":         len(p.Labels),
	} {
		if l != p.Count {
			return fmt.Errorf("l4pack: %s length %d, want %d", name, l, p.Count)
		}
	}
	return nil
}

// Clusters is the number of cluster entities in the payload.
func (p *RenderPayload) Clusters() int {
	n := 0
	for _, c := range p.ClusterCounts {
		if c > 1 {
			n++
		}
	}
	return n
}
