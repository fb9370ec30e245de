package l3lod

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
)

const (
	// groundCellFactor widens the grid for ground sensors.
	groundCellFactor = 1.35
	// shellBandMeters quantises satellite altitude into shells.
	shellBandMeters = 120_000
	// maxLabelSamples is the number of member ids kept for labels.
	maxLabelSamples = 2
	// sampleIDLen truncates aircraft sample ids in labels.
	sampleIDLen = 6
)

// ClusterIDPrefix prefixes every synthetic cluster id.
const ClusterIDPrefix = "cluster:"

// RenderEntity is a pass-through track or a synthetic cluster representative.
type RenderEntity struct {
	l2index.TrackState
	ClusterCount uint32 // 1 for singles
	ClusterLabel string // empty for singles
}

// IsCluster reports whether e stands for more than one track.
func (e *RenderEntity) IsCluster() bool { return e.ClusterCount > 1 }

func single(t l2index.TrackState) RenderEntity {
	return RenderEntity{TrackState: t, ClusterCount: 1}
}

// bucket accumulates the members of one grid cell.
type bucket struct {
	key       string
	kind      l1wire.Kind
	shellBand int64
	members   []int
}

// Process applies lod to the live list. Clusters come first in order of
// their first member, followed by the decimated singles in input order.
// The input is not modified.
func Process(live []l2index.TrackState, lod LodState) []RenderEntity {
	if lod.ClusterCellDegrees <= 0 {
		out := make([]RenderEntity, len(live))
		for i := range live {
			out[i] = single(live[i])
		}
		metrics.RenderClusters.Set(0)
		metrics.RenderSingles.Set(float64(len(out)))
		return out
	}

	var order []*bucket
	byKey := make(map[string]*bucket)
	for i := range live {
		key, band := bucketKey(&live[i], lod.ClusterCellDegrees)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{key: key, kind: live[i].Kind, shellBand: band}
			byKey[key] = b
			order = append(order, b)
		}
		b.members = append(b.members, i)
	}

	stride := int(lod.DeclutterStride)
	if stride < 1 {
		stride = 1
	}

	out := make([]RenderEntity, 0, len(order))
	var singles []int
	for _, b := range order {
		if len(b.members) == 1 {
			singles = append(singles, b.members[0])
			continue
		}
		out = append(out, b.aggregate(live))
	}
	clusters := len(out)

	// singles is already in input order: a one-member bucket appears when
	// its only member does.
	for n, idx := range singles {
		if n%stride == 0 {
			out = append(out, single(live[idx]))
		}
	}

	metrics.RenderClusters.Set(float64(clusters))
	metrics.RenderSingles.Set(float64(len(out) - clusters))
	tracef("lod %s: in=%d buckets=%d clusters=%d singles=%d/%d",
		lod, len(live), len(order), clusters, len(out)-clusters, len(singles))
	return out
}

// bucketKey returns "kind:shell:latCell:lonCell" for t, with shell "-" for
// every kind except Satellite.
func bucketKey(t *l2index.TrackState, cellDeg float64) (string, int64) {
	cell := cellDeg
	if t.Kind == l1wire.KindGround {
		cell *= groundCellFactor
	}
	latCell := int64(math.Floor((t.Lat + 90) / cell))
	lonCell := int64(math.Floor((t.Lon + 180) / cell))

	var sb strings.Builder
	sb.WriteString(t.Kind.Tag())
	sb.WriteByte(':')
	band := int64(-1)
	if t.Kind == l1wire.KindSatellite {
		band = int64(math.Floor(t.AltMeters / shellBandMeters))
		sb.WriteString(strconv.FormatInt(band, 10))
	} else {
		sb.WriteByte('-')
	}
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatInt(latCell, 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatInt(lonCell, 10))
	return sb.String(), band
}

func (b *bucket) aggregate(live []l2index.TrackState) RenderEntity {
	n := len(b.members)
	lats := make([]float64, n)
	lons := make([]float64, n)
	alts := make([]float64, n)
	headings := make([]float64, n)
	var maxSpeed float64
	var newest uint64
	samples := make([]string, 0, maxLabelSamples)

	for i, idx := range b.members {
		t := &live[idx]
		lats[i], lons[i], alts[i], headings[i] = t.Lat, t.Lon, t.AltMeters, t.HeadingDeg
		maxSpeed = math.Max(maxSpeed, t.SpeedMps)
		if t.LastUpdateMs > newest {
			newest = t.LastUpdateMs
		}
		if len(samples) < maxLabelSamples {
			samples = append(samples, t.ID)
		}
	}

	first := &live[b.members[0]]
	return RenderEntity{
		TrackState: l2index.TrackState{
			ID:           ClusterIDPrefix + b.key,
			ProviderID:   first.ProviderID,
			Kind:         b.kind,
			Lat:          l2index.NormalizeLat(stat.Mean(lats, nil)),
			Lon:          l2index.NormalizeLon(stat.Mean(lons, nil)),
			AltMeters:    stat.Mean(alts, nil),
			HeadingDeg:   l2index.NormalizeHeading(stat.Mean(headings, nil)),
			SpeedMps:     maxSpeed,
			ColorRGBA:    l2index.KindColor(b.kind),
			LastUpdateMs: newest,
		},
		ClusterCount: uint32(n),
		ClusterLabel: clusterLabel(b.kind, n, b.shellBand, samples),
	}
}
