package l3lod

import (
	"fmt"
	"strings"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// clusterLabel renders the display label for a cluster of n members.
func clusterLabel(kind l1wire.Kind, n int, shellBand int64, samples []string) string {
	switch kind {
	case l1wire.KindAircraft:
		short := make([]string, len(samples))
		for i, id := range samples {
			short[i] = shortID(id)
		}
		return fmt.Sprintf("%d AC · %s", n, strings.Join(short, ","))
	case l1wire.KindSatellite:
		return fmt.Sprintf("%d SAT · SHELL %d", n, shellBand)
	case l1wire.KindGround:
		if isCameraGroup(samples) {
			return fmt.Sprintf("%d CAM · METRO", n)
		}
		return fmt.Sprintf("%d GND", n)
	case l1wire.KindVessel:
		return fmt.Sprintf("%d VSL", n)
	default:
		return fmt.Sprintf("%d OBJ", n)
	}
}

// shortID drops everything up to the last underscore and keeps at most
// sampleIDLen runes: "ADSB_4CA1B2F" -> "4CA1B2".
func shortID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	if r := []rune(id); len(r) > sampleIDLen {
		id = string(r[:sampleIDLen])
	}
	return id
}

// isCameraGroup reports whether at least half the samples have a camera id.
func isCameraGroup(samples []string) bool {
	if len(samples) == 0 {
		return false
	}
	cams := 0
	for _, id := range samples {
		if strings.HasPrefix(strings.ToLower(id), "cam") {
			cams++
		}
	}
	return cams*2 >= len(samples)
}
