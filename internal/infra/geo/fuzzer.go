package geo

import (
	"github.com/mmcloughlin/geohash"

	"programhub/internal/app/policies"
)

// GeohashFuzzer snaps coordinates to the center of their geohash cell, so every
// program in the same cell shows the same point.
type GeohashFuzzer struct {
	Precision uint
}

func (f GeohashFuzzer) Fuzz(lat, lng float64) (float64, float64) {
	precision := f.Precision
	if precision == 0 || precision > 12 {
		precision = 6
	}
	return geohash.DecodeCenter(geohash.EncodeWithPrecision(lat, lng, precision))
}

var _ policies.LocationFuzzer = GeohashFuzzer{}
