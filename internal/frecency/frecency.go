package frecency

import (
	"cmp"
	"math"
)

// LaunchWeight is the effective score added for a single launch.
const LaunchWeight = 1.0

// Frecency returns the effective value of a stored score after elapsed
// seconds. The value halves every halfLife seconds.
func Frecency(stored, elapsed, halfLife float64) float64 {
	return stored / decayFactor(elapsed, halfLife)
}

// ApplyLaunch adds weight to the effective score at elapsed seconds and
// returns the result re-expressed as a stored score.
func ApplyLaunch(stored, elapsed, halfLife, weight float64) float64 {
	effective := Frecency(stored, elapsed, halfLife) + weight
	return effective * decayFactor(elapsed, halfLife)
}

// Descending orders scores from highest to lowest. NaN sorts after every
// number so a poisoned score cannot break the sort.
func Descending(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(b, a)
}

func decayFactor(elapsed, halfLife float64) float64 {
	return math.Exp2(elapsed / halfLife)
}
