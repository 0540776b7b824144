package kernel

import "synapse/internal/types"

// IntentDistance returns the absolute distance between two intent gradient
// values and its complement, proximity.
func IntentDistance(a, b types.IntentGradient) (distance, proximity float64) {
	distance = absF(a.Value - b.Value)
	proximity = 1 - distance
	return distance, proximity
}

// perspectiveOrder fixes the ordinal position used for cluster centroid
// y-coordinates (LayoutMetadata.YOrder) and as the index into the alignment
// matrix below.
var perspectiveOrder = []types.Perspective{
	types.PerspectiveSeeker,
	types.PerspectiveAdvisor,
	types.PerspectiveProvider,
	types.PerspectiveEducator,
	types.PerspectiveRegulator,
	types.PerspectiveNeutral,
}

// PerspectiveOrdinal returns p's position in the fixed display order, or -1
// if p is not a recognised perspective.
func PerspectiveOrdinal(p types.Perspective) int {
	for i, o := range perspectiveOrder {
		if o == p {
			return i
		}
	}
	return -1
}

// PerspectiveDisplayOrder returns a copy of the fixed perspective ordering
// used for the intent x perspective layout plane's y-axis.
func PerspectiveDisplayOrder() []types.Perspective {
	out := make([]types.Perspective, len(perspectiveOrder))
	copy(out, perspectiveOrder)
	return out
}

// alignmentMatrix is symmetric; diagonal is 1.0 (perfect self-alignment).
// seeker/provider is the unique inverting pair (0.0, per spec: the only
// {A,B} combination where InversionFlag is true).
var alignmentMatrix = [6][6]float64{
	// seeker, advisor, provider, educator, regulator, neutral
	{1.0, 0.7, 0.0, 0.6, 0.4, 0.5}, // seeker
	{0.7, 1.0, 0.5, 0.7, 0.6, 0.5}, // advisor
	{0.0, 0.5, 1.0, 0.5, 0.4, 0.5}, // provider
	{0.6, 0.7, 0.5, 1.0, 0.6, 0.5}, // educator
	{0.4, 0.6, 0.4, 0.6, 1.0, 0.5}, // regulator
	{0.5, 0.5, 0.5, 0.5, 0.5, 1.0}, // neutral
}

// PerspectiveAlignment looks up the alignment score for a pair of
// perspectives and reports whether the pair is the inverting pair
// (seeker, provider), in either order.
func PerspectiveAlignment(a, b types.Perspective) (alignment float64, inversion bool) {
	ia, ib := PerspectiveOrdinal(a), PerspectiveOrdinal(b)
	if ia < 0 || ib < 0 {
		return 0.5, false // unrecognised perspective: neutral alignment, no inversion
	}
	alignment = alignmentMatrix[ia][ib]
	inversion = isInvertingPair(a, b)
	return alignment, inversion
}

func isInvertingPair(a, b types.Perspective) bool {
	return (a == types.PerspectiveSeeker && b == types.PerspectiveProvider) ||
		(a == types.PerspectiveProvider && b == types.PerspectiveSeeker)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
