package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/types"
)

func TestAggregateClusterSignature_WeightedMean(t *testing.T) {
	sigs := []types.IntentSignature{
		{
			VectorFingerprint: []float64{1, 0},
			Perspective:       types.PerspectiveSignature{Primary: types.PerspectiveSeeker},
			IntentGradient:    types.IntentGradient{Value: 0.2},
		},
		{
			VectorFingerprint: []float64{0, 1},
			Perspective:       types.PerspectiveSignature{Primary: types.PerspectiveSeeker},
			IntentGradient:    types.IntentGradient{Value: 0.8},
		},
	}
	sig := AggregateClusterSignature(sigs, nil)
	assert.InDelta(t, 0.5, sig.VectorFingerprint[0], 1e-9)
	assert.InDelta(t, 0.5, sig.VectorFingerprint[1], 1e-9)
	assert.InDelta(t, 0.5, sig.MeanIntentGradient, 1e-9)
	assert.Equal(t, types.PerspectiveSeeker, sig.DominantPerspective)
}

func TestAggregateClusterSignature_Empty(t *testing.T) {
	sig := AggregateClusterSignature(nil, nil)
	assert.Nil(t, sig.VectorFingerprint)
}

func TestDominantToken(t *testing.T) {
	tokens := []string{"COST", "SPEED", "TRUST"}
	fingerprint := []float64{0.2, 0.9, 0.1}
	assert.Equal(t, "SPEED", DominantToken(fingerprint, tokens))
}

func TestDominantToken_AllZero(t *testing.T) {
	tokens := []string{"COST", "SPEED"}
	fingerprint := []float64{0, 0}
	assert.Equal(t, "NEW:UNKNOWN", DominantToken(fingerprint, tokens))
}
