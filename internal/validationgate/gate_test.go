package validationgate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/types"
)

func nodeWithConfidence(overall float64) types.Node {
	return types.Node{
		Signature: types.IntentSignature{
			ConfidenceByField: types.FieldConfidences{Overall: overall},
		},
	}
}

func TestEvaluate_AboveThresholdNotFlagged(t *testing.T) {
	nodes := []types.Node{nodeWithConfidence(0.9), nodeWithConfidence(0.8), nodeWithConfidence(0.7)}
	result := Evaluate(nodes, Config{})
	assert.False(t, result.LowConfidence)
	assert.Equal(t, 3, result.PassCount)
	assert.InDelta(t, 1.0, result.PassRatio, 1e-9)
}

func TestEvaluate_BelowPassRatioFlagsLowConfidence(t *testing.T) {
	nodes := []types.Node{nodeWithConfidence(0.9), nodeWithConfidence(0.2), nodeWithConfidence(0.1)}
	result := Evaluate(nodes, Config{})
	assert.True(t, result.LowConfidence)
	assert.Equal(t, 1, result.PassCount)
	assert.InDelta(t, 1.0/3.0, result.PassRatio, 1e-9)
}

func TestEvaluate_NoNodesIsLowConfidence(t *testing.T) {
	result := Evaluate(nil, Config{})
	assert.True(t, result.LowConfidence)
	assert.Equal(t, 0, result.TotalCount)
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	nodes := []types.Node{nodeWithConfidence(0.5), nodeWithConfidence(0.5), nodeWithConfidence(0.1)}
	result := Evaluate(nodes, Config{MinConfidence: 0.4, MinPassRatio: 0.5})
	assert.False(t, result.LowConfidence)
	assert.Equal(t, 2, result.PassCount)
}
