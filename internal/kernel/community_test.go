package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCommunities_TwoCliques(t *testing.T) {
	nodes := []string{"a1", "a2", "a3", "b1", "b2", "b3"}
	edges := []WeightedEdge{
		{A: "a1", B: "a2", Weight: 1},
		{A: "a2", B: "a3", Weight: 1},
		{A: "a1", B: "a3", Weight: 1},
		{A: "b1", B: "b2", Weight: 1},
		{A: "b2", B: "b3", Weight: 1},
		{A: "b1", B: "b3", Weight: 1},
		{A: "a1", B: "b1", Weight: 0.01}, // weak bridge
	}

	partition := DetectCommunities(nodes, edges)

	assert.Equal(t, partition.Assignment["a1"], partition.Assignment["a2"])
	assert.Equal(t, partition.Assignment["a2"], partition.Assignment["a3"])
	assert.Equal(t, partition.Assignment["b1"], partition.Assignment["b2"])
	assert.Equal(t, partition.Assignment["b2"], partition.Assignment["b3"])
	assert.NotEqual(t, partition.Assignment["a1"], partition.Assignment["b1"])
	assert.Greater(t, partition.Modularity, 0.0)
}

func TestDetectCommunities_Deterministic(t *testing.T) {
	nodes := []string{"x", "y", "z"}
	edges := []WeightedEdge{
		{A: "x", B: "y", Weight: 1},
		{A: "y", B: "z", Weight: 1},
	}
	p1 := DetectCommunities(nodes, edges)
	p2 := DetectCommunities(nodes, edges)
	assert.Equal(t, p1.Assignment, p2.Assignment)
	assert.Equal(t, p1.Modularity, p2.Modularity)
}

func TestDetectCommunities_NoEdgesEachNodeAlone(t *testing.T) {
	nodes := []string{"solo1", "solo2"}
	partition := DetectCommunities(nodes, nil)
	assert.NotEqual(t, partition.Assignment["solo1"], partition.Assignment["solo2"])
	assert.Equal(t, 0.0, partition.Modularity)
}
