package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidate_HasOnlyEdgeSeeding(t *testing.T) {
	c := Candidate{Sources: []CandidateSource{SourceEdgeSeeding}}
	assert.True(t, c.HasOnlyEdgeSeeding())

	c.AddSource(SourceAhrefsRelated)
	assert.False(t, c.HasOnlyEdgeSeeding())

	empty := Candidate{}
	assert.False(t, empty.HasOnlyEdgeSeeding())
}

func TestCandidate_AddSourceIsIdempotent(t *testing.T) {
	c := Candidate{}
	c.AddSource(SourceSeed)
	c.AddSource(SourceSeed)
	assert.Len(t, c.Sources, 1)
}

func TestValidSubtype_ClosedListPerFamily(t *testing.T) {
	assert.True(t, ValidSubtype(FamilyExpansion, SubtypeAttributeExpansion))
	assert.False(t, ValidSubtype(FamilyExpansion, SubtypeFunnelProgression))
	assert.False(t, ValidSubtype(FamilyBoundary, "not_a_real_subtype"))
}

func TestNode_IDMatchesPhraseID(t *testing.T) {
	p := NewPhrase("best loans", "en", "us")
	n := Node{Phrase: p}
	assert.Equal(t, p.ID(), n.ID())
}
