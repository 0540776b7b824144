// Package validationgate checks, after extraction, what fraction of nodes
// cleared a minimum confidence and annotates the run when that fraction is
// too low. It never aborts a run — only the Artifact Emitter's schema
// validation can do that.
package validationgate

import "synapse/internal/types"

// Config controls the gate's thresholds.
type Config struct {
	MinConfidence float64 // default 0.60
	MinPassRatio  float64 // default 0.70
}

func (c Config) withDefaults() Config {
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.60
	}
	if c.MinPassRatio == 0 {
		c.MinPassRatio = 0.70
	}
	return c
}

// Result reports the computed pass ratio and whether it fell below the
// configured floor.
type Result struct {
	PassCount     int
	TotalCount    int
	PassRatio     float64
	LowConfidence bool
}

// Evaluate computes the fraction of nodes whose overall signature
// confidence is at least cfg.MinConfidence. When that fraction is below
// cfg.MinPassRatio the result is flagged LowConfidence; callers proceed
// regardless and carry the flag into run provenance.
func Evaluate(nodes []types.Node, cfg Config) Result {
	cfg = cfg.withDefaults()
	if len(nodes) == 0 {
		return Result{LowConfidence: true}
	}

	pass := 0
	for _, n := range nodes {
		if n.Signature.ConfidenceByField.Overall >= cfg.MinConfidence {
			pass++
		}
	}

	ratio := float64(pass) / float64(len(nodes))
	return Result{
		PassCount:     pass,
		TotalCount:    len(nodes),
		PassRatio:     ratio,
		LowConfidence: ratio < cfg.MinPassRatio,
	}
}
