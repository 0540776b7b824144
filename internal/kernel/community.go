package kernel

import "sort"

// WeightedEdge is one undirected, positively-weighted edge used as input to
// community detection.
type WeightedEdge struct {
	A, B   string
	Weight float64
}

// Partition assigns every input node id to an integer community label.
type Partition struct {
	Assignment map[string]int
	Modularity float64
}

// DetectCommunities partitions nodeIDs into communities maximising
// modularity using a single-level Louvain-style local-moving pass: starting
// with every node in its own community, nodes are repeatedly offered to
// neighboring communities and moved when doing so strictly improves
// modularity, until a full sweep produces no moves. Ties in gain are
// resolved by (descending gain, ascending node identity, ascending target
// community identity) so the result is deterministic given sorted input.
func DetectCommunities(nodeIDs []string, edges []WeightedEdge) Partition {
	ids := append([]string(nil), nodeIDs...)
	sort.Strings(ids)

	adj := make(map[string]map[string]float64, len(ids))
	degree := make(map[string]float64, len(ids))
	totalWeight := 0.0
	for _, id := range ids {
		adj[id] = map[string]float64{}
	}
	for _, e := range edges {
		if _, ok := adj[e.A]; !ok {
			continue
		}
		if _, ok := adj[e.B]; !ok {
			continue
		}
		if e.A == e.B {
			continue
		}
		adj[e.A][e.B] += e.Weight
		adj[e.B][e.A] += e.Weight
		degree[e.A] += e.Weight
		degree[e.B] += e.Weight
		totalWeight += e.Weight
	}

	community := make(map[string]int, len(ids))
	communityDegree := make(map[int]float64, len(ids))
	for i, id := range ids {
		community[id] = i
		communityDegree[i] = degree[id]
	}

	if totalWeight == 0 {
		return Partition{Assignment: community, Modularity: 0}
	}

	m := totalWeight
	improved := true
	for improved {
		improved = false
		for _, id := range ids {
			current := community[id]
			ki := degree[id]

			neighborCommunities := map[int]float64{} // community -> weight from id to that community
			for neighbor, w := range adj[id] {
				neighborCommunities[community[neighbor]] += w
			}

			// Gain of staying put (baseline).
			communityDegree[current] -= ki
			bestCommunity := current
			bestGain := gain(neighborCommunities[current], communityDegree[current], ki, m)

			candidates := make([]int, 0, len(neighborCommunities))
			for c := range neighborCommunities {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			for _, c := range candidates {
				if c == current {
					continue
				}
				g := gain(neighborCommunities[c], communityDegree[c], ki, m)
				if g > bestGain {
					bestGain = g
					bestCommunity = c
				}
			}

			communityDegree[bestCommunity] += ki
			if bestCommunity != current {
				community[id] = bestCommunity
				improved = true
			}
		}
	}

	relabelled := relabel(ids, community)
	modularity := computeModularity(ids, relabelled, adj, degree, m)
	return Partition{Assignment: relabelled, Modularity: modularity}
}

// gain approximates the modularity delta of attaching a node with degree ki
// (and kiIn edge-weight already pointing into the target community) to a
// community with total degree communityDegree. The node-self term (constant
// across candidate communities) is omitted since only relative order
// matters for the argmax.
func gain(kiIn, communityDegree, ki, m float64) float64 {
	return kiIn/m - (communityDegree*ki)/(2*m*m)
}

// relabel renumbers communities densely starting at 0, ordered by the
// smallest member node id, so output labels are stable across equivalent
// partitions.
func relabel(sortedIDs []string, community map[string]int) map[string]int {
	firstSeen := map[int]string{}
	for _, id := range sortedIDs {
		c := community[id]
		if _, ok := firstSeen[c]; !ok {
			firstSeen[c] = id
		}
	}
	orderedOld := make([]int, 0, len(firstSeen))
	for c := range firstSeen {
		orderedOld = append(orderedOld, c)
	}
	sort.Slice(orderedOld, func(i, j int) bool {
		return firstSeen[orderedOld[i]] < firstSeen[orderedOld[j]]
	})
	newLabel := make(map[int]int, len(orderedOld))
	for i, old := range orderedOld {
		newLabel[old] = i
	}
	out := make(map[string]int, len(community))
	for id, c := range community {
		out[id] = newLabel[c]
	}
	return out
}

func computeModularity(ids []string, community map[string]int, adj map[string]map[string]float64, degree map[string]float64, m float64) float64 {
	internal := map[int]float64{}
	total := map[int]float64{}
	for _, id := range ids {
		c := community[id]
		total[c] += degree[id]
		for neighbor, w := range adj[id] {
			if community[neighbor] == c {
				internal[c] += w
			}
		}
	}
	q := 0.0
	// Communities are labelled densely 0..len(total)-1 by relabel; every
	// one contributes its degree term, including those with no internal
	// edge.
	for c := 0; c < len(total); c++ {
		// internal double-counts each internal edge (once per endpoint);
		// halve it to get the standard L_c term.
		lc := internal[c] / 2
		kc := total[c]
		q += lc/m - (kc/(2*m))*(kc/(2*m))
	}
	return q
}
