package engine

import "math/rand"

// Mesh link constants. RSSI is a plausibility model, not RF physics.
const (
	meshMaxRange   = 35.0 // meters
	meshBaseRSSI   = -40.0
	meshRangeLoss  = 45.0 // dB lost across the full range
	meshNoiseSigma = 2.0
	meshJamPenalty = 22.0
	meshByzPenalty = 8.0
	meshCutoffRSSI = -95.0
	meshStrongRSSI = -60.0
	meshOkRSSI     = -78.0
)

// Link quality buckets.
const (
	LinkStrong = "strong"
	LinkOk     = "ok"
	LinkWeak   = "weak"
)

// BleLink is a live mesh edge between two online robots. Ephemeral:
// recomputed every tick, never persisted.
type BleLink struct {
	A       int     `json:"a"`
	B       int     `json:"b"`
	RSSI    float64 `json:"rssi"`
	Quality string  `json:"quality"`
}

// Consensus is the swarm-level majority vote over connected robots.
// Best-effort bounded-fault voting, not a cryptographic BFT protocol:
// Byzantine members vote with features skewed at generation time.
type Consensus struct {
	Species     int     `json:"species"`
	SpeciesName string  `json:"speciesName"`
	Confidence  float64 `json:"confidence"`
	Voters      int     `json:"voters"`
	TotalOnline int     `json:"totalOnline"`
}

// ComputeLinks builds this tick's mesh: for every online pair within
// range, RSSI is distance-scaled with Gaussian noise and bucketed.
// Jamming and Byzantine marking degrade links; obstacle-intersecting
// segments drop them outright.
func ComputeLinks(robots []*Robot, terrain *Terrain, jamming bool, rng *rand.Rand) []BleLink {
	var links []BleLink
	for i := 0; i < len(robots); i++ {
		a := robots[i]
		if !a.Online {
			continue
		}
		for j := i + 1; j < len(robots); j++ {
			b := robots[j]
			if !b.Online {
				continue
			}
			d := a.Pos.Dist(b.Pos)
			if d > meshMaxRange {
				continue
			}
			if terrain.SegmentBlocked(a.Pos, b.Pos) {
				continue
			}

			rssi := meshBaseRSSI - meshRangeLoss*(d/meshMaxRange) + rng.NormFloat64()*meshNoiseSigma
			if jamming {
				rssi -= meshJamPenalty
			}
			if a.Byzantine || b.Byzantine {
				rssi -= meshByzPenalty
			}
			if rssi < meshCutoffRSSI {
				continue
			}

			links = append(links, BleLink{A: a.ID, B: b.ID, RSSI: rssi, Quality: linkQuality(rssi)})
		}
	}
	return links
}

func linkQuality(rssi float64) string {
	switch {
	case rssi >= meshStrongRSSI:
		return LinkStrong
	case rssi >= meshOkRSSI:
		return LinkOk
	default:
		return LinkWeak
	}
}

// ComputeConsensus aggregates the classified species of every connected
// robot into a majority vote. A robot is connected when it holds at
// least one live link; robots without a classification yet abstain.
func ComputeConsensus(robots []*Robot, links []BleLink) Consensus {
	connected := make(map[int]bool)
	for _, l := range links {
		connected[l.A] = true
		connected[l.B] = true
	}

	var votes [NumSpecies]int
	voters := 0
	online := 0
	for _, r := range robots {
		if !r.Online {
			continue
		}
		online++
		if !connected[r.ID] || r.Species < 0 {
			continue
		}
		votes[r.Species]++
		voters++
	}

	c := Consensus{Species: -1, TotalOnline: online, Voters: voters}
	if voters == 0 {
		return c
	}
	best := 0
	for s := 1; s < NumSpecies; s++ {
		if votes[s] > votes[best] {
			best = s
		}
	}
	c.Species = best
	c.SpeciesName = SpeciesNames[best]
	c.Confidence = float64(votes[best]) / float64(voters)
	return c
}
