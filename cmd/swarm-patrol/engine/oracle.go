package engine

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Classifier model dimensions. The engine treats the species model as an
// opaque oracle; these sizes only shape the output payload.
const (
	NumSpecies  = 6
	MelBands    = 32
	HiddenDim   = 64
	HDDimension = 256
)

// SpeciesNames indexes predicted classes for display and stats.
var SpeciesNames = [NumSpecies]string{
	"western meadowlark",
	"spotted towhee",
	"canyon wren",
	"ash-throated flycatcher",
	"lesser goldfinch",
	"black-chinned hummingbird",
}

// ClassifierOutput is the full oracle payload for one observation.
// HDVector is bipolar (+1/-1); ClassSimilarities has one entry per
// species.
type ClassifierOutput struct {
	MelFeatures       [MelBands]float64
	HiddenActivations []float64
	HDVector          []int8
	ClassSimilarities []float64
	PredictedClass    int
	Confidence        float64
}

// Classifier is the species-classification oracle boundary. Calls are
// synchronous and must be deterministic for identical inputs. The
// byzantine flag lets a faulty swarm member corrupt its own features at
// generation time.
type Classifier interface {
	Classify(robotID int, x, y float64, tick uint64, byzantine bool) (ClassifierOutput, error)
}

// ZoneOf maps a position to one of six acoustic survey zones (3x2 grid
// over the world). The fallback oracle's ground-truth species is the
// zone index.
func ZoneOf(p Vec2, worldWidth, worldHeight float64) int {
	col := int(p.X / (worldWidth / 3))
	if col > 2 {
		col = 2
	}
	if col < 0 {
		col = 0
	}
	row := int(p.Y / (worldHeight / 2))
	if row > 1 {
		row = 1
	}
	if row < 0 {
		row = 0
	}
	return row*3 + col
}

// HDCOracle is the deterministic fallback classifier: a hyperdimensional
// encoder seeded per call from (robot, position, tick). It preserves the
// full oracle output shape so downstream aggregation is identical with
// either implementation.
//
// A byzantine robot's features are skewed at generation time: its
// position-implied zone shifts by +3 mod 6, so its votes lean wrong
// without being trivially detectable.
type HDCOracle struct {
	worldWidth  float64
	worldHeight float64
	prototypes  [NumSpecies][]int8
}

// NewHDCOracle builds class prototype hypervectors from the seed.
func NewHDCOracle(worldWidth, worldHeight float64, seed int64) *HDCOracle {
	o := &HDCOracle{worldWidth: worldWidth, worldHeight: worldHeight}
	rng := rand.New(rand.NewSource(seed + 31))
	for c := 0; c < NumSpecies; c++ {
		proto := make([]int8, HDDimension)
		for d := range proto {
			if rng.Intn(2) == 0 {
				proto[d] = 1
			} else {
				proto[d] = -1
			}
		}
		o.prototypes[c] = proto
	}
	return o
}

// Classify produces a deterministic observation for the robot position.
func (o *HDCOracle) Classify(robotID int, x, y float64, tick uint64, byzantine bool) (ClassifierOutput, error) {
	zone := ZoneOf(Vec2{x, y}, o.worldWidth, o.worldHeight)
	if byzantine {
		zone = (zone + 3) % NumSpecies
	}

	rng := rand.New(rand.NewSource(callSeed(robotID, x, y, tick)))

	out := ClassifierOutput{
		HiddenActivations: make([]float64, HiddenDim),
		HDVector:          make([]int8, HDDimension),
		ClassSimilarities: make([]float64, NumSpecies),
	}

	for i := range out.MelFeatures {
		// Band energy peaks around the species' characteristic band.
		center := float64(zone*MelBands)/NumSpecies + float64(MelBands)/(2*NumSpecies)
		d := float64(i) - center
		out.MelFeatures[i] = math.Exp(-d*d/18) + rng.Float64()*0.15
	}
	for i := range out.HiddenActivations {
		out.HiddenActivations[i] = math.Tanh(rng.NormFloat64() * 0.8)
	}

	// Noisy copy of the class prototype: flip a fraction of dimensions.
	const flipRate = 0.18
	copy(out.HDVector, o.prototypes[zone])
	for d := range out.HDVector {
		if rng.Float64() < flipRate {
			out.HDVector[d] = -out.HDVector[d]
		}
	}

	best := 0
	for c := 0; c < NumSpecies; c++ {
		out.ClassSimilarities[c] = hdSimilarity(out.HDVector, o.prototypes[c])
		if out.ClassSimilarities[c] > out.ClassSimilarities[best] {
			best = c
		}
	}
	out.PredictedClass = best
	out.Confidence = (out.ClassSimilarities[best] + 1) / 2
	return out, nil
}

// hdSimilarity is the normalized dot product of two bipolar vectors,
// in [-1, 1].
func hdSimilarity(a, b []int8) float64 {
	sum := 0
	for i := range a {
		sum += int(a[i]) * int(b[i])
	}
	return float64(sum) / float64(len(a))
}

// callSeed hashes the classify arguments so identical inputs always
// yield identical outputs. Positions are quantized to centimeters to
// keep the hash stable under float formatting.
func callSeed(robotID int, x, y float64, tick uint64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	put(uint64(robotID))
	put(uint64(int64(x * 100)))
	put(uint64(int64(y * 100)))
	put(tick)
	return int64(h.Sum64())
}
