package engine

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Terrain generation constants
const (
	terrainNoiseFreq  = 0.015 // height field feature size
	terrainMaxElev    = 40.0  // meters
	tallObstacleElev  = 15.0  // obstacles above this cast a solar shadow
	minObstacleSide   = 4.0
	maxObstacleSide   = 14.0
	minObstacleHeight = 6.0
	maxObstacleHeight = 30.0
)

// Obstacle is an axis-aligned box on the terrain. X/Y is the lower-left
// corner, W/H the footprint, Height the elevation above ground.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the obstacle footprint.
func (o Obstacle) Contains(p Vec2) bool {
	return p.X >= o.X && p.X <= o.X+o.W && p.Y >= o.Y && p.Y <= o.Y+o.H
}

// Center returns the footprint center.
func (o Obstacle) Center() Vec2 {
	return Vec2{o.X + o.W/2, o.Y + o.H/2}
}

// Terrain is the static world: a noise-sampled height field plus a list
// of box obstacles. Generated once per engine from the seed.
type Terrain struct {
	Width     float64
	Height    float64
	Obstacles []Obstacle

	noise opensimplex.Noise
}

// NewTerrain generates terrain deterministically from the seed.
func NewTerrain(width, height float64, numObstacles int, seed int64) *Terrain {
	t := &Terrain{
		Width:  width,
		Height: height,
		noise:  opensimplex.NewNormalized(seed),
	}

	rng := rand.New(rand.NewSource(seed + 1))
	for i := 0; i < numObstacles; i++ {
		w := minObstacleSide + rng.Float64()*(maxObstacleSide-minObstacleSide)
		h := minObstacleSide + rng.Float64()*(maxObstacleSide-minObstacleSide)
		t.Obstacles = append(t.Obstacles, Obstacle{
			X:      rng.Float64() * (width - w),
			Y:      rng.Float64() * (height - h),
			W:      w,
			H:      h,
			Height: minObstacleHeight + rng.Float64()*(maxObstacleHeight-minObstacleHeight),
		})
	}
	return t
}

// ElevationAt samples the ground height field.
func (t *Terrain) ElevationAt(x, y float64) float64 {
	return t.noise.Eval2(x*terrainNoiseFreq, y*terrainNoiseFreq) * terrainMaxElev
}

// Blocked reports whether the point lies inside any obstacle footprint.
func (t *Terrain) Blocked(p Vec2) bool {
	for _, o := range t.Obstacles {
		if o.Contains(p) {
			return true
		}
	}
	return false
}

// InBounds reports whether the point lies inside the world rectangle.
func (t *Terrain) InBounds(p Vec2) bool {
	return p.X >= 0 && p.X <= t.Width && p.Y >= 0 && p.Y <= t.Height
}

// Clamp pulls the point back inside the world rectangle.
func (t *Terrain) Clamp(p Vec2) Vec2 {
	if p.X < 0 {
		p.X = 0
	}
	if p.X > t.Width {
		p.X = t.Width
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > t.Height {
		p.Y = t.Height
	}
	return p
}

// NearTallObstacle reports whether any obstacle taller than the shadow
// threshold lies within radius of the point. Used for the solar shadow
// factor.
func (t *Terrain) NearTallObstacle(p Vec2, radius float64) bool {
	for _, o := range t.Obstacles {
		if o.Height < tallObstacleElev {
			continue
		}
		if o.Center().Dist(p) <= radius+o.W/2 {
			return true
		}
	}
	return false
}

// SegmentBlocked reports whether the segment a-b intersects any obstacle
// footprint. Sampled at fixed steps; obstacles are large relative to the
// step so this is adequate for link line-of-sight checks.
func (t *Terrain) SegmentBlocked(a, b Vec2) bool {
	const step = 1.5
	d := b.Sub(a)
	length := d.Len()
	if length == 0 {
		return t.Blocked(a)
	}
	dir := d.Scale(1 / length)
	for s := 0.0; s <= length; s += step {
		if t.Blocked(a.Add(dir.Scale(s))) {
			return true
		}
	}
	return t.Blocked(b)
}
