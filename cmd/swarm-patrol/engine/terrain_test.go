package engine

import "testing"

func TestTerrainDeterminism(t *testing.T) {
	a := NewTerrain(240, 160, 14, 7)
	b := NewTerrain(240, 160, 14, 7)

	if len(a.Obstacles) != len(b.Obstacles) {
		t.Fatalf("Expected identical obstacle counts, got %d and %d", len(a.Obstacles), len(b.Obstacles))
	}
	for i := range a.Obstacles {
		if a.Obstacles[i] != b.Obstacles[i] {
			t.Errorf("Obstacle %d differs between identically seeded terrains", i)
		}
	}

	if a.ElevationAt(17, 42) != b.ElevationAt(17, 42) {
		t.Errorf("Expected identical elevation samples for the same seed")
	}
}

func TestTerrainSeedVariation(t *testing.T) {
	a := NewTerrain(240, 160, 14, 1)
	b := NewTerrain(240, 160, 14, 2)

	same := true
	for i := range a.Obstacles {
		if a.Obstacles[i] != b.Obstacles[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("Expected different seeds to generate different obstacles")
	}
}

func TestObstaclesInBounds(t *testing.T) {
	tr := NewTerrain(240, 160, 20, 3)
	for i, o := range tr.Obstacles {
		if o.X < 0 || o.Y < 0 || o.X+o.W > 240 || o.Y+o.H > 160 {
			t.Errorf("Obstacle %d extends outside the world: %+v", i, o)
		}
	}
}

func TestBlockedAndContains(t *testing.T) {
	tr := &Terrain{Width: 100, Height: 100, Obstacles: []Obstacle{
		{X: 10, Y: 10, W: 20, H: 20, Height: 12},
	}}

	if !tr.Blocked(Vec2{15, 15}) {
		t.Errorf("Expected point inside obstacle to be blocked")
	}
	if tr.Blocked(Vec2{50, 50}) {
		t.Errorf("Expected open point to be free")
	}
}

func TestClamp(t *testing.T) {
	tr := &Terrain{Width: 100, Height: 80}

	p := tr.Clamp(Vec2{-5, 90})
	if p != (Vec2{0, 80}) {
		t.Errorf("Expected clamp to (0, 80), got %v", p)
	}
	if !tr.InBounds(p) {
		t.Errorf("Expected clamped point to be in bounds")
	}
}

func TestSegmentBlocked(t *testing.T) {
	tr := &Terrain{Width: 100, Height: 100, Obstacles: []Obstacle{
		{X: 40, Y: 40, W: 20, H: 20, Height: 12},
	}}

	if !tr.SegmentBlocked(Vec2{10, 50}, Vec2{90, 50}) {
		t.Errorf("Expected segment crossing the obstacle to be blocked")
	}
	if tr.SegmentBlocked(Vec2{10, 10}, Vec2{90, 10}) {
		t.Errorf("Expected segment clear of the obstacle to be free")
	}
}

func TestNearTallObstacle(t *testing.T) {
	tr := &Terrain{Width: 100, Height: 100, Obstacles: []Obstacle{
		{X: 40, Y: 40, W: 10, H: 10, Height: 25}, // tall
		{X: 70, Y: 70, W: 10, H: 10, Height: 8},  // short
	}}

	if !tr.NearTallObstacle(Vec2{46, 52}, 10) {
		t.Errorf("Expected point near the tall obstacle to be shadowed")
	}
	if tr.NearTallObstacle(Vec2{75, 76}, 3) {
		t.Errorf("Short obstacles must not cast a shadow")
	}
	if tr.NearTallObstacle(Vec2{5, 5}, 10) {
		t.Errorf("Expected distant point to be clear")
	}
}
