package engine

import (
	"math"
	"testing"
)

func TestFindPathEndsAtGoal(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain(nil)

	start := Vec2{5, 5}
	goal := Vec2{80, 70}

	path := g.FindPath(start, goal)
	if len(path) == 0 {
		t.Fatalf("Expected non-empty path")
	}

	last := path[len(path)-1]
	if last != goal {
		t.Errorf("Expected path to end exactly at goal %v, got %v", goal, last)
	}
}

func TestFindPathSameCell(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain(nil)

	goal := Vec2{5.5, 5.5}
	path := g.FindPath(Vec2{5.1, 5.1}, goal)

	if len(path) != 1 || path[0] != goal {
		t.Errorf("Expected single-element fallback [goal], got %v", path)
	}
}

func TestFindPathBlockedGoal(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain([]Obstacle{{X: 40, Y: 40, W: 10, H: 10, Height: 20}})

	goal := Vec2{45, 45}
	path := g.FindPath(Vec2{5, 5}, goal)

	if len(path) != 1 || path[0] != goal {
		t.Errorf("Expected single-element fallback for blocked goal, got %v", path)
	}
}

func TestFindPathAvoidsObstacle(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	// Vertical wall with a gap only at the top.
	g.BuildFromTerrain([]Obstacle{{X: 48, Y: 0, W: 4, H: 80, Height: 20}})

	path := g.FindPath(Vec2{10, 40}, Vec2{90, 40})
	if len(path) < 2 {
		t.Fatalf("Expected a multi-waypoint detour, got %v", path)
	}

	// Every intermediate waypoint must sit on a free cell.
	for _, wp := range path[:len(path)-1] {
		c, r := g.cellAt(wp)
		if g.isBlocked(c, r) {
			t.Errorf("Waypoint %v lies on a blocked cell", wp)
		}
	}

	if path[len(path)-1] != (Vec2{90, 40}) {
		t.Errorf("Expected detour to end at goal, got %v", path[len(path)-1])
	}
}

func TestFindPathDiagonalCost(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain(nil)

	// A diagonal run on an empty grid should smooth to very few points.
	path := g.FindPath(Vec2{5, 5}, Vec2{45, 45})
	if len(path) > 3 {
		t.Errorf("Expected collinear smoothing to collapse diagonal, got %d waypoints", len(path))
	}
}

func TestBuildFromTerrainClears(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain([]Obstacle{{X: 20, Y: 20, W: 20, H: 20, Height: 20}})

	c, r := g.cellAt(Vec2{30, 30})
	if !g.isBlocked(c, r) {
		t.Fatalf("Expected cell under obstacle to be blocked")
	}

	g.BuildFromTerrain(nil)
	if g.isBlocked(c, r) {
		t.Errorf("Expected rebuild with no obstacles to clear blocked cells")
	}
}

func TestSafetyBufferInflation(t *testing.T) {
	g := NewNavGrid(100, 100, 2.0)
	g.BuildFromTerrain([]Obstacle{{X: 40, Y: 40, W: 10, H: 10, Height: 20}})

	// A point just outside the footprint but inside the buffer.
	c, r := g.cellAt(Vec2{39, 45})
	if !g.isBlocked(c, r) {
		t.Errorf("Expected safety buffer to block cells adjacent to the obstacle")
	}
}

func TestSmoothPathKeepsEndpoints(t *testing.T) {
	points := []Vec2{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {3, 4}}
	out := smoothPath(points)

	if out[0] != points[0] || out[len(out)-1] != points[len(points)-1] {
		t.Errorf("Expected endpoints preserved, got %v", out)
	}
	if len(out) >= len(points) {
		t.Errorf("Expected collinear points dropped, got %v", out)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		from, to Vec2
		want     float64
	}{
		{Vec2{0, 0}, Vec2{1, 0}, 0},
		{Vec2{0, 0}, Vec2{0, 1}, 90},
		{Vec2{0, 0}, Vec2{-1, 0}, 180},
		{Vec2{0, 0}, Vec2{0, -1}, 270},
	}

	for _, tt := range tests {
		got := tt.from.Bearing(tt.to)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Bearing(%v -> %v) = %f, want %f", tt.from, tt.to, got, tt.want)
		}
	}
}
