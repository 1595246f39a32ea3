package engine

import (
	"math/rand"
	"testing"
)

func openTerrain() *Terrain {
	return NewTerrain(240, 160, 0, 1)
}

func TestComputeLinksInRange(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{58, 50})
	rng := rand.New(rand.NewSource(1))

	links := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rng)
	if len(links) != 1 {
		t.Fatalf("Expected 1 link at 8m, got %d", len(links))
	}
	l := links[0]
	if l.A != 0 || l.B != 1 {
		t.Errorf("Link endpoints %d-%d, want 0-1", l.A, l.B)
	}
	if l.RSSI > meshBaseRSSI+3*meshNoiseSigma || l.RSSI < meshCutoffRSSI {
		t.Errorf("RSSI %.1f outside plausible range", l.RSSI)
	}
}

func TestComputeLinksOutOfRange(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{100, 50})
	rng := rand.New(rand.NewSource(1))

	if links := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rng); len(links) != 0 {
		t.Errorf("Expected no link at 50m, got %d", len(links))
	}
}

func TestComputeLinksSkipsOffline(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{55, 50})
	b.Online = false
	rng := rand.New(rand.NewSource(1))

	if links := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rng); len(links) != 0 {
		t.Errorf("Offline robot should hold no links, got %d", len(links))
	}
}

func TestComputeLinksObstacleShadow(t *testing.T) {
	terrain := openTerrain()
	terrain.Obstacles = append(terrain.Obstacles, Obstacle{
		X: 58, Y: 44, W: 4, H: 12, Height: 20,
	})

	a := NewRobot(0, ClassSmall, Vec2{54, 50})
	b := NewRobot(1, ClassSmall, Vec2{68, 50})
	rng := rand.New(rand.NewSource(1))

	if links := ComputeLinks([]*Robot{a, b}, terrain, false, rng); len(links) != 0 {
		t.Errorf("Expected the obstacle to shadow the link, got %d", len(links))
	}
}

func TestJammingDegradesLinks(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{58, 50})

	clear := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rand.New(rand.NewSource(1)))
	jammed := ComputeLinks([]*Robot{a, b}, openTerrain(), true, rand.New(rand.NewSource(1)))

	if len(clear) != 1 || len(jammed) != 1 {
		t.Fatalf("Expected 1 link in both runs, got %d and %d", len(clear), len(jammed))
	}
	if jammed[0].RSSI != clear[0].RSSI-meshJamPenalty {
		t.Errorf("Jammed RSSI %.1f, want %.1f", jammed[0].RSSI, clear[0].RSSI-meshJamPenalty)
	}
}

func TestByzantinePenalty(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{58, 50})

	clean := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rand.New(rand.NewSource(1)))
	b.Byzantine = true
	marked := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rand.New(rand.NewSource(1)))

	if len(clean) != 1 || len(marked) != 1 {
		t.Fatalf("Expected 1 link in both runs, got %d and %d", len(clean), len(marked))
	}
	if marked[0].RSSI != clean[0].RSSI-meshByzPenalty {
		t.Errorf("Byzantine RSSI %.1f, want %.1f", marked[0].RSSI, clean[0].RSSI-meshByzPenalty)
	}
}

func TestLinkQualityBuckets(t *testing.T) {
	tests := []struct {
		rssi float64
		want string
	}{
		{-45, LinkStrong},
		{-60, LinkStrong},
		{-61, LinkOk},
		{-78, LinkOk},
		{-79, LinkWeak},
		{-94, LinkWeak},
	}
	for _, tt := range tests {
		if got := linkQuality(tt.rssi); got != tt.want {
			t.Errorf("linkQuality(%.0f) = %s, want %s", tt.rssi, got, tt.want)
		}
	}
}

func TestConsensusMajority(t *testing.T) {
	var robots []*Robot
	for i := 0; i < 5; i++ {
		r := NewRobot(i, ClassSmall, Vec2{50 + float64(i)*3, 50})
		r.Phase = PhasePatrol
		robots = append(robots, r)
	}
	robots[0].Species = 2
	robots[1].Species = 2
	robots[2].Species = 2
	robots[3].Species = 5
	// robots[4] abstains: not classified yet.

	links := ComputeLinks(robots, openTerrain(), false, rand.New(rand.NewSource(1)))
	c := ComputeConsensus(robots, links)

	if c.Species != 2 {
		t.Errorf("Consensus species %d, want 2", c.Species)
	}
	if c.SpeciesName != SpeciesNames[2] {
		t.Errorf("Consensus species name %q, want %q", c.SpeciesName, SpeciesNames[2])
	}
	if c.Voters != 4 {
		t.Errorf("Voters %d, want 4", c.Voters)
	}
	if c.TotalOnline != 5 {
		t.Errorf("TotalOnline %d, want 5", c.TotalOnline)
	}
	if c.Confidence != 0.75 {
		t.Errorf("Confidence %.2f, want 0.75", c.Confidence)
	}
}

func TestConsensusNoVoters(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{50, 50})
	b := NewRobot(1, ClassSmall, Vec2{55, 50})

	links := ComputeLinks([]*Robot{a, b}, openTerrain(), false, rand.New(rand.NewSource(1)))
	c := ComputeConsensus([]*Robot{a, b}, links)

	if c.Species != -1 {
		t.Errorf("Unclassified swarm should abstain, got species %d", c.Species)
	}
	if c.Voters != 0 {
		t.Errorf("Voters %d, want 0", c.Voters)
	}
}

func TestConsensusRequiresConnection(t *testing.T) {
	a := NewRobot(0, ClassSmall, Vec2{10, 10})
	b := NewRobot(1, ClassSmall, Vec2{200, 150})
	a.Species = 1
	b.Species = 1

	// No links: isolated robots never vote.
	c := ComputeConsensus([]*Robot{a, b}, nil)
	if c.Voters != 0 || c.Species != -1 {
		t.Errorf("Isolated robots should not vote: voters %d species %d", c.Voters, c.Species)
	}
}
