package engine

import (
	"math"
	"testing"
)

func wptFleet(children int) []*Robot {
	parent := NewRobot(0, ClassMedium, Vec2{50, 50})
	robots := []*Robot{parent}
	for i := 1; i <= children; i++ {
		child := NewRobot(i, ClassSmall, Vec2{50, 50})
		child.NestInto(parent)
		robots = append(robots, child)
	}
	return robots
}

func TestWptEqualSplitNested(t *testing.T) {
	robots := wptFleet(4)
	flows := ComputeWptFlows(robots)

	if len(flows) != 4 {
		t.Fatalf("Expected 4 flows, got %d", len(flows))
	}
	for _, f := range flows {
		if f.Power != 12.5 {
			t.Errorf("Flow to %d: power %.2f mW, want 12.5", f.ToID, f.Power)
		}
		if f.DistanceFactor != 1.0 {
			t.Errorf("Flow to %d: nested factor %.2f, want 1.0", f.ToID, f.DistanceFactor)
		}
	}
}

func TestWptDistanceDecay(t *testing.T) {
	// A child on the parent roster but flying nearby, not nested.
	parent := NewRobot(0, ClassMedium, Vec2{50, 50})
	child := NewRobot(1, ClassSmall, Vec2{56, 50})
	parent.ChildIDs = []int{child.ID}
	child.ParentID = parent.ID
	child.Phase = PhasePatrol

	flows := ComputeWptFlows([]*Robot{parent, child})
	if len(flows) != 1 {
		t.Fatalf("Expected 1 flow, got %d", len(flows))
	}

	// 6m out of a 12m range halves the delivered power.
	if math.Abs(flows[0].DistanceFactor-0.5) > 1e-9 {
		t.Errorf("Distance factor %.3f, want 0.5", flows[0].DistanceFactor)
	}
	if math.Abs(flows[0].Power-25.0) > 1e-9 {
		t.Errorf("Power %.2f mW, want 25.0", flows[0].Power)
	}
}

func TestWptOutOfRange(t *testing.T) {
	parent := NewRobot(0, ClassMedium, Vec2{50, 50})
	child := NewRobot(1, ClassSmall, Vec2{70, 50})
	parent.ChildIDs = []int{child.ID}
	child.ParentID = parent.ID
	child.Phase = PhasePatrol

	flows := ComputeWptFlows([]*Robot{parent, child})
	if len(flows) != 0 {
		t.Errorf("Expected no flow beyond WPT range, got %d", len(flows))
	}
}

func TestWptExcludesOfflineChild(t *testing.T) {
	robots := wptFleet(2)
	robots[1].Online = false

	flows := ComputeWptFlows(robots)
	if len(flows) != 1 {
		t.Fatalf("Expected 1 flow, got %d", len(flows))
	}
	if flows[0].ToID != robots[2].ID {
		t.Errorf("Flow targets %d, want %d", flows[0].ToID, robots[2].ID)
	}
	// The full transmit power goes to the one eligible child.
	if flows[0].Power != 50.0 {
		t.Errorf("Power %.2f mW, want 50.0", flows[0].Power)
	}
}

func TestWptOfflineParentTransmitsNothing(t *testing.T) {
	robots := wptFleet(2)
	robots[0].Online = false

	if flows := ComputeWptFlows(robots); len(flows) != 0 {
		t.Errorf("Offline parent should not transmit, got %d flows", len(flows))
	}
}

func TestWptSupercapFirst(t *testing.T) {
	robots := wptFleet(1)
	child := robots[1]
	child.Battery = 50
	child.Supercap = 40

	flows := ComputeWptFlows(robots)
	ApplyWptCharging(robots, flows, 0.1)

	if child.Battery != 50 {
		t.Errorf("Battery should not charge while supercap is below full, got %.3f", child.Battery)
	}
	wantGain := 50.0 * wptChargePerMW * 0.1
	if math.Abs(child.Supercap-(40+wantGain)) > 1e-9 {
		t.Errorf("Supercap %.5f, want %.5f", child.Supercap, 40+wantGain)
	}
	if child.WptReceived != 50.0 {
		t.Errorf("WptReceived %.2f, want 50.0", child.WptReceived)
	}
	if robots[0].WptOutput != 50.0 {
		t.Errorf("Parent WptOutput %.2f, want 50.0", robots[0].WptOutput)
	}
}

func TestWptChargesBatteryWhenSupercapFull(t *testing.T) {
	robots := wptFleet(1)
	child := robots[1]
	child.Battery = 50
	child.Supercap = 100

	flows := ComputeWptFlows(robots)
	ApplyWptCharging(robots, flows, 0.1)

	if child.Battery <= 50 {
		t.Errorf("Battery should charge once supercap is full, got %.5f", child.Battery)
	}
}

func TestWptResetsPerTickFields(t *testing.T) {
	robots := wptFleet(1)
	robots[0].WptOutput = 99
	robots[1].WptReceived = 99

	ApplyWptCharging(robots, nil, 0.1)

	if robots[0].WptOutput != 0 || robots[1].WptReceived != 0 {
		t.Errorf("Per-tick transfer fields should reset with no flows")
	}
}
