package engine

import (
	"math/rand"
	"testing"
)

func newTestManager() *MissionManager {
	return NewMissionManager(240, 160, rand.New(rand.NewSource(1)))
}

// patrolRobot is an airborne observer parked on top of a position.
func patrolRobot(id int, pos Vec2, species int) *Robot {
	r := NewRobot(id, ClassSmall, pos)
	r.Phase = PhasePatrol
	r.Species = species
	return r
}

func TestMissionSpawnsOnStart(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 10)

	m.Update(11, nil)

	if m.spawned != 1 {
		t.Fatalf("Expected first spawn on the first update, got %d", m.spawned)
	}
	tgt := m.targets[0]
	if tgt.Status != TargetActive {
		t.Errorf("New target status %s, want %s", tgt.Status, TargetActive)
	}
	if tgt.Deadline != 11+missionSpecs[MissionSurvey].TargetTTL {
		t.Errorf("Deadline %d, want %d", tgt.Deadline, 11+missionSpecs[MissionSurvey].TargetTTL)
	}
	if tgt.Species != ZoneOf(tgt.Pos, 240, 160) {
		t.Errorf("Target species %d does not match its zone", tgt.Species)
	}
}

func TestMissionSpawnCadence(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	spec := missionSpecs[MissionSurvey]

	for tick := uint64(1); tick <= spec.SpawnInterval*3; tick++ {
		m.Update(tick, nil)
	}
	// First spawn at tick 1, then one per interval.
	if m.spawned != 3 {
		t.Errorf("Expected 3 spawns over 3 intervals, got %d", m.spawned)
	}
}

func TestMissionMaxActive(t *testing.T) {
	m := newTestManager()
	m.Start(MissionIntercept, 0)
	spec := missionSpecs[MissionIntercept]

	for tick := uint64(1); tick <= spec.SpawnInterval*10; tick++ {
		m.Update(tick, nil)
	}
	if n := m.activeCount(); n > spec.MaxActive {
		t.Errorf("Active targets %d exceed cap %d", n, spec.MaxActive)
	}
}

func TestMissionDetectAndClassify(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	observer := patrolRobot(1, tgt.Pos, tgt.Species)
	m.Update(2, []*Robot{observer})

	if tgt.Status != TargetClassified {
		t.Fatalf("Survey quorum is 1; status %s, want %s", tgt.Status, TargetClassified)
	}
	if len(tgt.DetectedBy) != 1 || tgt.DetectedBy[0] != 1 {
		t.Errorf("DetectedBy %v, want [1]", tgt.DetectedBy)
	}
	if m.Score() < targetScoreBase {
		t.Errorf("Score %.0f, want at least %.0f", m.Score(), targetScoreBase)
	}
}

func TestMissionSurveyZoneBonus(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	observer := patrolRobot(1, tgt.Pos, tgt.Species)
	m.Update(2, []*Robot{observer})

	spec := missionSpecs[MissionSurvey]
	if m.Score() != targetScoreBase+spec.ZoneBonus {
		t.Errorf("First classification in a zone scores %.0f, got %.0f",
			targetScoreBase+spec.ZoneBonus, m.Score())
	}
}

func TestMissionQuorumHolds(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSearchClassify, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	one := patrolRobot(1, tgt.Pos, tgt.Species)
	m.Update(2, []*Robot{one})

	if tgt.Status != TargetDetected {
		t.Fatalf("One classifier under a quorum of 2: status %s, want %s", tgt.Status, TargetDetected)
	}
	if m.Score() != 0 {
		t.Errorf("No score before quorum, got %.0f", m.Score())
	}

	two := patrolRobot(2, tgt.Pos, tgt.Species)
	m.Update(3, []*Robot{one, two})

	if tgt.Status != TargetClassified {
		t.Errorf("Quorum reached: status %s, want %s", tgt.Status, TargetClassified)
	}
}

func TestMissionWrongSpeciesNeverClassifies(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	wrong := patrolRobot(1, tgt.Pos, (tgt.Species+1)%NumSpecies)
	m.Update(2, []*Robot{wrong})

	if tgt.Status != TargetDetected {
		t.Errorf("Wrong species should detect but not classify: status %s", tgt.Status)
	}
	if len(tgt.ClassifiedBy) != 0 {
		t.Errorf("ClassifiedBy %v, want empty", tgt.ClassifiedBy)
	}
}

func TestMissionNestedRobotsDoNotDetect(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	docked := NewRobot(1, ClassSmall, tgt.Pos)
	docked.Species = tgt.Species // still in PhaseDocked

	m.Update(2, []*Robot{docked})
	if tgt.Status != TargetActive {
		t.Errorf("A docked robot should not detect: status %s", tgt.Status)
	}
}

func TestMissionTargetExpiry(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	m.Update(tgt.Deadline+1, nil)
	if tgt.Status != TargetExpired {
		t.Errorf("Overdue target status %s, want %s", tgt.Status, TargetExpired)
	}
}

func TestMissionClassifiedNeverExpires(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	observer := patrolRobot(1, tgt.Pos, tgt.Species)
	m.Update(2, []*Robot{observer})
	if tgt.Status != TargetClassified {
		t.Fatalf("Setup failed: status %s", tgt.Status)
	}

	m.Update(tgt.Deadline+100, nil)
	if tgt.Status != TargetClassified {
		t.Errorf("Classified is terminal; status %s", tgt.Status)
	}
}

func TestMissionInterceptDrift(t *testing.T) {
	m := newTestManager()
	m.Start(MissionIntercept, 0)
	m.Update(1, nil)
	tgt := m.targets[0]
	start := tgt.Pos

	m.Update(2, nil)
	moved := tgt.Pos.Dist(start)
	want := missionSpecs[MissionIntercept].DriftSpeed * 0.1
	if moved == 0 {
		t.Fatalf("Intercept target did not move")
	}
	// Clamping at a world edge may shorten the step.
	if moved > want+1e-9 {
		t.Errorf("Drift step %.3f m, want at most %.3f", moved, want)
	}
}

func TestMissionStopSealsHistory(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	tgt := m.targets[0]

	observer := patrolRobot(1, tgt.Pos, tgt.Species)
	m.Update(2, []*Robot{observer})
	m.Stop(50)

	if m.Active() {
		t.Fatalf("Manager still active after stop")
	}
	history := m.History()
	if len(history) != 1 {
		t.Fatalf("Expected 1 sealed result, got %d", len(history))
	}
	r := history[0]
	if r.Type != MissionSurvey || r.StartTick != 0 || r.EndTick != 50 {
		t.Errorf("Sealed result %+v has wrong identity fields", r)
	}
	if r.Spawned != 1 || r.Classified != 1 {
		t.Errorf("Sealed counts spawned=%d classified=%d, want 1/1", r.Spawned, r.Classified)
	}
}

func TestMissionStartOverActiveSeals(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)

	m.Start(MissionPerimeter, 10)

	if len(m.History()) != 1 {
		t.Fatalf("Restart should seal the previous mission, history %d", len(m.History()))
	}
	if m.mtype != MissionPerimeter {
		t.Errorf("Active type %s, want %s", m.mtype, MissionPerimeter)
	}
	if len(m.targets) != 0 {
		t.Errorf("Restart should clear targets, got %d", len(m.targets))
	}
}

func TestMissionPerimeterEdgeSpawns(t *testing.T) {
	m := newTestManager()
	m.Start(MissionPerimeter, 0)
	spec := missionSpecs[MissionPerimeter]

	for tick := uint64(1); tick <= spec.SpawnInterval*4; tick++ {
		m.Update(tick, nil)
	}
	for _, tgt := range m.targets {
		onEdge := tgt.Pos.X == 2 || tgt.Pos.X == 238 || tgt.Pos.Y == 2 || tgt.Pos.Y == 158
		if !onEdge {
			t.Errorf("Perimeter target at %v is not on a world edge", tgt.Pos)
		}
	}
}

func TestMissionInfoDeepCopy(t *testing.T) {
	m := newTestManager()
	m.Start(MissionSurvey, 0)
	m.Update(1, nil)
	observer := patrolRobot(1, m.targets[0].Pos, m.targets[0].Species)
	m.Update(2, []*Robot{observer})

	info := m.Info()
	if len(info.Targets) != 1 {
		t.Fatalf("Info targets %d, want 1", len(info.Targets))
	}
	info.Targets[0].DetectedBy[0] = 99

	if m.targets[0].DetectedBy[0] == 99 {
		t.Errorf("Info must not alias manager state")
	}
}
