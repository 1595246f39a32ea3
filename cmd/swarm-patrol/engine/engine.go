package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/nestwing/swarmsim/pkg/logger"
)

// Formation kinds for patrol anchor assignment.
const (
	FormationLine   = "line"
	FormationCircle = "circle"
	FormationGrid   = "grid"
	FormationZones  = "zones"
)

// Config tunes one engine instance. Zero values fall back to Default.
type Config struct {
	WorldWidth   float64
	WorldHeight  float64
	NumObstacles int
	CellSize     float64
	TickRate     float64 // Hz
	Seed         int64

	NumSmall  int
	NumMedium int
	NumLarge  int
	NumHubs   int

	RecorderCapacity int
}

// DefaultConfig is the reference world: 10 Hz, 240x160 m, mixed fleet.
func DefaultConfig() Config {
	return Config{
		WorldWidth:       240,
		WorldHeight:      160,
		NumObstacles:     14,
		CellSize:         2.0,
		TickRate:         10,
		Seed:             1,
		NumSmall:         8,
		NumMedium:        4,
		NumLarge:         2,
		NumHubs:          1,
		RecorderCapacity: 600,
	}
}

// Engine is the deterministic simulation core: the sole mutator of all
// state. Step advances exactly one tick; commands mutate state between
// ticks. Single-threaded; callers serialize access.
type Engine struct {
	cfg Config
	dt  float64
	rng *rand.Rand
	log logger.Logger

	terrain  *Terrain
	nav      *NavGrid
	wind     *WindField
	oracle   Classifier
	robots   []*Robot
	missions *MissionManager
	recorder *Recorder

	tick      uint64
	formation string
	jamming   bool
	events    []Event
}

// New builds an engine from the config. The classifier may be nil, in
// which case the deterministic HDC fallback is used.
func New(cfg Config, oracle Classifier, log logger.Logger) *Engine {
	if cfg.TickRate <= 0 {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.New()
	}

	e := &Engine{
		cfg:       cfg,
		dt:        1 / cfg.TickRate,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		log:       log.WithPrefix("engine"),
		formation: FormationZones,
	}

	e.terrain = NewTerrain(cfg.WorldWidth, cfg.WorldHeight, cfg.NumObstacles, cfg.Seed)
	e.nav = NewNavGrid(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize)
	e.nav.BuildFromTerrain(e.terrain.Obstacles)
	e.wind = NewWindField(cfg.Seed)

	if oracle == nil {
		oracle = NewHDCOracle(cfg.WorldWidth, cfg.WorldHeight, cfg.Seed)
	}
	e.oracle = oracle

	e.missions = NewMissionManager(cfg.WorldWidth, cfg.WorldHeight, e.rng)
	e.recorder = NewRecorder(cfg.RecorderCapacity)

	home := Vec2{cfg.WorldWidth / 2, 6}
	id := 0
	addFleet := func(n int, class SizeClass) {
		for i := 0; i < n; i++ {
			e.robots = append(e.robots, NewRobot(id, class, home))
			id++
		}
	}
	addFleet(cfg.NumHubs, ClassHub)
	addFleet(cfg.NumLarge, ClassLarge)
	addFleet(cfg.NumMedium, ClassMedium)
	addFleet(cfg.NumSmall, ClassSmall)

	e.assignPatrols()
	e.log.Infof("engine ready: %d robots, %d obstacles, seed %d",
		len(e.robots), len(e.terrain.Obstacles), cfg.Seed)
	return e
}

// robot resolves an id against the arena; nil when out of range.
func (e *Engine) robot(id int) *Robot {
	if id < 0 || id >= len(e.robots) {
		return nil
	}
	return e.robots[id]
}

// Robots exposes the arena for read-mostly callers (tests, wrappers).
func (e *Engine) Robots() []*Robot { return e.robots }

// Tick returns the last completed tick.
func (e *Engine) Tick() uint64 { return e.tick }

// Terrain returns the static world.
func (e *Engine) Terrain() *Terrain { return e.terrain }

// Missions returns the mission manager.
func (e *Engine) Missions() *MissionManager { return e.missions }

// Recorder returns the replay buffer.
func (e *Engine) Recorder() *Recorder { return e.recorder }

// emit queues an incremental event for this tick's snapshot.
func (e *Engine) emit(eventType string, robotID int, format string, args ...interface{}) {
	e.events = append(e.events, Event{
		Tick:    e.tick,
		Type:    eventType,
		RobotID: robotID,
		Message: fmt.Sprintf(format, args...),
	})
}

// Step advances exactly one tick and returns the immutable snapshot.
// Order: wind, per-robot state machine/physics/oracle, WPT flows and
// charging, mesh links and consensus, missions, record.
func (e *Engine) Step() Snapshot {
	e.tick++
	e.events = e.events[:0]

	e.wind.Update(e.tick)

	for _, r := range e.robots {
		prevPhase := r.Phase
		e.updateRobot(r)
		if r.Phase != prevPhase {
			e.emit(EventPhase, r.ID, "%s: %s -> %s", r.Name, prevPhase, r.Phase)
		}
	}

	// Oracle calls are synchronous and must complete before the
	// aggregate computations below. A failing call is logged and
	// skipped so the tick keeps its rate.
	for _, r := range e.robots {
		if !r.Online || r.IsNested() || !r.IsAirborne() {
			continue
		}
		out, err := e.oracle.Classify(r.ID, r.Pos.X, r.Pos.Y, e.tick, r.Byzantine)
		if err != nil {
			e.log.Warnf("oracle failed for robot %d at tick %d: %v", r.ID, e.tick, err)
			continue
		}
		r.Observe(out)
	}

	flows := ComputeWptFlows(e.robots)
	ApplyWptCharging(e.robots, flows, e.dt)

	links := ComputeLinks(e.robots, e.terrain, e.jamming, e.rng)
	consensus := ComputeConsensus(e.robots, links)

	e.missions.Update(e.tick, e.robots)

	snap := e.buildSnapshot(links, flows, consensus)
	e.recorder.Record(RecordedFrame{Snapshot: snap, Mission: snap.Mission})
	return snap
}

// buildSnapshot copies all live state into an owned plain-data view.
func (e *Engine) buildSnapshot(links []BleLink, flows []EnergyFlow, consensus Consensus) Snapshot {
	snap := Snapshot{
		Tick:      e.tick,
		Elapsed:   float64(e.tick) * e.dt,
		Formation: e.formation,
		Wind:      e.wind.At(Vec2{e.cfg.WorldWidth / 2, e.cfg.WorldHeight / 2}),
		Jamming:   e.jamming,
		Links:     append([]BleLink(nil), links...),
		Flows:     append([]EnergyFlow(nil), flows...),
		Mission:   e.missions.Info(),
		Events:    append([]Event(nil), e.events...),
	}

	var batterySum float64
	var correct, classified [NumSpecies]int
	for _, r := range e.robots {
		state := RobotState{
			ID:               r.ID,
			Name:             r.Name,
			Class:            r.Class,
			Online:           r.Online,
			Byzantine:        r.Byzantine,
			Pos:              r.Pos,
			Vel:              r.Vel,
			Heading:          r.Heading,
			Phase:            r.Phase,
			Battery:          r.Battery,
			Supercap:         r.Supercap,
			Mode:             r.Mode,
			HarvestSolar:     r.HarvestSolar,
			HarvestWind:      r.HarvestWind,
			HarvestRegen:     r.HarvestRegen,
			WptReceived:      r.WptReceived,
			WptOutput:        r.WptOutput,
			RemainingMinutes: r.RemainingMinutes(),
			ParentID:         r.ParentID,
			ChildIDs:         append([]int(nil), r.ChildIDs...),
			Species:          r.Species,
			Confidence:       r.Confidence,
		}
		snap.Robots = append(snap.Robots, state)

		if r.hasPath && len(r.path) > 0 {
			snap.Paths = append(snap.Paths, RobotPath{
				RobotID:   r.ID,
				Waypoints: append([]Vec2(nil), r.path...),
			})
		}

		if r.Online {
			snap.Stats.OnlineCount++
			batterySum += r.Battery
		}
		if r.IsNested() {
			snap.Stats.NestedCount++
		}
		if r.IsAirborne() {
			snap.Stats.AirborneCount++
		}
		if r.Online && r.Species >= 0 {
			truth := ZoneOf(r.Pos, e.cfg.WorldWidth, e.cfg.WorldHeight)
			classified[truth]++
			if r.Species == truth {
				correct[truth]++
			}
		}
	}

	if snap.Stats.OnlineCount > 0 {
		snap.Stats.AvgBattery = batterySum / float64(snap.Stats.OnlineCount)
	}
	for s := 0; s < NumSpecies; s++ {
		if classified[s] > 0 {
			snap.Stats.SpeciesAccuracy[s] = float64(correct[s]) / float64(classified[s])
		}
	}
	snap.Stats.Consensus = consensus
	return snap
}

// --- Command surface ---------------------------------------------------
//
// Arguments arrive pre-validated from the transport boundary; the
// engine trusts ids and enums but tolerates inapplicable transitions
// as no-ops.

// Deploy launches every docked online robot toward its patrol anchor.
func (e *Engine) Deploy() {
	n := 0
	for _, r := range e.robots {
		if r.Online && r.Phase == PhaseDocked {
			r.Phase = PhaseDeploying
			n++
		}
	}
	e.emit(EventCommand, -1, "deploy: %d robots launched", n)
	e.log.Infof("deploy: %d robots launched", n)
}

// Recall sends every airborne robot home. Nested robots stay nested;
// their carrier brings them back.
func (e *Engine) Recall() {
	n := 0
	for _, r := range e.robots {
		if r.Online && r.IsAirborne() {
			r.Phase = PhaseReturning
			r.Target = nil
			n++
		}
	}
	e.emit(EventCommand, -1, "recall: %d robots returning", n)
	e.log.Infof("recall: %d robots returning", n)
}

// SetFormation reassigns patrol anchors for the given formation kind.
func (e *Engine) SetFormation(kind string) {
	e.formation = kind
	e.assignPatrols()
	e.emit(EventFormation, -1, "formation set to %s", kind)
}

// MoveRobot redirects one robot to a target. The cached path is
// invalidated on the next plan check.
func (e *Engine) MoveRobot(id int, target Vec2) {
	r := e.robot(id)
	if r == nil || !r.Online || r.IsNested() {
		return
	}
	r.SetTarget(e.terrain.Clamp(target))
	if r.Phase == PhaseDocked {
		r.Phase = PhaseDeploying
	}
	e.emit(EventCommand, id, "%s redirected to (%.0f, %.0f)", r.Name, target.X, target.Y)
}

// SetPowerMode pins a robot's power mode.
func (e *Engine) SetPowerMode(id int, mode PowerMode) {
	r := e.robot(id)
	if r == nil {
		return
	}
	r.PinPowerMode(mode)
	e.emit(EventPower, id, "%s power mode pinned to %s", r.Name, mode)
}

// TriggerGust starts a wind gust window.
func (e *Engine) TriggerGust() {
	e.wind.TriggerGust()
	e.emit(EventCommand, -1, "gust triggered")
}

// InjectJamming enables fleet-wide mesh jamming.
func (e *Engine) InjectJamming() {
	e.jamming = true
	e.emit(EventFault, -1, "jamming injected")
	e.log.Warn("jamming injected")
}

// ClearJamming disables mesh jamming.
func (e *Engine) ClearJamming() {
	e.jamming = false
	e.emit(EventFault, -1, "jamming cleared")
}

// InjectNodeFailure takes a robot offline; id < 0 picks a random online
// robot. Nested children of a failed carrier are ejected and sent home.
func (e *Engine) InjectNodeFailure(id int) {
	r := e.robot(id)
	if r == nil {
		r = e.randomRobot(func(c *Robot) bool { return c.Online })
	}
	if r == nil || !r.Online {
		return
	}
	r.Online = false
	r.Vel = Vec2{}
	for _, childID := range append([]int(nil), r.ChildIDs...) {
		if child := e.robot(childID); child != nil && child.IsNested() {
			child.UnnestFrom(r)
			child.Phase = PhaseReturning
		}
	}
	if parent := e.robot(r.ParentID); parent != nil {
		r.UnnestFrom(parent)
		r.Phase = PhaseLanded
	}
	e.emit(EventFault, r.ID, "%s node failure", r.Name)
	e.log.Warnf("node failure injected: %s", r.Name)
}

// RecoverNode brings a failed robot back online, landed at its current
// position.
func (e *Engine) RecoverNode(id int) {
	r := e.robot(id)
	if r == nil || r.Online {
		return
	}
	r.Online = true
	r.Phase = PhaseLanded
	e.emit(EventFault, r.ID, "%s recovered", r.Name)
}

// InjectByzantine marks a robot as Byzantine; id < 0 picks a random
// online robot. Its classification features skew from the next oracle
// call.
func (e *Engine) InjectByzantine(id int) {
	r := e.robot(id)
	if r == nil {
		r = e.randomRobot(func(c *Robot) bool { return c.Online && !c.Byzantine })
	}
	if r == nil {
		return
	}
	r.Byzantine = true
	r.ResetClassification()
	e.emit(EventFault, r.ID, "%s marked byzantine", r.Name)
	e.log.Warnf("byzantine marker set: %s", r.Name)
}

// ClearByzantine clears all Byzantine markers and resets the affected
// accumulators.
func (e *Engine) ClearByzantine() {
	for _, r := range e.robots {
		if r.Byzantine {
			r.Byzantine = false
			r.ResetClassification()
			e.emit(EventFault, r.ID, "%s byzantine marker cleared", r.Name)
		}
	}
}

// StartMission begins a mission of the given type.
func (e *Engine) StartMission(mtype MissionType) {
	e.missions.Start(mtype, e.tick)
	e.emit(EventMission, -1, "mission started: %s", mtype)
	e.log.Infof("mission started: %s", mtype)
}

// StopMission seals the running mission into history.
func (e *Engine) StopMission() {
	e.missions.Stop(e.tick)
	e.emit(EventMission, -1, "mission stopped")
}

func (e *Engine) randomRobot(ok func(*Robot) bool) *Robot {
	var candidates []*Robot
	for _, r := range e.robots {
		if ok(r) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[e.rng.Intn(len(candidates))]
}

// assignPatrols hands every robot a patrol loop around a formation
// anchor. Each loop is a small box the robot cycles indefinitely.
func (e *Engine) assignPatrols() {
	w, h := e.cfg.WorldWidth, e.cfg.WorldHeight
	n := len(e.robots)
	for i, r := range e.robots {
		var anchor Vec2
		switch e.formation {
		case FormationLine:
			anchor = Vec2{w * float64(i+1) / float64(n+1), h / 2}
		case FormationCircle:
			angle := 2 * math.Pi * float64(i) / float64(n)
			radius := math.Min(w, h) * 0.35
			anchor = Vec2{w/2 + radius*math.Cos(angle), h/2 + radius*math.Sin(angle)}
		case FormationGrid:
			cols := int(math.Ceil(math.Sqrt(float64(n))))
			col, row := i%cols, i/cols
			anchor = Vec2{
				w * (float64(col) + 0.5) / float64(cols),
				h * (float64(row) + 0.5) / float64((n+cols-1)/cols),
			}
		default: // zones: spread across the six survey zones
			zone := i % NumSpecies
			anchor = Vec2{
				w*(float64(zone%3)+0.5)/3 + e.rng.Float64()*8 - 4,
				h*(float64(zone/3)+0.5)/2 + e.rng.Float64()*8 - 4,
			}
		}
		anchor = e.terrain.Clamp(anchor)

		const box = 12.0
		r.Patrol = []Vec2{
			e.terrain.Clamp(anchor.Add(Vec2{-box, -box})),
			e.terrain.Clamp(anchor.Add(Vec2{box, -box})),
			e.terrain.Clamp(anchor.Add(Vec2{box, box})),
			e.terrain.Clamp(anchor.Add(Vec2{-box, box})),
		}
		r.PatrolIdx = 0
		r.hasPath = false
	}
}
