package engine

import (
	"fmt"
	"math"
)

// Size classes form the nesting hierarchy: small nests into medium,
// medium into large, large into hub.
type SizeClass string

const (
	ClassSmall  SizeClass = "small"
	ClassMedium SizeClass = "medium"
	ClassLarge  SizeClass = "large"
	ClassHub    SizeClass = "hub"
)

// Phase is the robot lifecycle state.
type Phase string

const (
	PhaseDocked              Phase = "docked"
	PhaseDeploying           Phase = "deploying"
	PhasePatrol              Phase = "patrol"
	PhaseReturning           Phase = "returning"
	PhaseLanded              Phase = "landed"
	PhaseCharging            Phase = "charging"
	PhaseNested              Phase = "nested"
	PhaseDeployingFromParent Phase = "deploying_from_parent"
	PhaseReturningToParent   Phase = "returning_to_parent"
)

// PowerMode derives from battery thresholds unless pinned by command.
type PowerMode string

const (
	PowerPerformance PowerMode = "PERFORMANCE"
	PowerNormal      PowerMode = "NORMAL"
	PowerEco         PowerMode = "ECO"
	PowerCritical    PowerMode = "CRITICAL"
)

// Battery thresholds (percent).
const (
	criticalBattery = 5.0
	ecoBattery      = 15.0
	normalBattery   = 40.0
	lowBattery      = 25.0 // triggers return / return-to-parent
	rechargeTarget  = 95.0
	supercapKickIn  = 20.0 // battery level below which the supercap discharges
)

const (
	arrivalTolerance = 1.5 // meters: target arrival + waypoint pop
	replanTolerance  = 2.0 // meters: cached-path target drift before replan
	autoNestRadius   = 3.0 // meters: auto-nest proximity while homing on parent
	noParent         = -1
)

// classSpec holds the per-size-class tuning constants. Rates are tuned
// for plausibility at the 10 Hz reference tick, not physical accuracy.
type classSpec struct {
	MaxSpeed     float64 // m/s
	DrainRate    float64 // percent per minute, base
	SolarRate    float64 // percent per minute at full sun
	TurbineCoeff float64 // percent per minute per (m/s)^2; 0 = no turbine
	RegenCoeff   float64 // percent per minute per m/s tailwind
	Crosswind    float64 // lateral wind susceptibility
	WptOutput    float64 // transmit power, mW; 0 = no transmitter
	WptRange     float64 // meters
	NestCapacity int     // children this class can carry
	NestsInto    SizeClass
	SupercapMah  float64
}

var classSpecs = map[SizeClass]classSpec{
	ClassSmall: {
		MaxSpeed: 12, DrainRate: 1.8, SolarRate: 0.5, TurbineCoeff: 0,
		RegenCoeff: 0.030, Crosswind: 1.0, SupercapMah: 150,
		NestsInto: ClassMedium,
	},
	ClassMedium: {
		MaxSpeed: 9, DrainRate: 1.2, SolarRate: 0.8, TurbineCoeff: 0.020,
		RegenCoeff: 0.020, Crosswind: 0.5,
		WptOutput: 50, WptRange: 12, NestCapacity: 4, NestsInto: ClassLarge,
	},
	ClassLarge: {
		MaxSpeed: 7, DrainRate: 0.9, SolarRate: 1.1, TurbineCoeff: 0.030,
		RegenCoeff: 0.015, Crosswind: 0.3,
		WptOutput: 120, WptRange: 16, NestCapacity: 2, NestsInto: ClassHub,
	},
	ClassHub: {
		MaxSpeed: 4, DrainRate: 0.5, SolarRate: 1.6, TurbineCoeff: 0.050,
		RegenCoeff: 0.010, Crosswind: 0.15,
		WptOutput: 300, WptRange: 20, NestCapacity: 2,
	},
}

// Spec returns the tuning constants for a size class.
func (c SizeClass) Spec() classSpec {
	return classSpecs[c]
}

// Robot is one fleet member, owned by the engine for its whole lifetime.
// Created at startup, toggled online/offline by fault injection, never
// destroyed.
type Robot struct {
	ID    int
	Name  string
	Class SizeClass

	Online    bool
	Byzantine bool

	Pos     Vec2
	Vel     Vec2
	Heading float64 // degrees

	Phase Phase

	Battery      float64 // percent
	Supercap     float64 // percent; only meaningful when SupercapMah > 0
	SupercapMah  float64
	Mode         PowerMode
	pinnedMode   PowerMode // set by command; "" = auto
	HarvestSolar float64   // percent/min equivalents computed this tick
	HarvestWind  float64
	HarvestRegen float64
	WptReceived  float64 // mW this tick
	WptOutput    float64 // mW this tick

	// Nesting forest. ParentID/ChildIDs are kept mutually consistent
	// only through NestInto/UnnestFrom.
	ParentID int
	ChildIDs []int

	// Commanded and patrol targets.
	Target    *Vec2
	Patrol    []Vec2
	PatrolIdx int
	Home      Vec2

	// Parent being homed on while returning-to-parent.
	nestTargetID int

	// Cached A* path, invalidated when the target key drifts.
	path       []Vec2
	pathTarget Vec2
	hasPath    bool

	// Classification accumulator. Similarity against a class prototype
	// is linear in the HD vector, so folding the per-call similarities
	// is folding the bipolar vectors themselves, compared per class.
	hdEvidence [NumSpecies]float64
	frames     int
	Species    int
	Confidence float64
}

// NewRobot creates a docked robot at the home position.
func NewRobot(id int, class SizeClass, home Vec2) *Robot {
	return &Robot{
		ID:           id,
		Name:         fmt.Sprintf("%s-%02d", class, id),
		Class:        class,
		Online:       true,
		Pos:          home,
		Home:         home,
		Phase:        PhaseDocked,
		Battery:      100,
		Supercap:     100,
		SupercapMah:  class.Spec().SupercapMah,
		Mode:         PowerNormal,
		ParentID:     noParent,
		nestTargetID: noParent,
		Species:      -1,
	}
}

// IsNested reports whether the robot is docked inside a parent.
func (r *Robot) IsNested() bool {
	return r.Phase == PhaseNested
}

// IsAirborne reports whether the robot participates in physics this tick.
func (r *Robot) IsAirborne() bool {
	switch r.Phase {
	case PhaseDeploying, PhasePatrol, PhaseReturning,
		PhaseDeployingFromParent, PhaseReturningToParent:
		return true
	}
	return false
}

// CanNestInto reports whether the parent can accept this robot: right
// class relationship, free capacity, both online.
func (r *Robot) CanNestInto(parent *Robot) bool {
	if parent == nil || !parent.Online || !r.Online {
		return false
	}
	if r.Class.Spec().NestsInto != parent.Class {
		return false
	}
	for _, id := range parent.ChildIDs {
		if id == r.ID {
			return true // already a member
		}
	}
	return len(parent.ChildIDs) < parent.Class.Spec().NestCapacity
}

// NestInto docks the robot inside the parent. Idempotent: a second call
// on the same pair leaves the membership unchanged. A nested robot has
// zero velocity, mirrors the parent position and stops draining.
func (r *Robot) NestInto(parent *Robot) {
	if !r.CanNestInto(parent) {
		return
	}
	member := false
	for _, id := range parent.ChildIDs {
		if id == r.ID {
			member = true
			break
		}
	}
	if !member {
		parent.ChildIDs = append(parent.ChildIDs, r.ID)
	}
	r.ParentID = parent.ID
	r.Phase = PhaseNested
	r.Pos = parent.Pos
	r.Vel = Vec2{}
	r.hasPath = false
}

// UnnestFrom deregisters the robot from the parent and repositions it
// at the parent plus a per-slot offset.
func (r *Robot) UnnestFrom(parent *Robot) {
	if parent == nil || r.ParentID != parent.ID {
		return
	}
	slot := 0
	for i, id := range parent.ChildIDs {
		if id == r.ID {
			slot = i
			parent.ChildIDs = append(parent.ChildIDs[:i], parent.ChildIDs[i+1:]...)
			break
		}
	}
	r.ParentID = noParent
	angle := float64(slot) * math.Pi / 2
	r.Pos = parent.Pos.Add(Vec2{math.Cos(angle), math.Sin(angle)}.Scale(2.5))
}

// CheckAutoNest nests the robot when it is homing on its assigned
// parent and gets within the auto-nest radius.
func (r *Robot) CheckAutoNest(parent *Robot) {
	if r.Phase != PhaseReturningToParent || parent == nil {
		return
	}
	if r.Pos.Dist(parent.Pos) <= autoNestRadius {
		r.NestInto(parent)
	}
}

// patrolAnchor is where the robot flies when (re)joining its patrol:
// the current patrol waypoint, or home when no loop is assigned.
func (r *Robot) patrolAnchor() Vec2 {
	if len(r.Patrol) > 0 {
		return r.Patrol[r.PatrolIdx]
	}
	return r.Home
}

// SetTarget replaces the commanded target. The cached path is left in
// place; the drift check in followTarget invalidates it on the next
// plan check.
func (r *Robot) SetTarget(t Vec2) {
	target := t
	r.Target = &target
}

// PinPowerMode pins the power mode from a command. Threshold-derived
// modes still win when they are more restrictive.
func (r *Robot) PinPowerMode(mode PowerMode) {
	r.pinnedMode = mode
	r.updatePowerMode()
}

// updatePowerMode derives the mode from battery thresholds, keeping a
// pinned mode unless the derived one is more restrictive.
func (r *Robot) updatePowerMode() {
	derived := PowerPerformance
	switch {
	case r.Battery < criticalBattery:
		derived = PowerCritical
	case r.Battery < ecoBattery:
		derived = PowerEco
	case r.Battery < normalBattery:
		derived = PowerNormal
	}
	if r.pinnedMode != "" && modeRank(r.pinnedMode) > modeRank(derived) {
		derived = r.pinnedMode
	}
	r.Mode = derived
}

func modeRank(m PowerMode) int {
	switch m {
	case PowerCritical:
		return 3
	case PowerEco:
		return 2
	case PowerNormal:
		return 1
	default:
		return 0
	}
}

// drainFactor is the battery-drain multiplier for the active mode.
func (m PowerMode) drainFactor() float64 {
	switch m {
	case PowerEco:
		return 0.5
	case PowerCritical:
		return 0.2
	default:
		return 1.0
	}
}

// speedFactor throttles flight speed in the low-power modes.
func (m PowerMode) speedFactor() float64 {
	switch m {
	case PowerEco:
		return 0.7
	case PowerCritical:
		return 0.4
	default:
		return 1.0
	}
}

// RemainingMinutes estimates flight time left at the current base drain.
func (r *Robot) RemainingMinutes() float64 {
	rate := r.Class.Spec().DrainRate * r.Mode.drainFactor()
	if rate <= 0 {
		return math.Inf(1)
	}
	return r.Battery / rate
}

// Observe folds one oracle output into the running classification
// accumulator. Every 10th frame the species is reclassified from the
// accumulated HD evidence, with confidence scaled by the mean evidence
// and boosted logarithmically by frame count, capped at 0.99.
func (r *Robot) Observe(out ClassifierOutput) {
	for c, s := range out.ClassSimilarities {
		if c < NumSpecies {
			r.hdEvidence[c] += s
		}
	}
	r.frames++

	if r.frames%10 != 0 {
		return
	}
	best := 0
	for c := 1; c < NumSpecies; c++ {
		if r.hdEvidence[c] > r.hdEvidence[best] {
			best = c
		}
	}
	r.Species = best
	// Mean similarity is in [-1, 1]; map to [0, 1] for the agreement
	// term.
	agreement := (r.hdEvidence[best]/float64(r.frames) + 1) / 2
	conf := agreement * math.Log10(float64(r.frames)+1) / 2
	if conf > 0.99 {
		conf = 0.99
	}
	if conf < 0 {
		conf = 0
	}
	r.Confidence = conf
}

// ResetClassification clears the accumulator, e.g. when a mission
// restarts or a Byzantine flag is cleared.
func (r *Robot) ResetClassification() {
	r.hdEvidence = [NumSpecies]float64{}
	r.frames = 0
	r.Species = -1
	r.Confidence = 0
}
