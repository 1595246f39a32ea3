package engine

// Flight tuning constants.
const (
	headwindPenalty   = 0.5  // m/s speed lost per m/s headwind
	minFlightSpeed    = 1.0  // m/s floor while fighting wind
	crosswindScale    = 0.15 // crosswind drift scale
	windDrainMult     = 2.0  // drain multiplier under moderate/strong wind
	baseChargeRate    = 30.0 // percent/min on the charging pad
	solarShadowRadius = 10.0 // meters from a tall obstacle
	solarShadowFactor = 0.3
	supercapDischarge = 4.0  // supercap percent/s into the battery
	supercapRatio     = 0.15 // battery percent gained per supercap percent
	nestSearchRadius  = 60.0 // meters to look for a carry parent
)

// updateRobot runs one robot through the state machine, movement and
// energy updates for this tick. Nested robots mirror their parent and
// are excluded from physics, planning and drain.
func (e *Engine) updateRobot(r *Robot) {
	if !r.Online {
		return
	}

	if r.IsNested() {
		parent := e.robot(r.ParentID)
		if parent == nil || !parent.Online {
			// Parent lost: eject and head home.
			if parent != nil {
				r.UnnestFrom(parent)
			} else {
				r.ParentID = noParent
			}
			r.Phase = PhaseReturning
			return
		}
		r.Pos = parent.Pos
		r.Vel = Vec2{}
		if r.Battery >= rechargeTarget {
			r.UnnestFrom(parent)
			r.Phase = PhaseDeployingFromParent
			r.SetTarget(r.patrolAnchor())
		}
		return
	}

	r.updatePowerMode()
	wind := e.wind.At(r.Pos)

	switch r.Phase {
	case PhaseDocked:
		// Inert until a deploy command.

	case PhaseDeploying, PhaseDeployingFromParent:
		if e.followTarget(r, r.patrolAnchor(), wind) {
			r.Phase = PhasePatrol
		}
		e.checkLowBattery(r)

	case PhasePatrol:
		if r.Target != nil {
			if e.followTarget(r, *r.Target, wind) {
				r.Target = nil
			}
		} else if len(r.Patrol) > 0 {
			if e.followTarget(r, r.Patrol[r.PatrolIdx], wind) {
				r.PatrolIdx = (r.PatrolIdx + 1) % len(r.Patrol)
			}
		}
		e.checkLowBattery(r)

	case PhaseReturning:
		if e.followTarget(r, r.Home, wind) {
			r.Phase = PhaseLanded
			r.Vel = Vec2{}
		}

	case PhaseLanded:
		r.Phase = PhaseCharging

	case PhaseCharging:
		r.Battery += baseChargeRate / 60 * e.dt
		if r.Battery >= rechargeTarget {
			if r.Battery > 100 {
				r.Battery = 100
			}
			r.Phase = PhaseDeploying
		}
		return // no drain or harvest on the pad

	case PhaseReturningToParent:
		parent := e.robot(r.nestTargetID)
		if parent == nil || !parent.Online || !r.CanNestInto(parent) {
			r.Phase = PhaseReturning
			break
		}
		e.followTarget(r, parent.Pos, wind)
		r.CheckAutoNest(parent)
		if r.IsNested() {
			return
		}
	}

	if r.IsAirborne() {
		e.updateEnergy(r, wind)
	}
}

// checkLowBattery transitions an airborne robot once the battery crosses
// the low threshold: to returning-to-parent when a carry parent with
// capacity is nearby, otherwise home.
func (e *Engine) checkLowBattery(r *Robot) {
	if r.Battery >= lowBattery {
		return
	}
	if parent := e.findNestParent(r); parent != nil {
		r.nestTargetID = parent.ID
		r.Phase = PhaseReturningToParent
		return
	}
	r.Phase = PhaseReturning
}

// findNestParent returns the nearest online robot of the carrying class
// with free capacity within the search radius, or nil.
func (e *Engine) findNestParent(r *Robot) *Robot {
	into := r.Class.Spec().NestsInto
	if into == "" {
		return nil
	}
	var best *Robot
	bestDist := nestSearchRadius
	for _, cand := range e.robots {
		if cand.ID == r.ID || cand.Class != into || !cand.Online || cand.IsNested() {
			continue
		}
		if len(cand.ChildIDs) >= cand.Class.Spec().NestCapacity {
			continue
		}
		if d := r.Pos.Dist(cand.Pos); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	return best
}

// followTarget plans lazily toward the target and advances one movement
// step. Returns true once the robot is within the arrival tolerance of
// the target itself.
func (e *Engine) followTarget(r *Robot, target Vec2, wind WindSample) bool {
	if r.Pos.Dist(target) <= arrivalTolerance {
		r.Vel = Vec2{}
		return true
	}

	// Lazy (re)plan: empty cache, or the target drifted beyond the
	// replan tolerance from the cached key.
	if !r.hasPath || r.pathTarget.Dist(target) > replanTolerance {
		r.path = e.nav.FindPath(r.Pos, target)
		r.pathTarget = target
		r.hasPath = true
	}

	// Pop reached waypoints.
	for len(r.path) > 0 && r.Pos.Dist(r.path[0]) <= arrivalTolerance {
		r.path = r.path[1:]
	}
	if len(r.path) == 0 {
		r.hasPath = false
		return r.Pos.Dist(target) <= arrivalTolerance
	}

	head := r.path[0]
	dir := head.Sub(r.Pos).Norm()
	r.Heading = r.Pos.Bearing(head)

	speed := r.Class.Spec().MaxSpeed * r.Mode.speedFactor()
	if headwind := -dir.Dot(wind.Vector); headwind > 0 {
		speed -= headwindPenalty * headwind
		if speed < minFlightSpeed {
			speed = minFlightSpeed
		}
	}

	// Crosswind pushes the robot off its track; small airframes feel it
	// the most.
	cross := wind.Vector.Sub(dir.Scale(dir.Dot(wind.Vector)))
	drift := cross.Scale(crosswindScale * r.Class.Spec().Crosswind)

	vel := dir.Scale(speed).Add(drift)
	next := e.terrain.Clamp(r.Pos.Add(vel.Scale(e.dt)))

	if e.terrain.Blocked(next) {
		// Try a perpendicular deflection before holding position.
		moved := false
		for _, sign := range []float64{1, -1} {
			cand := e.terrain.Clamp(r.Pos.Add(dir.Perp().Scale(sign * speed * e.dt)))
			if !e.terrain.Blocked(cand) {
				next = cand
				moved = true
				break
			}
		}
		if !moved {
			r.Vel = Vec2{}
			return false
		}
	}

	r.Vel = next.Sub(r.Pos).Scale(1 / e.dt)
	r.Pos = next
	return r.Pos.Dist(target) <= arrivalTolerance
}

// updateEnergy applies drain, the three harvest sources and the
// supercapacitor spill for one airborne tick.
func (e *Engine) updateEnergy(r *Robot, wind WindSample) {
	spec := r.Class.Spec()

	drain := spec.DrainRate * r.Mode.drainFactor()
	if wind.Strength != WindCalm {
		drain *= windDrainMult
	}
	r.Battery -= drain / 60 * e.dt

	// Solar: class rate, per-tick variance, shadow near tall obstacles.
	variance := 0.85 + 0.3*e.rng.Float64()
	solar := spec.SolarRate * variance
	if e.terrain.NearTallObstacle(r.Pos, solarShadowRadius) {
		solar *= solarShadowFactor
	}

	// Turbine harvest grows with the square of wind speed; some classes
	// carry no turbine.
	turbine := spec.TurbineCoeff * wind.Speed * wind.Speed

	// Regenerative propulsion recovers only from the tailwind component.
	regen := 0.0
	if tail := r.Vel.Norm().Dot(wind.Vector); tail > 0 {
		regen = spec.RegenCoeff * tail
	}

	r.HarvestSolar = solar
	r.HarvestWind = turbine
	r.HarvestRegen = regen
	r.Battery += (solar + turbine + regen) / 60 * e.dt

	// The small-class supercapacitor spills into the battery once the
	// battery runs low.
	if r.SupercapMah > 0 && r.Battery < supercapKickIn && r.Supercap > 0 {
		xfer := supercapDischarge * e.dt
		if xfer > r.Supercap {
			xfer = r.Supercap
		}
		r.Supercap -= xfer
		r.Battery += xfer * supercapRatio
	}

	if r.Battery <= 0 {
		r.Battery = 0
		r.Phase = PhaseLanded
		r.Vel = Vec2{}
		e.emit(EventPower, r.ID, "%s battery depleted, forced landing", r.Name)
	}
	if r.Battery > 100 {
		r.Battery = 100
	}
}
