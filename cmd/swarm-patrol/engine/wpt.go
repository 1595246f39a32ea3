package engine

// Wireless power transfer constants.
const (
	wptFlowEpsilon = 0.1    // mW; flows below this are dropped
	wptChargePerMW = 0.0008 // battery percent per mW per second
)

// EnergyFlow is one active parent-to-child transfer this tick.
// Ephemeral: recomputed every tick, never persisted.
type EnergyFlow struct {
	FromID         int     `json:"fromId"`
	ToID           int     `json:"toId"`
	Power          float64 `json:"power"` // mW at the receiver
	DistanceFactor float64 `json:"distanceFactor"`
}

// ComputeWptFlows yields the active parent-to-child transfers. Only
// online parents with a positive transmit power and at least one online
// child qualify; power splits equally across eligible children. The
// distance factor is 1.0 for nested children and decays linearly to
// zero at the class WPT range for children flying nearby.
func ComputeWptFlows(robots []*Robot) []EnergyFlow {
	var flows []EnergyFlow
	byID := make(map[int]*Robot, len(robots))
	for _, r := range robots {
		byID[r.ID] = r
	}

	for _, parent := range robots {
		spec := parent.Class.Spec()
		if !parent.Online || spec.WptOutput <= 0 || len(parent.ChildIDs) == 0 {
			continue
		}

		var eligible []*Robot
		for _, id := range parent.ChildIDs {
			if child := byID[id]; child != nil && child.Online {
				eligible = append(eligible, child)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		share := spec.WptOutput / float64(len(eligible))
		for _, child := range eligible {
			factor := 1.0
			if !child.IsNested() {
				d := parent.Pos.Dist(child.Pos)
				factor = 1.0 - d/spec.WptRange
				if factor < 0 {
					factor = 0
				}
			}
			power := share * factor
			if power < wptFlowEpsilon {
				continue
			}
			flows = append(flows, EnergyFlow{
				FromID:         parent.ID,
				ToID:           child.ID,
				Power:          power,
				DistanceFactor: factor,
			})
		}
	}
	return flows
}

// ApplyWptCharging resets the per-tick transfer fields on every robot,
// then applies this tick's flows only. Supercapacitor-bearing robots
// fill the supercap first; the battery only rises once the supercap is
// full. Others charge the battery directly.
func ApplyWptCharging(robots []*Robot, flows []EnergyFlow, dt float64) {
	byID := make(map[int]*Robot, len(robots))
	for _, r := range robots {
		r.WptReceived = 0
		r.WptOutput = 0
		byID[r.ID] = r
	}

	for _, f := range flows {
		from := byID[f.FromID]
		to := byID[f.ToID]
		if from == nil || to == nil {
			continue
		}
		from.WptOutput += f.Power
		to.WptReceived += f.Power

		gain := f.Power * wptChargePerMW * dt
		if to.SupercapMah > 0 && to.Supercap < 100 {
			to.Supercap += gain
			if to.Supercap > 100 {
				to.Supercap = 100
			}
			continue
		}
		to.Battery += gain
		if to.Battery > 100 {
			to.Battery = 100
		}
	}
}
