package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nestwing/swarmsim/cmd/swarm-patrol/config"
	"github.com/nestwing/swarmsim/cmd/swarm-patrol/engine"
	"github.com/nestwing/swarmsim/cmd/swarm-patrol/reporting"
	"github.com/nestwing/swarmsim/pkg/logger"
	"github.com/nestwing/swarmsim/pkg/simulation"
)

// gustInterval is the scripted gust cadence when the gust schedule is on.
const gustInterval = 45 * time.Second

// SwarmPatrolSimulation drives the deterministic patrol engine in real
// time: one engine tick per wall-clock tick interval, with a scripted
// schedule for deployment, missions and fault injection.
type SwarmPatrolSimulation struct {
	cfg       *config.SimulationConfig
	eng       *engine.Engine
	simLogger *reporting.SimulationLogger

	mu       sync.Mutex
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewSwarmPatrolSimulation creates a new instance of the patrol simulation
func NewSwarmPatrolSimulation() simulation.Simulation {
	return &SwarmPatrolSimulation{
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *SwarmPatrolSimulation) Name() string {
	return "Swarm Patrol"
}

// Description returns the simulation description
func (s *SwarmPatrolSimulation) Description() string {
	return "Heterogeneous aerial patrol with WPT nesting, mesh consensus and scripted missions"
}

// Configure sets up the simulation with provided parameters
func (s *SwarmPatrolSimulation) Configure(params map[string]interface{}) error {
	overrides, err := parseOverrides(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg, err := config.LoadConfigWithOverrides("", overrides)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.ConsoleLevel))

	s.cfg = cfg
	return nil
}

// parseOverrides converts raw prompt parameters into config overrides
func parseOverrides(params map[string]interface{}) (map[string]interface{}, error) {
	overrides := make(map[string]interface{})

	intParam := func(key string) error {
		v, ok := params[key]
		if !ok {
			return nil
		}
		switch val := v.(type) {
		case int:
			overrides[key] = val
		case float64:
			overrides[key] = int(val)
		default:
			return fmt.Errorf("%s must be an integer", key)
		}
		return nil
	}

	for _, key := range []string{"num_small", "num_medium", "num_large", "num_hubs", "seed", "byzantine_nodes"} {
		if err := intParam(key); err != nil {
			return nil, err
		}
	}

	if v, ok := params["duration"]; ok {
		switch val := v.(type) {
		case time.Duration:
			overrides["duration"] = val
		case string:
			d, err := time.ParseDuration(val)
			if err != nil {
				return nil, fmt.Errorf("duration must be a duration string: %w", err)
			}
			overrides["duration"] = d
		default:
			return nil, fmt.Errorf("duration must be a duration")
		}
	}

	if v, ok := params["tick_rate"]; ok {
		switch val := v.(type) {
		case float64:
			overrides["tick_rate"] = val
		case int:
			overrides["tick_rate"] = float64(val)
		default:
			return nil, fmt.Errorf("tick_rate must be a number")
		}
	}

	for _, key := range []string{"formation", "mission_type", "log_level"} {
		if v, ok := params[key]; ok {
			overrides[key] = fmt.Sprintf("%v", v)
		}
	}

	for _, key := range []string{"fault_injection", "verbose_logging"} {
		if v, ok := params[key]; ok {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%s must be a boolean", key)
			}
			overrides[key] = b
		}
	}

	return overrides, nil
}

// Run executes the simulation
func (s *SwarmPatrolSimulation) Run(ctx context.Context) error {
	if s.cfg == nil {
		return fmt.Errorf("simulation not configured")
	}

	simID := uuid.New().String()
	s.simLogger = reporting.NewSimulationLogger(simID)

	engCfg := engine.Config{
		WorldWidth:       s.cfg.World.Width,
		WorldHeight:      s.cfg.World.Height,
		NumObstacles:     s.cfg.World.NumObstacles,
		CellSize:         s.cfg.World.CellSize,
		TickRate:         s.cfg.Simulation.TickRate,
		Seed:             s.cfg.Simulation.Seed,
		NumSmall:         s.cfg.Fleet.NumSmall,
		NumMedium:        s.cfg.Fleet.NumMedium,
		NumLarge:         s.cfg.Fleet.NumLarge,
		NumHubs:          s.cfg.Fleet.NumHubs,
		RecorderCapacity: s.cfg.Advanced.RecorderCapacity,
	}

	s.mu.Lock()
	s.eng = engine.New(engCfg, nil, logger.New())
	s.eng.SetFormation(s.cfg.Fleet.Formation)
	s.eng.Deploy()

	// Mark adversarial members up front, smallest robots first
	fleetSize := s.cfg.Fleet.NumSmall + s.cfg.Fleet.NumMedium + s.cfg.Fleet.NumLarge + s.cfg.Fleet.NumHubs
	for i := 0; i < s.cfg.Advanced.ByzantineNodes; i++ {
		s.eng.InjectByzantine(fleetSize - 1 - i)
	}
	s.mu.Unlock()

	logger.Infof("Starting %s: %d robots, %.0fx%.0f m arena, seed %d",
		s.Name(), fleetSize, s.cfg.World.Width, s.cfg.World.Height, s.cfg.Simulation.Seed)

	tickInterval := time.Duration(float64(time.Second) / s.cfg.Simulation.TickRate)
	totalTicks := uint64(time.Duration(s.cfg.Simulation.Duration).Seconds() * s.cfg.Simulation.TickRate)
	missionStartTick := uint64(time.Duration(s.cfg.Mission.StartDelay).Seconds() * s.cfg.Simulation.TickRate)
	statusEvery := uint64(time.Duration(s.cfg.Logging.StatusInterval).Seconds() * s.cfg.Simulation.TickRate)
	gustEvery := uint64(gustInterval.Seconds() * s.cfg.Simulation.TickRate)

	// Fault schedule: fail one node at 40% of the run, recover at 70%
	faultTick := totalTicks * 4 / 10
	recoverTick := totalTicks * 7 / 10

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var final engine.Snapshot
	failedID := -1

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			logger.Info("Simulation stopped by user")
			s.finish(final)
			return nil
		case <-ticker.C:
			s.mu.Lock()
			snap := s.step(totalTicks, missionStartTick, statusEvery, gustEvery, faultTick, recoverTick, &failedID)
			s.mu.Unlock()

			final = snap
			if snap.Tick >= totalTicks {
				logger.Infof("Simulation completed after %d ticks (%.0fs simulated)", snap.Tick, snap.Elapsed)
				s.finish(final)
				return nil
			}
		}
	}
}

// step runs the scripted schedule for the upcoming tick, then advances
// the engine. Callers hold the mutex.
func (s *SwarmPatrolSimulation) step(totalTicks, missionStartTick, statusEvery, gustEvery uint64, faultTick, recoverTick uint64, failedID *int) engine.Snapshot {
	tick := s.eng.Tick()

	if s.cfg.Mission.AutoStart && tick == missionStartTick {
		mtype := engine.MissionType(s.cfg.Mission.Type)
		s.eng.StartMission(mtype)
		s.simLogger.LogMissionEvent(tick, fmt.Sprintf("Mission started: %s", mtype), nil)
	}

	if s.cfg.Advanced.GustSchedule && gustEvery > 0 && tick > 0 && tick%gustEvery == 0 {
		s.eng.TriggerGust()
	}

	if s.cfg.Advanced.FaultInjection {
		if tick == faultTick {
			// Random online victim; remember it for recovery
			s.eng.InjectNodeFailure(-1)
			for _, r := range s.eng.Robots() {
				if !r.Online {
					*failedID = r.ID
					break
				}
			}
			if *failedID >= 0 {
				s.simLogger.LogFault(tick, *failedID, "scripted node failure")
			}
		}
		if tick == recoverTick && *failedID >= 0 {
			s.eng.RecoverNode(*failedID)
			s.simLogger.LogFault(tick, *failedID, "scripted node recovery")
			*failedID = -1
		}
	}

	snap := s.eng.Step()

	for _, ev := range snap.Events {
		s.simLogger.LogEngineEvent(ev.Tick, ev.Type, ev.RobotID, ev.Message)
		if s.cfg.Advanced.VerboseLogging {
			logger.Debugf("[t=%d] %s: %s", ev.Tick, ev.Type, ev.Message)
		}
	}

	if statusEvery > 0 && snap.Tick%statusEvery == 0 {
		s.logStatus(snap)
	}

	return snap
}

// logStatus emits the periodic fleet status line and metric samples
func (s *SwarmPatrolSimulation) logStatus(snap engine.Snapshot) {
	stats := snap.Stats
	s.simLogger.LogFleetStatus(snap.Tick, stats.OnlineCount, stats.NestedCount, stats.AirborneCount, stats.AvgBattery)

	s.simLogger.UpdateMetric("avg_battery", stats.AvgBattery, "%")
	s.simLogger.UpdateMetric("online_count", float64(stats.OnlineCount), "robots")
	s.simLogger.UpdateMetric("mission_score", snap.Mission.Score, "points")

	missionState := "idle"
	if snap.Mission.Active {
		missionState = fmt.Sprintf("%s score=%.0f targets=%d", snap.Mission.Type, snap.Mission.Score, len(snap.Mission.Targets))
	}

	consensus := "no consensus"
	if stats.Consensus.Species >= 0 {
		consensus = fmt.Sprintf("%s (%.0f%%, %d voters)",
			stats.Consensus.SpeciesName, stats.Consensus.Confidence*100, stats.Consensus.Voters)
		s.simLogger.UpdateMetric("consensus_confidence", stats.Consensus.Confidence, "")
	}

	logger.Infof("[t=%d] online=%d nested=%d airborne=%d battery=%.1f%% wind=%s | mission: %s | consensus: %s",
		snap.Tick, stats.OnlineCount, stats.NestedCount, stats.AirborneCount,
		stats.AvgBattery, snap.Wind.Strength, missionState, consensus)
}

// finish stops any running mission, prints the summary and writes the
// end-of-run report
func (s *SwarmPatrolSimulation) finish(final engine.Snapshot) {
	s.mu.Lock()
	if s.eng != nil && final.Mission.Active {
		s.eng.StopMission()
		final = s.eng.Step()
	}
	s.mu.Unlock()

	if final.Stats.Consensus.Species >= 0 {
		s.simLogger.LogClassification(final.Tick,
			final.Stats.Consensus.SpeciesName,
			final.Stats.Consensus.Confidence,
			final.Stats.Consensus.Voters)
	}

	s.simLogger.PrintSummary()

	if !s.cfg.Logging.EnableReport {
		return
	}

	gen := reporting.NewReportGenerator(s.simLogger, reporting.ReportConfig{
		OutputDir: s.cfg.Logging.ReportPath,
		SimulationConfig: map[string]interface{}{
			"seed":      s.cfg.Simulation.Seed,
			"tick_rate": s.cfg.Simulation.TickRate,
			"duration":  s.cfg.Simulation.Duration.String(),
			"fleet": map[string]int{
				"small":  s.cfg.Fleet.NumSmall,
				"medium": s.cfg.Fleet.NumMedium,
				"large":  s.cfg.Fleet.NumLarge,
				"hubs":   s.cfg.Fleet.NumHubs,
			},
			"formation": s.cfg.Fleet.Formation,
			"mission":   s.cfg.Mission.Type,
		},
	})

	report := gen.Generate(final)
	if err := gen.Save(report); err != nil {
		s.simLogger.LogError("Failed to save report", err, nil)
	}
}

// Stop gracefully shuts down the simulation
func (s *SwarmPatrolSimulation) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

// init registers the simulation
func init() {
	simulation.DefaultRegistry.MustRegister("Swarm Patrol", NewSwarmPatrolSimulation)
}
