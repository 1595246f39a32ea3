package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nestwing/swarmsim/cmd/swarm-patrol/engine"
	"github.com/nestwing/swarmsim/pkg/logger"
)

// ReportGenerator produces end-of-run patrol reports
type ReportGenerator struct {
	logger *SimulationLogger
	config ReportConfig
}

// ReportConfig configures report generation
type ReportConfig struct {
	OutputDir        string
	SimulationConfig map[string]interface{} // Configuration used for the simulation
}

// PatrolReport is the end-of-run report document
type PatrolReport struct {
	Metadata    ReportMetadata         `json:"metadata"`
	Fleet       FleetAnalysis          `json:"fleet"`
	Missions    []engine.MissionResult `json:"missions"`
	Consensus   ConsensusAnalysis      `json:"consensus"`
	EventCounts map[string]int         `json:"event_counts"`
	EventLog    []EventLogEntry        `json:"event_log"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

// ReportMetadata contains report metadata
type ReportMetadata struct {
	SimulationID    string    `json:"simulation_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	SimulationStart time.Time `json:"simulation_start"`
	WallDuration    string    `json:"wall_duration"`
	SimTicks        uint64    `json:"sim_ticks"`
	SimSeconds      float64   `json:"sim_seconds"`
}

// FleetAnalysis summarizes fleet state at the end of the run
type FleetAnalysis struct {
	FleetSize     int     `json:"fleet_size"`
	OnlineCount   int     `json:"online_count"`
	NestedCount   int     `json:"nested_count"`
	AirborneCount int     `json:"airborne_count"`
	AvgBattery    float64 `json:"avg_battery"`
	Faults        int     `json:"faults"`
}

// ConsensusAnalysis summarizes the final mesh consensus state
type ConsensusAnalysis struct {
	Species         string    `json:"species"`
	Confidence      float64   `json:"confidence"`
	Voters          int       `json:"voters"`
	SpeciesAccuracy []float64 `json:"species_accuracy"`
}

// EventLogEntry is one entry in the flattened event log
type EventLogEntry struct {
	Tick     uint64 `json:"tick"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	RobotID  int    `json:"robot_id"`
	Message  string `json:"message"`
}

// NewReportGenerator creates a report generator
func NewReportGenerator(simLogger *SimulationLogger, config ReportConfig) *ReportGenerator {
	return &ReportGenerator{
		logger: simLogger,
		config: config,
	}
}

// Generate builds the report from the final snapshot and mission state
func (g *ReportGenerator) Generate(final engine.Snapshot) *PatrolReport {
	summary := g.logger.GetSummary()
	events := g.logger.GetEvents()

	report := &PatrolReport{
		Metadata: ReportMetadata{
			SimulationID:    summary.SimulationID,
			GeneratedAt:     time.Now(),
			SimulationStart: summary.StartTime,
			WallDuration:    summary.Duration.Round(time.Millisecond).String(),
			SimTicks:        final.Tick,
			SimSeconds:      final.Elapsed,
		},
		Fleet:       g.analyzeFleet(final, summary),
		Missions:    final.Mission.History,
		Consensus:   g.analyzeConsensus(final),
		EventCounts: summary.EventCounts,
		EventLog:    g.buildEventLog(events),
		Config:      g.config.SimulationConfig,
	}

	return report
}

// Save writes the report as JSON and markdown into the output directory
func (g *ReportGenerator) Save(report *PatrolReport) error {
	if err := os.MkdirAll(g.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}

	base := fmt.Sprintf("patrol_%s_%s",
		report.Metadata.SimulationID[:8],
		report.Metadata.GeneratedAt.Format("20060102_150405"))

	jsonPath := filepath.Join(g.config.OutputDir, base+".json")
	if err := g.saveJSON(report, jsonPath); err != nil {
		return err
	}
	logger.Infof("Report saved: %s", jsonPath)

	mdPath := filepath.Join(g.config.OutputDir, base+".md")
	if err := g.saveMarkdown(report, mdPath); err != nil {
		return err
	}
	logger.Infof("Report saved: %s", mdPath)

	return nil
}

func (g *ReportGenerator) saveJSON(report *PatrolReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (g *ReportGenerator) saveMarkdown(report *PatrolReport, path string) error {
	var sb strings.Builder

	sb.WriteString("# Patrol Report\n\n")
	sb.WriteString(fmt.Sprintf("- **Simulation ID:** %s\n", report.Metadata.SimulationID))
	sb.WriteString(fmt.Sprintf("- **Generated:** %s\n", report.Metadata.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- **Wall Duration:** %s\n", report.Metadata.WallDuration))
	sb.WriteString(fmt.Sprintf("- **Simulated Time:** %.1fs (%d ticks)\n\n", report.Metadata.SimSeconds, report.Metadata.SimTicks))

	sb.WriteString("## Fleet\n\n")
	sb.WriteString(fmt.Sprintf("- Fleet size: %d\n", report.Fleet.FleetSize))
	sb.WriteString(fmt.Sprintf("- Online at end: %d\n", report.Fleet.OnlineCount))
	sb.WriteString(fmt.Sprintf("- Nested: %d, airborne: %d\n", report.Fleet.NestedCount, report.Fleet.AirborneCount))
	sb.WriteString(fmt.Sprintf("- Average battery: %.1f%%\n", report.Fleet.AvgBattery))
	sb.WriteString(fmt.Sprintf("- Fault events: %d\n\n", report.Fleet.Faults))

	sb.WriteString("## Missions\n\n")
	if len(report.Missions) == 0 {
		sb.WriteString("No missions completed.\n\n")
	} else {
		sb.WriteString("| Type | Ticks | Score | Spawned | Classified | Expired |\n")
		sb.WriteString("|------|-------|-------|---------|------------|---------|\n")
		for _, m := range report.Missions {
			sb.WriteString(fmt.Sprintf("| %s | %d-%d | %.0f | %d | %d | %d |\n",
				m.Type, m.StartTick, m.EndTick, m.Score, m.Spawned, m.Classified, m.Expired))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Consensus\n\n")
	sb.WriteString(fmt.Sprintf("- Final species: %s (%.0f%% confidence, %d voters)\n\n",
		report.Consensus.Species, report.Consensus.Confidence*100, report.Consensus.Voters))

	sb.WriteString("## Events\n\n")
	for eventType, count := range report.EventCounts {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", eventType, count))
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func (g *ReportGenerator) analyzeFleet(final engine.Snapshot, summary SimulationSummary) FleetAnalysis {
	return FleetAnalysis{
		FleetSize:     len(final.Robots),
		OnlineCount:   final.Stats.OnlineCount,
		NestedCount:   final.Stats.NestedCount,
		AirborneCount: final.Stats.AirborneCount,
		AvgBattery:    final.Stats.AvgBattery,
		Faults:        summary.EventCounts[EventTypeFault],
	}
}

func (g *ReportGenerator) analyzeConsensus(final engine.Snapshot) ConsensusAnalysis {
	accuracy := make([]float64, len(final.Stats.SpeciesAccuracy))
	copy(accuracy, final.Stats.SpeciesAccuracy[:])

	name := "none"
	if final.Stats.Consensus.Species >= 0 {
		name = final.Stats.Consensus.SpeciesName
	}

	return ConsensusAnalysis{
		Species:         name,
		Confidence:      final.Stats.Consensus.Confidence,
		Voters:          final.Stats.Consensus.Voters,
		SpeciesAccuracy: accuracy,
	}
}

func (g *ReportGenerator) buildEventLog(events []SimulationEvent) []EventLogEntry {
	// Cap the flattened log so reports stay readable
	const maxEntries = 500

	start := 0
	if len(events) > maxEntries {
		start = len(events) - maxEntries
	}

	entries := make([]EventLogEntry, 0, len(events)-start)
	for _, e := range events[start:] {
		entries = append(entries, EventLogEntry{
			Tick:     e.Tick,
			Type:     e.Type,
			Severity: e.Severity,
			RobotID:  e.RobotID,
			Message:  e.Message,
		})
	}
	return entries
}
