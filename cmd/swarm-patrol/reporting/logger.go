package reporting

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/nestwing/swarmsim/pkg/logger"
)

// SimulationLogger handles simulation-specific logging
type SimulationLogger struct {
	simulationID string
	startTime    time.Time
	events       []SimulationEvent
	metrics      map[string]Metric
	mu           sync.RWMutex
}

// SimulationEvent represents a logged simulation event
type SimulationEvent struct {
	Timestamp time.Time
	Tick      uint64
	Type      string
	Severity  string
	RobotID   int // -1 for fleet-wide events
	Message   string
	Details   map[string]interface{}
}

// Metric represents a tracked metric
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	LastUpdated time.Time
	History     []MetricPoint
}

// MetricPoint represents a metric value at a point in time
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// EventType constants
const (
	EventTypePhase      = "phase"
	EventTypePower      = "power"
	EventTypeNesting    = "nesting"
	EventTypeFault      = "fault"
	EventTypeMission    = "mission"
	EventTypeFormation  = "formation"
	EventTypeCommand    = "command"
	EventTypeConsensus  = "consensus"
	EventTypeClassified = "classified"
	EventTypeSystem     = "system"
)

// Severity constants
const (
	SeverityDebug    = "debug"
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Color definitions
var (
	colorDebug    = color.New(color.FgHiBlack)
	colorInfo     = color.New(color.FgCyan)
	colorWarning  = color.New(color.FgYellow)
	colorError    = color.New(color.FgRed)
	colorCritical = color.New(color.FgRed, color.Bold)
	colorMission  = color.New(color.FgMagenta, color.Bold)
	colorSuccess  = color.New(color.FgGreen)
)

// NewSimulationLogger creates a new simulation logger
func NewSimulationLogger(simulationID string) *SimulationLogger {
	sl := &SimulationLogger{
		simulationID: simulationID,
		startTime:    time.Now(),
		events:       make([]SimulationEvent, 0),
		metrics:      make(map[string]Metric),
	}

	// Log simulation start
	sl.logColoredMessage(SeverityInfo, "Simulation Started",
		fmt.Sprintf("ID: %s | Time: %s", simulationID, sl.startTime.Format("15:04:05")))

	return sl
}

// LogEngineEvent records an event emitted by the engine tick
func (sl *SimulationLogger) LogEngineEvent(tick uint64, eventType string, robotID int, message string) {
	severity := SeverityInfo
	if eventType == EventTypeFault {
		severity = SeverityWarning
	}

	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Tick:      tick,
		Type:      eventType,
		Severity:  severity,
		RobotID:   robotID,
		Message:   message,
	})
}

// LogMissionEvent logs mission lifecycle milestones with console output
func (sl *SimulationLogger) LogMissionEvent(tick uint64, message string, details map[string]interface{}) {
	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Tick:      tick,
		Type:      EventTypeMission,
		Severity:  SeverityInfo,
		RobotID:   -1,
		Message:   message,
		Details:   details,
	})

	sl.logColoredMessage(SeverityInfo, "Mission",
		fmt.Sprintf("t=%d | %s", tick, colorMission.Sprint(message)))
}

// LogClassification logs a quorum classification result
func (sl *SimulationLogger) LogClassification(tick uint64, species string, confidence float64, voters int) {
	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Tick:      tick,
		Type:      EventTypeClassified,
		Severity:  SeverityInfo,
		RobotID:   -1,
		Message:   fmt.Sprintf("Consensus classification: %s (%.0f%% confidence, %d voters)", species, confidence*100, voters),
		Details: map[string]interface{}{
			"species":    species,
			"confidence": confidence,
			"voters":     voters,
		},
	})

	sl.logColoredMessage(SeverityInfo, "Consensus",
		fmt.Sprintf("t=%d | %s (%.0f%% conf, %d voters)", tick,
			colorSuccess.Sprint(species), confidence*100, voters))
}

// LogFault logs a node failure or recovery
func (sl *SimulationLogger) LogFault(tick uint64, robotID int, message string) {
	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Tick:      tick,
		Type:      EventTypeFault,
		Severity:  SeverityWarning,
		RobotID:   robotID,
		Message:   message,
	})

	sl.logColoredMessage(SeverityWarning, "Fault",
		fmt.Sprintf("t=%d | robot %d | %s", tick, robotID, message))
}

// LogFleetStatus logs a periodic fleet status line
func (sl *SimulationLogger) LogFleetStatus(tick uint64, online, nested, airborne int, avgBattery float64) {
	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Tick:      tick,
		Type:      EventTypeSystem,
		Severity:  SeverityInfo,
		RobotID:   -1,
		Message:   fmt.Sprintf("Fleet: %d online, %d nested, %d airborne, avg battery %.1f%%", online, nested, airborne, avgBattery),
		Details: map[string]interface{}{
			"online":      online,
			"nested":      nested,
			"airborne":    airborne,
			"avg_battery": avgBattery,
		},
	})
}

// LogError logs an error event
func (sl *SimulationLogger) LogError(message string, err error, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["error"] = err.Error()

	sl.logEvent(SimulationEvent{
		Timestamp: time.Now(),
		Type:      EventTypeSystem,
		Severity:  SeverityError,
		RobotID:   -1,
		Message:   message,
		Details:   details,
	})

	logger.Errorf("%s: %v", message, err)
}

// UpdateMetric updates a metric value
func (sl *SimulationLogger) UpdateMetric(name string, value float64, unit string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	metric, exists := sl.metrics[name]
	if !exists {
		metric = Metric{
			Name:    name,
			Unit:    unit,
			History: make([]MetricPoint, 0),
		}
	}

	metric.Value = value
	metric.LastUpdated = time.Now()
	metric.History = append(metric.History, MetricPoint{
		Timestamp: time.Now(),
		Value:     value,
	})

	// Keep only last 1000 points
	if len(metric.History) > 1000 {
		metric.History = metric.History[len(metric.History)-1000:]
	}

	sl.metrics[name] = metric
}

// GetEvents returns all logged events
func (sl *SimulationLogger) GetEvents() []SimulationEvent {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	events := make([]SimulationEvent, len(sl.events))
	copy(events, sl.events)
	return events
}

// GetMetrics returns current metrics
func (sl *SimulationLogger) GetMetrics() map[string]Metric {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	metrics := make(map[string]Metric)
	for k, v := range sl.metrics {
		metrics[k] = v
	}
	return metrics
}

// GetSummary returns a simulation summary
func (sl *SimulationLogger) GetSummary() SimulationSummary {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	duration := time.Since(sl.startTime)

	// Count events by type
	eventCounts := make(map[string]int)
	for _, event := range sl.events {
		eventCounts[event.Type]++
	}

	return SimulationSummary{
		SimulationID: sl.simulationID,
		StartTime:    sl.startTime,
		Duration:     duration,
		TotalEvents:  len(sl.events),
		EventCounts:  eventCounts,
		Metrics:      sl.metrics,
	}
}

// SimulationSummary represents a summary of the simulation
type SimulationSummary struct {
	SimulationID string
	StartTime    time.Time
	Duration     time.Duration
	TotalEvents  int
	EventCounts  map[string]int
	Metrics      map[string]Metric
}

// logEvent adds an event to the log
func (sl *SimulationLogger) logEvent(event SimulationEvent) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.events = append(sl.events, event)

	// Keep only last 10000 events to prevent memory issues
	if len(sl.events) > 10000 {
		sl.events = sl.events[len(sl.events)-10000:]
	}
}

// logColoredMessage logs a message with color based on severity
func (sl *SimulationLogger) logColoredMessage(severity, eventType, message string) {
	timestamp := time.Now().Format("15:04:05.000")

	var severityColor *color.Color
	switch severity {
	case SeverityDebug:
		severityColor = colorDebug
	case SeverityInfo:
		severityColor = colorInfo
	case SeverityWarning:
		severityColor = colorWarning
	case SeverityError:
		severityColor = colorError
	case SeverityCritical:
		severityColor = colorCritical
	default:
		severityColor = colorInfo
	}

	fmt.Printf("[%s] %s %s | %s\n",
		timestamp,
		severityColor.Sprint(fmt.Sprintf("%-8s", severity)),
		eventType,
		message)
}

// PrintSummary prints a formatted summary
func (sl *SimulationLogger) PrintSummary() {
	summary := sl.GetSummary()

	colorSuccess.Println("\n============================================================")
	colorSuccess.Printf("            SIMULATION SUMMARY - %s\n", summary.SimulationID[:8])
	colorSuccess.Println("============================================================")

	fmt.Printf("\nDuration: %v | Total Events: %d\n", summary.Duration.Round(time.Millisecond), summary.TotalEvents)

	fmt.Println("\nEvent Distribution:")
	for eventType, count := range summary.EventCounts {
		fmt.Printf("   %-20s: %d\n", eventType, count)
	}

	if len(summary.Metrics) > 0 {
		fmt.Println("\nPerformance Metrics:")
		for name, metric := range summary.Metrics {
			fmt.Printf("   %-20s: %.2f %s\n", name, metric.Value, metric.Unit)
		}
	}

	colorSuccess.Println("\n============================================================")
}
