package engine

// Event types surfaced in snapshots.
const (
	EventPhase     = "phase"
	EventPower     = "power"
	EventNesting   = "nesting"
	EventFault     = "fault"
	EventMission   = "mission"
	EventFormation = "formation"
	EventCommand   = "command"
)

// Event is one incremental occurrence from the current tick.
type Event struct {
	Tick    uint64 `json:"tick"`
	Type    string `json:"type"`
	RobotID int    `json:"robotId"` // -1 for fleet-wide events
	Message string `json:"message"`
}

// RobotState is the plain-data copy of one robot carried in snapshots.
type RobotState struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Class     SizeClass `json:"class"`
	Online    bool      `json:"online"`
	Byzantine bool      `json:"byzantine"`

	Pos     Vec2    `json:"pos"`
	Vel     Vec2    `json:"vel"`
	Heading float64 `json:"heading"`
	Phase   Phase   `json:"phase"`

	Battery          float64   `json:"battery"`
	Supercap         float64   `json:"supercap,omitempty"`
	Mode             PowerMode `json:"mode"`
	HarvestSolar     float64   `json:"harvestSolar"`
	HarvestWind      float64   `json:"harvestWind"`
	HarvestRegen     float64   `json:"harvestRegen"`
	WptReceived      float64   `json:"wptReceived"`
	WptOutput        float64   `json:"wptOutput"`
	RemainingMinutes float64   `json:"remainingMinutes"`

	ParentID int   `json:"parentId"`
	ChildIDs []int `json:"childIds,omitempty"`

	Species    int     `json:"species"`
	Confidence float64 `json:"confidence"`
}

// RobotPath is an active cached path, exported for rendering.
type RobotPath struct {
	RobotID   int    `json:"robotId"`
	Waypoints []Vec2 `json:"waypoints"`
}

// Stats aggregates fleet-level numbers for one tick.
type Stats struct {
	OnlineCount     int                 `json:"onlineCount"`
	AvgBattery      float64             `json:"avgBattery"`
	NestedCount     int                 `json:"nestedCount"`
	AirborneCount   int                 `json:"airborneCount"`
	Consensus       Consensus           `json:"consensus"`
	SpeciesAccuracy [NumSpecies]float64 `json:"speciesAccuracy"`
}

// Snapshot is the immutable, tick-complete view handed to external
// readers. Fully owned plain data: no references into engine internals.
type Snapshot struct {
	Tick      uint64       `json:"tick"`
	Elapsed   float64      `json:"elapsed"` // seconds
	Formation string       `json:"formation"`
	Robots    []RobotState `json:"robots"`
	Wind      WindSample   `json:"wind"`
	Jamming   bool         `json:"jamming"`
	Links     []BleLink    `json:"links"`
	Mission   MissionInfo  `json:"mission"`
	Paths     []RobotPath  `json:"paths"`
	Flows     []EnergyFlow `json:"flows"`
	Events    []Event      `json:"events"`
	Stats     Stats        `json:"stats"`
}
