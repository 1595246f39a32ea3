package engine

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// MissionType selects spawn policy, detection radius and quorum.
type MissionType string

const (
	MissionSurvey         MissionType = "survey"
	MissionIntercept      MissionType = "intercept"
	MissionSearchClassify MissionType = "search_classify"
	MissionPerimeter      MissionType = "perimeter"
)

// TargetStatus is the per-target state machine. Status only moves
// forward: active -> detected -> classified; expired is terminal and
// reachable from active/detected only.
type TargetStatus string

const (
	TargetActive     TargetStatus = "active"
	TargetDetected   TargetStatus = "detected"
	TargetClassified TargetStatus = "classified"
	TargetExpired    TargetStatus = "expired"
)

// missionSpec tunes one mission type.
type missionSpec struct {
	DetectRadius  float64
	Quorum        int
	ScoreMult     float64
	DriftSpeed    float64 // m/s; intercept targets run
	EdgeSpawns    bool    // perimeter targets spawn on world edges
	ZoneBonus     float64 // survey: first classification per zone
	SpawnInterval uint64  // ticks between spawns
	TargetTTL     uint64  // ticks before expiry
	MaxActive     int
}

var missionSpecs = map[MissionType]missionSpec{
	MissionSurvey: {
		DetectRadius: 14, Quorum: 1, ScoreMult: 1, ZoneBonus: 25,
		SpawnInterval: 80, TargetTTL: 900, MaxActive: 6,
	},
	MissionIntercept: {
		DetectRadius: 6, Quorum: 1, ScoreMult: 2, DriftSpeed: 4.5,
		SpawnInterval: 120, TargetTTL: 600, MaxActive: 3,
	},
	MissionSearchClassify: {
		DetectRadius: 10, Quorum: 2, ScoreMult: 1,
		SpawnInterval: 100, TargetTTL: 900, MaxActive: 4,
	},
	MissionPerimeter: {
		DetectRadius: 10, Quorum: 3, ScoreMult: 1, EdgeSpawns: true,
		SpawnInterval: 100, TargetTTL: 1200, MaxActive: 4,
	},
}

const targetScoreBase = 100.0

// MissionTarget is one classification objective, owned by the manager.
// DetectedBy/ClassifiedBy are append-only id sets.
type MissionTarget struct {
	ID           uuid.UUID    `json:"id"`
	Pos          Vec2         `json:"pos"`
	Drift        Vec2         `json:"drift"`
	Status       TargetStatus `json:"status"`
	Species      int          `json:"species"`
	SpawnTick    uint64       `json:"spawnTick"`
	Deadline     uint64       `json:"deadline"`
	DetectedBy   []int        `json:"detectedBy"`
	ClassifiedBy []int        `json:"classifiedBy"`
}

func (t *MissionTarget) addDetector(id int) {
	for _, d := range t.DetectedBy {
		if d == id {
			return
		}
	}
	t.DetectedBy = append(t.DetectedBy, id)
}

func (t *MissionTarget) addClassifier(id int) {
	for _, c := range t.ClassifiedBy {
		if c == id {
			return
		}
	}
	t.ClassifiedBy = append(t.ClassifiedBy, id)
}

// MissionResult seals one finished mission into the append-only history.
type MissionResult struct {
	ID         uuid.UUID   `json:"id"`
	Type       MissionType `json:"type"`
	StartTick  uint64      `json:"startTick"`
	EndTick    uint64      `json:"endTick"`
	Score      float64     `json:"score"`
	Spawned    int         `json:"spawned"`
	Classified int         `json:"classified"`
	Expired    int         `json:"expired"`
}

// MissionInfo is the plain-data mission view carried in snapshots.
type MissionInfo struct {
	Active    bool            `json:"active"`
	Type      MissionType     `json:"type,omitempty"`
	StartTick uint64          `json:"startTick,omitempty"`
	Score     float64         `json:"score"`
	Targets   []MissionTarget `json:"targets,omitempty"`
	History   []MissionResult `json:"history,omitempty"`
}

// MissionManager owns the target lifecycle and scoring for the active
// mission, and the append-only result history.
type MissionManager struct {
	worldWidth  float64
	worldHeight float64
	rng         *rand.Rand

	active    bool
	mtype     MissionType
	missionID uuid.UUID
	startTick uint64
	targets   []*MissionTarget
	score     float64
	spawned   int
	lastSpawn uint64

	scoredZones map[int]bool // survey zone bonus bookkeeping
	history     []MissionResult
}

// NewMissionManager creates an idle manager.
func NewMissionManager(worldWidth, worldHeight float64, rng *rand.Rand) *MissionManager {
	return &MissionManager{
		worldWidth:  worldWidth,
		worldHeight: worldHeight,
		rng:         rng,
		scoredZones: make(map[int]bool),
	}
}

// Active reports whether a mission is running.
func (m *MissionManager) Active() bool { return m.active }

// newID draws a UUID from the seeded rng so identically seeded runs
// produce identical mission and target identities.
func (m *MissionManager) newID() uuid.UUID {
	id, _ := uuid.NewRandomFromReader(m.rng)
	return id
}

// Start resets state and begins a mission of the given type. Starting
// over a running mission seals the old one first.
func (m *MissionManager) Start(mtype MissionType, tick uint64) {
	if m.active {
		m.Stop(tick)
	}
	m.active = true
	m.mtype = mtype
	m.missionID = m.newID()
	m.startTick = tick
	m.targets = nil
	m.score = 0
	m.spawned = 0
	m.lastSpawn = 0
	m.scoredZones = make(map[int]bool)
}

// Stop seals the running mission into history. No-op while idle.
func (m *MissionManager) Stop(tick uint64) {
	if !m.active {
		return
	}
	result := MissionResult{
		ID:        m.missionID,
		Type:      m.mtype,
		StartTick: m.startTick,
		EndTick:   tick,
		Score:     m.score,
		Spawned:   m.spawned,
	}
	for _, t := range m.targets {
		switch t.Status {
		case TargetClassified:
			result.Classified++
		case TargetExpired:
			result.Expired++
		}
	}
	m.history = append(m.history, result)
	m.active = false
	m.targets = nil
}

// Update advances the mission one tick: spawn on the bounded cadence,
// drift intercept targets, progress target status from robot positions,
// expire overdue targets and recompute the score.
func (m *MissionManager) Update(tick uint64, robots []*Robot) {
	if !m.active {
		return
	}
	spec := missionSpecs[m.mtype]

	if m.activeCount() < spec.MaxActive && (m.lastSpawn == 0 || tick-m.lastSpawn >= spec.SpawnInterval) {
		m.spawnTarget(tick, spec)
	}

	for _, t := range m.targets {
		if t.Status == TargetClassified || t.Status == TargetExpired {
			continue
		}

		if spec.DriftSpeed > 0 {
			t.Pos = t.Pos.Add(t.Drift)
			t.Pos = clampToWorld(t.Pos, m.worldWidth, m.worldHeight)
		}

		if tick > t.Deadline {
			t.Status = TargetExpired
			continue
		}

		for _, r := range robots {
			if !r.Online || r.IsNested() || !r.IsAirborne() {
				continue
			}
			if r.Pos.Dist(t.Pos) > spec.DetectRadius {
				continue
			}
			t.addDetector(r.ID)
			if t.Status == TargetActive {
				t.Status = TargetDetected
			}
			if r.Species == t.Species {
				t.addClassifier(r.ID)
			}
		}

		if t.Status == TargetDetected && len(t.ClassifiedBy) >= spec.Quorum {
			t.Status = TargetClassified
			m.score += m.targetScore(t, spec)
		}
	}
}

// targetScore applies the type multiplier and the survey zone bonus.
func (m *MissionManager) targetScore(t *MissionTarget, spec missionSpec) float64 {
	score := targetScoreBase * spec.ScoreMult
	if spec.ZoneBonus > 0 {
		zone := ZoneOf(t.Pos, m.worldWidth, m.worldHeight)
		if !m.scoredZones[zone] {
			m.scoredZones[zone] = true
			score += spec.ZoneBonus
		}
	}
	return score
}

func (m *MissionManager) activeCount() int {
	n := 0
	for _, t := range m.targets {
		if t.Status == TargetActive || t.Status == TargetDetected {
			n++
		}
	}
	return n
}

func (m *MissionManager) spawnTarget(tick uint64, spec missionSpec) {
	var pos Vec2
	if spec.EdgeSpawns {
		// Perimeter targets appear along a world edge.
		switch m.rng.Intn(4) {
		case 0:
			pos = Vec2{m.rng.Float64() * m.worldWidth, 2}
		case 1:
			pos = Vec2{m.rng.Float64() * m.worldWidth, m.worldHeight - 2}
		case 2:
			pos = Vec2{2, m.rng.Float64() * m.worldHeight}
		default:
			pos = Vec2{m.worldWidth - 2, m.rng.Float64() * m.worldHeight}
		}
	} else {
		pos = Vec2{m.rng.Float64() * m.worldWidth, m.rng.Float64() * m.worldHeight}
	}

	t := &MissionTarget{
		ID:        m.newID(),
		Pos:       pos,
		Status:    TargetActive,
		Species:   ZoneOf(pos, m.worldWidth, m.worldHeight),
		SpawnTick: tick,
		Deadline:  tick + spec.TargetTTL,
	}
	if spec.DriftSpeed > 0 {
		angle := m.rng.Float64() * 2 * math.Pi
		// Per-tick displacement at the 10 Hz reference rate.
		t.Drift = Vec2{math.Cos(angle), math.Sin(angle)}.Scale(spec.DriftSpeed * 0.1)
	}
	m.targets = append(m.targets, t)
	m.spawned++
	m.lastSpawn = tick
}

// Score returns the running mission score.
func (m *MissionManager) Score() float64 { return m.score }

// History returns the sealed mission results, oldest first.
func (m *MissionManager) History() []MissionResult {
	out := make([]MissionResult, len(m.history))
	copy(out, m.history)
	return out
}

// Info builds the plain-data mission view for a snapshot.
func (m *MissionManager) Info() MissionInfo {
	info := MissionInfo{
		Active:  m.active,
		Score:   m.score,
		History: m.History(),
	}
	if m.active {
		info.Type = m.mtype
		info.StartTick = m.startTick
		for _, t := range m.targets {
			tc := *t
			tc.DetectedBy = append([]int(nil), t.DetectedBy...)
			tc.ClassifiedBy = append([]int(nil), t.ClassifiedBy...)
			info.Targets = append(info.Targets, tc)
		}
	}
	return info
}

func clampToWorld(p Vec2, w, h float64) Vec2 {
	if p.X < 0 {
		p.X = 0
	}
	if p.X > w {
		p.X = w
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > h {
		p.Y = h
	}
	return p
}
