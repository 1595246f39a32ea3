package engine

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Wind strength buckets, derived from speed in m/s.
const (
	WindCalm     = "calm"
	WindModerate = "moderate"
	WindStrong   = "strong"
)

const (
	windModerateSpeed = 2.0
	windStrongSpeed   = 6.0

	windDriftFreq   = 0.004 // noise time frequency for the base flow
	windSpatialFreq = 0.02  // noise space frequency for local variation
	windBaseSpeed   = 3.5   // m/s scale of the undisturbed flow

	// Gust lifecycle windows, in ticks (10 Hz reference).
	gustRampTicks    = 20
	gustSustainTicks = 60
	gustPeakFactor   = 2.8
)

// WindSample is the flow at one position.
type WindSample struct {
	Vector    Vec2    `json:"vector"`
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"` // degrees
	Strength  string  `json:"strength"`
}

// WindField models a continuous stochastic drift plus a bounded gust
// lifecycle. One per simulator; reads are purely functional.
type WindField struct {
	noise opensimplex.Noise
	tick  uint64

	baseDir   float64 // radians
	baseSpeed float64

	gustActive bool
	gustStart  uint64
}

// NewWindField seeds the flow noise.
func NewWindField(seed int64) *WindField {
	return &WindField{noise: opensimplex.NewNormalized(seed + 7)}
}

// Update advances the drift for the given tick. Direction and speed
// wander slowly via noise; an active gust runs its ramp-up, sustain and
// ramp-down window then clears itself.
func (w *WindField) Update(tick uint64) {
	w.tick = tick
	t := float64(tick) * windDriftFreq
	w.baseDir = w.noise.Eval2(t, 0) * 2 * math.Pi
	w.baseSpeed = windBaseSpeed * (0.4 + 0.8*w.noise.Eval2(0, t))

	if w.gustActive && tick-w.gustStart > 2*gustRampTicks+gustSustainTicks {
		w.gustActive = false
	}
}

// TriggerGust starts a gust window at the current tick. A no-op while
// one is already running.
func (w *WindField) TriggerGust() {
	if w.gustActive {
		return
	}
	w.gustActive = true
	w.gustStart = w.tick
}

// GustActive reports whether a gust window is running.
func (w *WindField) GustActive() bool {
	return w.gustActive
}

// gustEnvelope returns the gust speed multiplier for the current tick:
// 1.0 when idle, ramping to gustPeakFactor and back over the window.
func (w *WindField) gustEnvelope() float64 {
	if !w.gustActive {
		return 1.0
	}
	elapsed := float64(w.tick - w.gustStart)
	var frac float64
	switch {
	case elapsed < gustRampTicks:
		frac = elapsed / gustRampTicks
	case elapsed < gustRampTicks+gustSustainTicks:
		frac = 1.0
	default:
		frac = 1.0 - (elapsed-gustRampTicks-gustSustainTicks)/gustRampTicks
	}
	if frac < 0 {
		frac = 0
	}
	return 1.0 + (gustPeakFactor-1.0)*frac
}

// At samples the flow at a position. Local variation perturbs the base
// speed and direction so nearby robots see coherent but distinct wind.
func (w *WindField) At(p Vec2) WindSample {
	t := float64(w.tick) * windDriftFreq
	local := w.noise.Eval3(p.X*windSpatialFreq, p.Y*windSpatialFreq, t)

	speed := w.baseSpeed * (0.7 + 0.6*local) * w.gustEnvelope()
	dir := w.baseDir + (local-0.5)*0.8

	sample := WindSample{
		Vector: Vec2{math.Cos(dir) * speed, math.Sin(dir) * speed},
		Speed:  speed,
	}
	sample.Direction = math.Mod(dir*180/math.Pi+360, 360)
	sample.Strength = windStrength(speed)
	return sample
}

func windStrength(speed float64) string {
	switch {
	case speed >= windStrongSpeed:
		return WindStrong
	case speed >= windModerateSpeed:
		return WindModerate
	default:
		return WindCalm
	}
}
