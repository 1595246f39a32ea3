package engine

import "testing"

func TestWindDeterminism(t *testing.T) {
	a := NewWindField(5)
	b := NewWindField(5)

	for tick := uint64(1); tick <= 50; tick++ {
		a.Update(tick)
		b.Update(tick)
	}

	p := Vec2{30, 40}
	if a.At(p) != b.At(p) {
		t.Errorf("Expected identical samples for identically seeded fields")
	}
}

func TestGustRaisesSpeed(t *testing.T) {
	base := NewWindField(5)
	gusty := NewWindField(5)

	for tick := uint64(1); tick <= 10; tick++ {
		base.Update(tick)
		gusty.Update(tick)
	}
	gusty.TriggerGust()

	// Advance into the sustain window.
	for tick := uint64(11); tick <= 10+gustRampTicks+10; tick++ {
		base.Update(tick)
		gusty.Update(tick)
	}

	p := Vec2{30, 40}
	baseSample := base.At(p)
	gustSample := gusty.At(p)

	if gustSample.Speed <= baseSample.Speed {
		t.Errorf("Expected gust to raise speed: base %.2f, gust %.2f", baseSample.Speed, gustSample.Speed)
	}
	if gustSample.Speed < baseSample.Speed*2 {
		t.Errorf("Expected near-peak gust multiplier, got %.2fx", gustSample.Speed/baseSample.Speed)
	}
}

func TestGustExpires(t *testing.T) {
	w := NewWindField(5)
	w.Update(1)
	w.TriggerGust()

	if !w.GustActive() {
		t.Fatalf("Expected gust to be active after trigger")
	}

	for tick := uint64(2); tick <= 2+2*gustRampTicks+gustSustainTicks+1; tick++ {
		w.Update(tick)
	}
	if w.GustActive() {
		t.Errorf("Expected gust to clear after its window")
	}
}

func TestTriggerGustWhileActive(t *testing.T) {
	w := NewWindField(5)
	w.Update(1)
	w.TriggerGust()
	start := w.gustStart

	for tick := uint64(2); tick <= 30; tick++ {
		w.Update(tick)
	}
	w.TriggerGust()

	if w.gustStart != start {
		t.Errorf("Expected second trigger during an active gust to be a no-op")
	}
}

func TestWindStrengthBuckets(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{0.5, WindCalm},
		{1.99, WindCalm},
		{2.0, WindModerate},
		{5.9, WindModerate},
		{6.0, WindStrong},
		{15, WindStrong},
	}

	for _, tt := range tests {
		if got := windStrength(tt.speed); got != tt.want {
			t.Errorf("windStrength(%.2f) = %s, want %s", tt.speed, got, tt.want)
		}
	}
}

func TestDirectionNormalized(t *testing.T) {
	w := NewWindField(9)
	for tick := uint64(1); tick <= 200; tick++ {
		w.Update(tick)
		s := w.At(Vec2{float64(tick), 50})
		if s.Direction < 0 || s.Direction >= 360 {
			t.Fatalf("Direction %.2f out of [0, 360) at tick %d", s.Direction, tick)
		}
	}
}
