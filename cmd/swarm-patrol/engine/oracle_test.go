package engine

import "testing"

func TestZoneOf(t *testing.T) {
	const w, h = 240.0, 160.0
	tests := []struct {
		name string
		p    Vec2
		want int
	}{
		{"top-left", Vec2{10, 10}, 0},
		{"top-middle", Vec2{120, 10}, 1},
		{"top-right", Vec2{230, 10}, 2},
		{"bottom-left", Vec2{10, 150}, 3},
		{"bottom-middle", Vec2{120, 150}, 4},
		{"bottom-right", Vec2{230, 150}, 5},
		{"clamped-beyond-right", Vec2{500, 10}, 2},
		{"clamped-negative", Vec2{-5, -5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZoneOf(tt.p, w, h); got != tt.want {
				t.Errorf("ZoneOf(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterminism(t *testing.T) {
	a := NewHDCOracle(240, 160, 1)
	b := NewHDCOracle(240, 160, 1)

	outA, err := a.Classify(3, 52.17, 91.44, 120, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	outB, err := b.Classify(3, 52.17, 91.44, 120, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if outA.PredictedClass != outB.PredictedClass {
		t.Errorf("Expected identical predicted class, got %d and %d", outA.PredictedClass, outB.PredictedClass)
	}
	for d := range outA.HDVector {
		if outA.HDVector[d] != outB.HDVector[d] {
			t.Fatalf("HD vectors diverge at dimension %d", d)
		}
	}
	for c := range outA.ClassSimilarities {
		if outA.ClassSimilarities[c] != outB.ClassSimilarities[c] {
			t.Fatalf("Similarities diverge for class %d", c)
		}
	}
}

func TestClassifyMatchesZone(t *testing.T) {
	o := NewHDCOracle(240, 160, 1)

	// One position well inside each zone. With an 18% flip rate the
	// noisy vector stays far closer to its own prototype than to any
	// other random prototype.
	positions := []Vec2{
		{40, 40}, {120, 40}, {200, 40},
		{40, 120}, {120, 120}, {200, 120},
	}
	for zone, p := range positions {
		out, err := o.Classify(1, p.X, p.Y, 50, false)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if out.PredictedClass != zone {
			t.Errorf("Position %v: predicted class %d, want zone %d", p, out.PredictedClass, zone)
		}
		if out.Confidence <= 0.5 {
			t.Errorf("Position %v: confidence %.3f, want > 0.5", p, out.Confidence)
		}
	}
}

func TestClassifyByzantineSkew(t *testing.T) {
	o := NewHDCOracle(240, 160, 1)
	p := Vec2{40, 40} // zone 0

	honest, err := o.Classify(1, p.X, p.Y, 50, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	faulty, err := o.Classify(1, p.X, p.Y, 50, true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if honest.PredictedClass != 0 {
		t.Fatalf("Honest predicted class %d, want 0", honest.PredictedClass)
	}
	if faulty.PredictedClass != 3 {
		t.Errorf("Byzantine predicted class %d, want 3", faulty.PredictedClass)
	}
}

func TestClassifierOutputShape(t *testing.T) {
	o := NewHDCOracle(240, 160, 1)
	out, err := o.Classify(0, 10, 10, 1, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if len(out.HDVector) != HDDimension {
		t.Errorf("HD vector length %d, want %d", len(out.HDVector), HDDimension)
	}
	if len(out.HiddenActivations) != HiddenDim {
		t.Errorf("Hidden activations length %d, want %d", len(out.HiddenActivations), HiddenDim)
	}
	if len(out.ClassSimilarities) != NumSpecies {
		t.Errorf("Similarities length %d, want %d", len(out.ClassSimilarities), NumSpecies)
	}
	for d, v := range out.HDVector {
		if v != 1 && v != -1 {
			t.Fatalf("HD vector dimension %d is %d, want bipolar", d, v)
		}
	}
}
