package engine

import "testing"

func tickFrame(tick uint64) RecordedFrame {
	return RecordedFrame{Snapshot: Snapshot{Tick: tick}}
}

func TestRecorderEvictsOldest(t *testing.T) {
	rec := NewRecorder(3)
	for tick := uint64(1); tick <= 5; tick++ {
		rec.Record(tickFrame(tick))
	}

	info := rec.Info()
	if info.Count != 3 {
		t.Fatalf("Count %d, want 3", info.Count)
	}
	if info.OldestTick != 3 || info.NewestTick != 5 {
		t.Errorf("Window [%d, %d], want [3, 5]", info.OldestTick, info.NewestTick)
	}

	frames := rec.Recent(3)
	for i, f := range frames {
		if want := uint64(3 + i); f.Snapshot.Tick != want {
			t.Errorf("Frame %d has tick %d, want %d", i, f.Snapshot.Tick, want)
		}
	}
}

func TestRecorderRange(t *testing.T) {
	rec := NewRecorder(10)
	for tick := uint64(1); tick <= 8; tick++ {
		rec.Record(tickFrame(tick))
	}

	frames := rec.Range(4, 6)
	if len(frames) != 3 {
		t.Fatalf("Range(4, 6) returned %d frames, want 3", len(frames))
	}
	if frames[0].Snapshot.Tick != 4 || frames[2].Snapshot.Tick != 6 {
		t.Errorf("Range bounds [%d, %d], want [4, 6]",
			frames[0].Snapshot.Tick, frames[2].Snapshot.Tick)
	}

	if out := rec.Range(100, 200); len(out) != 0 {
		t.Errorf("Empty range returned %d frames", len(out))
	}
}

func TestRecorderRecent(t *testing.T) {
	rec := NewRecorder(10)
	for tick := uint64(1); tick <= 5; tick++ {
		rec.Record(tickFrame(tick))
	}

	frames := rec.Recent(2)
	if len(frames) != 2 {
		t.Fatalf("Recent(2) returned %d frames", len(frames))
	}
	if frames[0].Snapshot.Tick != 4 || frames[1].Snapshot.Tick != 5 {
		t.Errorf("Recent ticks [%d, %d], want [4, 5]",
			frames[0].Snapshot.Tick, frames[1].Snapshot.Tick)
	}

	if all := rec.Recent(50); len(all) != 5 {
		t.Errorf("Recent beyond count returned %d frames, want 5", len(all))
	}
}

func TestRecorderEmptyInfo(t *testing.T) {
	info := NewRecorder(5).Info()
	if info.Count != 0 || info.Capacity != 5 {
		t.Errorf("Empty recorder info %+v", info)
	}
	if info.OldestTick != 0 || info.NewestTick != 0 {
		t.Errorf("Empty recorder should report zero tick bounds, got %+v", info)
	}
}

func TestRecorderMinimumCapacity(t *testing.T) {
	rec := NewRecorder(0)
	rec.Record(tickFrame(1))
	rec.Record(tickFrame(2))

	info := rec.Info()
	if info.Capacity != 1 {
		t.Errorf("Capacity %d, want 1", info.Capacity)
	}
	if info.Count != 1 || info.NewestTick != 2 {
		t.Errorf("Expected only the newest frame, got %+v", info)
	}
}
