package engine

// RecordedFrame pairs an immutable snapshot with the mission state at
// that tick, stored by value.
type RecordedFrame struct {
	Snapshot Snapshot    `json:"snapshot"`
	Mission  MissionInfo `json:"mission"`
}

// RecorderInfo describes the buffered window for replay scrubbing.
type RecorderInfo struct {
	Count      int    `json:"count"`
	Capacity   int    `json:"capacity"`
	OldestTick uint64 `json:"oldestTick"`
	NewestTick uint64 `json:"newestTick"`
}

// Recorder is a fixed-capacity ring buffer of recorded frames. Once
// full, the oldest frame is silently overwritten; overflow is the
// expected steady state, not an error.
type Recorder struct {
	frames []RecordedFrame
	head   int // next write slot
	count  int
}

// NewRecorder allocates a recorder holding at most capacity frames.
func NewRecorder(capacity int) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	return &Recorder{frames: make([]RecordedFrame, capacity)}
}

// Record stores one frame, evicting the oldest when full.
func (rec *Recorder) Record(frame RecordedFrame) {
	rec.frames[rec.head] = frame
	rec.head = (rec.head + 1) % len(rec.frames)
	if rec.count < len(rec.frames) {
		rec.count++
	}
}

// ordered returns the buffered frames oldest-first.
func (rec *Recorder) ordered() []RecordedFrame {
	out := make([]RecordedFrame, 0, rec.count)
	start := rec.head - rec.count
	if start < 0 {
		start += len(rec.frames)
	}
	for i := 0; i < rec.count; i++ {
		out = append(out, rec.frames[(start+i)%len(rec.frames)])
	}
	return out
}

// Range returns the buffered frames with from <= tick <= to, sorted by
// tick.
func (rec *Recorder) Range(from, to uint64) []RecordedFrame {
	var out []RecordedFrame
	for _, f := range rec.ordered() {
		if f.Snapshot.Tick >= from && f.Snapshot.Tick <= to {
			out = append(out, f)
		}
	}
	return out
}

// Recent returns the newest n frames, sorted by tick.
func (rec *Recorder) Recent(n int) []RecordedFrame {
	all := rec.ordered()
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// Info reports the buffered count and tick bounds.
func (rec *Recorder) Info() RecorderInfo {
	info := RecorderInfo{Count: rec.count, Capacity: len(rec.frames)}
	if rec.count > 0 {
		all := rec.ordered()
		info.OldestTick = all[0].Snapshot.Tick
		info.NewestTick = all[len(all)-1].Snapshot.Tick
	}
	return info
}
