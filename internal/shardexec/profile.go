package shardexec

import "time"

// ProfileEvent is one operator's contribution to FT.PROFILE's per-shard
// tree. Depth encodes parent/child nesting instead of a pointer back to
// the parent, and a node's event is recorded after its children's.
// Micros is the node's total time, children included; the coordinator
// passes each shard's events through unchanged and no self-time is
// derived from them.
type ProfileEvent struct {
	Depth        int
	Descr        string
	Micros       int64
	NumProcessed int
}

// profiler accumulates ProfileEvents during one Execute call. Recording
// is a no-op when disabled, so Execute can call it unconditionally.
type profiler struct {
	enabled bool
	events  []ProfileEvent
}

func (p *profiler) record(depth int, descr string, start time.Time, numProcessed int) {
	if !p.enabled {
		return
	}
	p.events = append(p.events, ProfileEvent{
		Depth:        depth,
		Descr:        descr,
		Micros:       time.Since(start).Microseconds(),
		NumProcessed: numProcessed,
	})
}
