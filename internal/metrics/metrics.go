package metrics

import "sync/atomic"

// ID identifies one counter slot.
type ID int

const (
	LoginSuccess ID = iota
	LoginFailure
	LoginRateLimited
	TokenLoginAccepted
	TokenLoginRejected
	Logout
	UserCreated
	UserEdited
	UserDeleted
	PasswordChanged
	GrantAdded
	GrantReplaced
	GrantDeleted
	SettingsChanged

	IDCount
)

// Metrics holds the counter slots. A nil or disabled Metrics is valid; all
// operations become no-ops.
type Metrics struct {
	enabled  bool
	counters [IDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[ID]uint64
}

// New creates a Metrics instance. When enabled is false every operation is a
// no-op and Snapshot returns an empty map.
func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc atomically increments one counter.
func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id < 0 || id >= IDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of one counter.
func (m *Metrics) Get(id ID) uint64 {
	if m == nil || !m.enabled || id < 0 || id >= IDCount {
		return 0
	}
	return m.counters[id].Load()
}

// TakeSnapshot returns a deep copy of all counters.
func (m *Metrics) TakeSnapshot() Snapshot {
	snap := Snapshot{Counters: make(map[ID]uint64, IDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := ID(0); id < IDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
