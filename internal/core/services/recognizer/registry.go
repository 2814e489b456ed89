package recognizer

import "github.com/zizzania-go/zizzaniad/internal/core/domain"

// clientTable is the per-target mapping from client MAC to handshake state.
// Client entries are never removed during a session.
type clientTable map[domain.Address]*domain.Client

// targetRegistry maps an AP BSSID to its client table. Targets are never
// destroyed during a run; adding a target is idempotent.
type targetRegistry struct {
	targets map[domain.Address]clientTable
	autoAdd bool
}

func newTargetRegistry(autoAdd bool) *targetRegistry {
	return &targetRegistry{
		targets: make(map[domain.Address]clientTable),
		autoAdd: autoAdd,
	}
}

// addTarget ensures an empty client table exists for bssid. Idempotent.
func (r *targetRegistry) addTarget(bssid domain.Address) {
	if _, ok := r.targets[bssid]; !ok {
		r.targets[bssid] = make(clientTable)
	}
}

// lookup returns the client table for bssid. When autoAdd is enabled, an
// unknown BSSID is created on the spot and its fresh, empty table returned.
func (r *targetRegistry) lookup(bssid domain.Address) (clientTable, bool) {
	if table, ok := r.targets[bssid]; ok {
		return table, true
	}
	if !r.autoAdd {
		return nil, false
	}
	r.addTarget(bssid)
	return r.targets[bssid], true
}

// knownTargets reports how many targets are currently registered, used by
// tests and status reporting.
func (r *targetRegistry) knownTargets() int {
	return len(r.targets)
}

// TargetStatus is a point-in-time snapshot of one tracked target.
type TargetStatus struct {
	BSSID          domain.Address
	ClientsTracked int
}

// snapshot returns one TargetStatus per currently registered target.
func (r *targetRegistry) snapshot() []TargetStatus {
	statuses := make([]TargetStatus, 0, len(r.targets))
	for bssid, table := range r.targets {
		statuses = append(statuses, TargetStatus{BSSID: bssid, ClientsTracked: len(table)})
	}
	return statuses
}
