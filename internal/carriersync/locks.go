package carriersync

import (
	"sync"

	id "agentbook/pkg/domain"
)

// carrierLocks serializes sync runs per carrier. Concurrent runs for the
// same carrier queue behind one mutex; runs for different carriers proceed
// independently. Locks are never removed: the carrier set is small and
// stable for the life of the process.
type carrierLocks struct {
	mu    sync.Mutex
	locks map[id.CarrierID]*sync.Mutex
}

func newCarrierLocks() *carrierLocks {
	return &carrierLocks{locks: make(map[id.CarrierID]*sync.Mutex)}
}

// Lock acquires the mutex for carrierID, creating it on first use, and
// returns the unlock function.
func (l *carrierLocks) Lock(carrierID id.CarrierID) func() {
	l.mu.Lock()
	m, ok := l.locks[carrierID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[carrierID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
