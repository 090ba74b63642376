package dispatch

import "sync"

// keyedMutex serializes mutating operations per entity id. Mutex entries are
// never evicted; the population is bounded by trips plus drivers ever touched
// by this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// lockTrip serializes on a trip id. Returns the unlock func.
func (k *keyedMutex) lockTrip(tripID string) func() {
	m := k.get("trip:" + tripID)
	m.Lock()
	return m.Unlock
}

// lockDriver serializes on a driver id. Returns the unlock func.
func (k *keyedMutex) lockDriver(driverID string) func() {
	m := k.get("driver:" + driverID)
	m.Lock()
	return m.Unlock
}

// lockTripAndDriver acquires both locks, trip first. Every path that needs
// both must use this helper so lock order stays fixed.
func (k *keyedMutex) lockTripAndDriver(tripID, driverID string) func() {
	unlockTrip := k.lockTrip(tripID)
	unlockDriver := k.lockDriver(driverID)
	return func() {
		unlockDriver()
		unlockTrip()
	}
}
