package service

import "sync"

// subjectLocks serializes apply and remove per subject. The registry owns
// its arena map; locks are never package globals.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the subject's mutex, locked. Callers must defer Unlock;
// the unlock path has to be unconditional or every later operation on the
// subject deadlocks.
func (l *subjectLocks) acquire(subjectID string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[subjectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[subjectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}

// inflightSet is the coarse duplicate-request guard. It rejects a second
// identical request before it even queues on the subject lock, so a double
// click resolves fast instead of waiting its turn only to no-op.
type inflightSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{keys: make(map[string]struct{})}
}

// begin marks a key in flight. False means an identical request is already
// running and the caller must bail without side effects.
func (s *inflightSet) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.keys[key]; busy {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *inflightSet) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}
