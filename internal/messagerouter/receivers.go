package messagerouter

import (
	"slices"
	"sync"
)

// multicastReceivers maps multicast ids to the participants receiving them
type multicastReceivers struct {
	mu        sync.RWMutex
	receivers map[string]map[string]struct{} // multicastID -> participantIDs
}

func newMulticastReceivers() *multicastReceivers {
	return &multicastReceivers{receivers: make(map[string]map[string]struct{})}
}

func (m *multicastReceivers) add(multicastID, participantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.receivers[multicastID]
	if !ok {
		set = make(map[string]struct{})
		m.receivers[multicastID] = set
	}
	set[participantID] = struct{}{}
}

func (m *multicastReceivers) remove(multicastID, participantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.receivers[multicastID]
	if !ok {
		return
	}
	delete(set, participantID)
	if len(set) == 0 {
		delete(m.receivers, multicastID)
	}
}

// get returns the receivers of a multicast in a stable order
func (m *multicastReceivers) get(multicastID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.receivers[multicastID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *multicastReceivers) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, set := range m.receivers {
		n += len(set)
	}
	return n
}
