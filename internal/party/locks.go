package party

import "sync"

// partyLocks hands out one mutex per party so the compound sequences
// (capacity check + create, colour scan + assign, duplicate check + insert)
// apply atomically per party. Operations on different parties never contend.
type partyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPartyLocks() *partyLocks {
	return &partyLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *partyLocks) lockFor(partyID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locks[partyID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[partyID] = l
	}
	return l
}
