package repair

import "sync"

// MemStore keeps records in a map guarded by a RWMutex. Snapshot order is
// insertion order.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

func NewStore() *MemStore {
	return &MemStore{
		records: make(map[string]Record),
		order:   make([]string, 0),
	}
}

func (s *MemStore) Add(r Record) bool {
	if r.Validate() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.Plate]; ok {
		return false
	}
	s.records[r.Plate] = r
	s.order = append(s.order, r.Plate)
	return true
}

func (s *MemStore) Remove(plate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[plate]; !ok {
		return false
	}
	delete(s.records, plate)
	for i, p := range s.order {
		if p == plate {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *MemStore) Update(plate string, c Changes) bool {
	_, ok := s.Modify(plate, c)
	return ok
}

func (s *MemStore) Modify(plate string, c Changes) (Record, bool) {
	if c.Validate() != nil {
		return Record{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.records[plate]
	if !ok {
		return Record{}, false
	}
	next := c.Apply(old)
	s.records[plate] = next
	return next, true
}

func (s *MemStore) Replace(plate string, r Record) bool {
	return s.Update(plate, ReplaceWith(r))
}

func (s *MemStore) Get(plate string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[plate]
	return r, ok
}

// Snapshot copies the current contents. Records are values, so later
// mutations never reach an already returned slice.
func (s *MemStore) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, plate := range s.order {
		out = append(out, s.records[plate])
	}
	return out
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
