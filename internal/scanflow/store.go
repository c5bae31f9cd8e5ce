package scanflow

import "sync"

// Store holds active capture flows in memory, keyed by flow ID.
type Store struct {
	flows map[string]*Flow
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		flows: make(map[string]*Flow),
	}
}

func (s *Store) Get(id string) (*Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, exists := s.flows[id]
	return flow, exists
}

func (s *Store) Set(id string, flow *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[id] = flow
}

func (s *Store) GetAll() map[string]*Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Flow, len(s.flows))
	for k, v := range s.flows {
		result[k] = v
	}
	return result
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
}
