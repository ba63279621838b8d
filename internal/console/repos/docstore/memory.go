package docstore

import "sync"

// memoryStore is a map-backed Store for tests and ephemeral runs.
type memoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory returns an in-memory Store.
func NewMemory() Store {
	return &memoryStore{docs: make(map[string][]byte)}
}

func (s *memoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *memoryStore) Put(key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(doc))
	copy(v, doc)
	s.docs[key] = v
	return nil
}

func (s *memoryStore) Close() error { return nil }

var _ Store = (*memoryStore)(nil)
