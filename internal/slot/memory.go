package slot

import (
	"sync"
)

// MemoryStore хранит слоты в памяти процесса. QuotaBytes > 0 ограничивает
// суммарный размер ключей и значений.
type MemoryStore struct {
	mu         sync.RWMutex
	values     map[string]string
	QuotaBytes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.QuotaBytes > 0 {
		used := 0
		for k, v := range s.values {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > s.QuotaBytes {
			return ErrQuotaExceeded
		}
	}

	s.values[key] = value
	return nil
}
