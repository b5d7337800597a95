package countstore

import (
	"context"
	"sync"
	"time"
)

type MemCountStore struct {
	lk             sync.Mutex
	counts         map[string]int
	distinctCounts map[string]map[string]bool
	now            func() time.Time
}

var _ CountStore = (*MemCountStore)(nil)

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		counts:         make(map[string]int),
		distinctCounts: make(map[string]map[string]bool),
		now:            time.Now,
	}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.counts[periodBucket(name, val, period, s.now())], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	now := s.now()
	for _, p := range allPeriods {
		s.counts[periodBucket(name, val, p, now)]++
	}
	return nil
}

func (s *MemCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return len(s.distinctCounts[periodBucket(name, bucket, period, s.now())]), nil
}

func (s *MemCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	now := s.now()
	for _, p := range allPeriods {
		k := periodBucket(name, bucket, p, now)
		m, ok := s.distinctCounts[k]
		if !ok {
			m = make(map[string]bool)
			s.distinctCounts[k] = m
		}
		m[val] = true
	}
	return nil
}
