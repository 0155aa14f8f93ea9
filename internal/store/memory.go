package store

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps documents as JSON in process memory. It backs the
// `memory` backend and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte // collection -> id -> body
	now  func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used for ServerTimestamp.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		docs: make(map[string]map[string][]byte),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, ref DocRef) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.docs[ref.Collection][ref.ID]
	if !ok {
		return nil, ErrNotFound
	}
	return NewSnapshot(ref, jsonDecoder(body)), nil
}

func (s *MemoryStore) Create(ctx context.Context, ref DocRef, data Fields) error {
	body, err := encodeFields(data, s.now().UTC())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[ref.Collection][ref.ID]; ok {
		return ErrAlreadyExists
	}
	s.put(ref, body)
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, ref DocRef, data Fields) error {
	body, err := encodeFields(data, s.now().UTC())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(ref, body)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, ref DocRef, data Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.docs[ref.Collection][ref.ID]
	if !ok {
		return ErrNotFound
	}
	merged, err := mergeFields(body, data, s.now().UTC())
	if err != nil {
		return err
	}
	s.put(ref, merged)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, ref DocRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[ref.Collection][ref.ID]; !ok {
		return ErrNotFound
	}
	delete(s.docs[ref.Collection], ref.ID)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		// Snapshot the collection so yield may call back into the store.
		s.mu.RLock()
		coll := s.docs[q.Collection]
		ids := make([]string, 0, len(coll))
		bodies := make(map[string][]byte, len(coll))
		for id, body := range coll {
			ids = append(ids, id)
			bodies[id] = body
		}
		s.mu.RUnlock()
		slices.Sort(ids)

		n := 0
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			ok, err := matches(bodies[id], q.Where)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				continue
			}
			ref := DocRef{Collection: q.Collection, ID: id}
			if !yield(NewSnapshot(ref, jsonDecoder(bodies[id])), nil) {
				return
			}
			n++
			if q.Limit > 0 && n >= q.Limit {
				return
			}
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) put(ref DocRef, body []byte) {
	coll, ok := s.docs[ref.Collection]
	if !ok {
		coll = make(map[string][]byte)
		s.docs[ref.Collection] = coll
	}
	coll[ref.ID] = body
}
