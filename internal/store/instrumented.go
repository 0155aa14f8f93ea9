package store

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/kkkkikiki/gameadmin/internal/metrics"
)

// Instrumented records metrics for every call to the wrapped store.
type Instrumented struct {
	next Store
}

// Instrument wraps s with latency metrics
func Instrument(s Store) *Instrumented {
	return &Instrumented{next: s}
}

func observe(operation string, start time.Time, err error) {
	// Expected outcomes are not store failures.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
		err = nil
	}
	metrics.RecordStoreOperation(operation, err, time.Since(start).Seconds())
}

func (s *Instrumented) Get(ctx context.Context, ref DocRef) (snap *Snapshot, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()
	return s.next.Get(ctx, ref)
}

func (s *Instrumented) Create(ctx context.Context, ref DocRef, data Fields) (err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()
	return s.next.Create(ctx, ref, data)
}

func (s *Instrumented) Set(ctx context.Context, ref DocRef, data Fields) (err error) {
	start := time.Now()
	defer func() { observe("set", start, err) }()
	return s.next.Set(ctx, ref, data)
}

func (s *Instrumented) Update(ctx context.Context, ref DocRef, data Fields) (err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()
	return s.next.Update(ctx, ref, data)
}

func (s *Instrumented) Delete(ctx context.Context, ref DocRef) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()
	return s.next.Delete(ctx, ref)
}

func (s *Instrumented) Query(ctx context.Context, q Query) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		start := time.Now()
		var err error
		defer func() { observe("query", start, err) }()
		for snap, e := range s.next.Query(ctx, q) {
			if e != nil {
				err = e
			}
			if !yield(snap, e) {
				return
			}
		}
	}
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
