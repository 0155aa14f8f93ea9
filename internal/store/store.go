// Package store is the document-store adapter used by the admin tooling.
//
// Documents live in collections addressed by slash-separated paths
// ("reward_codes", "mailbox/global/mails", "mailbox/users/{userId}") and are
// keyed by a document id inside the collection. Backends are Firestore, a
// SQL documents table (PostgreSQL or SQLite) and an in-memory map.
package store

import (
	"context"
	"errors"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the key is taken.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrInvalidID is returned for ids that cannot be used as path segments.
	ErrInvalidID = errors.New("invalid document id")
	// ErrUnavailable wraps connection and credential failures.
	ErrUnavailable = errors.New("document store unavailable")
	// ErrCredentialsNotFound is returned when the service-account file is missing.
	ErrCredentialsNotFound = errors.New("service account credentials file not found")
)

type serverTimestamp struct{}

// ServerTimestamp is a field value the backend replaces with its own clock
// at write time.
var ServerTimestamp = serverTimestamp{}

// Fields is the payload of a write. Values must be JSON and Firestore
// encodable: strings, integers, bools, time.Time, nil, nested Fields.
type Fields map[string]any

// DocRef addresses a single document.
type DocRef struct {
	Collection string
	ID         string
}

// Path returns the full slash-separated document path.
func (r DocRef) Path() string {
	return r.Collection + "/" + r.ID
}

func (r DocRef) String() string {
	return r.Path()
}

// Filter is an equality filter on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Where      []Filter
	Limit      int // 0 = no limit
}

// Snapshot is a document read from the store.
type Snapshot struct {
	Ref    DocRef
	decode func(v any) error
}

// NewSnapshot builds a snapshot whose DataTo delegates to decode.
func NewSnapshot(ref DocRef, decode func(v any) error) *Snapshot {
	return &Snapshot{Ref: ref, decode: decode}
}

// DataTo decodes the document fields into v, a pointer to a struct.
func (s *Snapshot) DataTo(v any) error {
	return s.decode(v)
}

// Store is the storage interface every backend implements.
type Store interface {
	// Get returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, ref DocRef) (*Snapshot, error)

	// Create writes a new document atomically. It returns ErrAlreadyExists
	// without writing anything if the key is taken.
	Create(ctx context.Context, ref DocRef, data Fields) error

	// Set writes the document, replacing any existing one.
	Set(ctx context.Context, ref DocRef, data Fields) error

	// Update merges top-level fields into an existing document.
	// Returns ErrNotFound if the document doesn't exist.
	Update(ctx context.Context, ref DocRef, data Fields) error

	// Delete permanently removes a document.
	// Returns ErrNotFound if the document doesn't exist.
	Delete(ctx context.Context, ref DocRef) error

	// Query lazily yields matching documents ordered by id. Each call
	// re-runs the query.
	Query(ctx context.Context, q Query) iter.Seq2[*Snapshot, error]

	Close() error
}

// Collection joins path segments into a collection path. Every segment must
// pass ValidateID.
func Collection(segments ...string) (string, error) {
	for _, s := range segments {
		if err := ValidateID(s); err != nil {
			return "", err
		}
	}
	if len(segments)%2 == 0 {
		return "", errors.New("collection path needs an odd number of segments")
	}
	return strings.Join(segments, "/"), nil
}

// Doc validates id and returns a reference inside collection.
func Doc(collection, id string) (DocRef, error) {
	if err := ValidateID(id); err != nil {
		return DocRef{}, err
	}
	return DocRef{Collection: collection, ID: id}, nil
}
