package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production backend on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects with a service-account credentials file.
// An empty projectID is detected from the credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, credentialsFile)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create firestore client: %v", ErrUnavailable, err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) doc(ref DocRef) (*firestore.DocumentRef, error) {
	coll := s.client.Collection(ref.Collection)
	if coll == nil {
		return nil, fmt.Errorf("%w: bad collection path %q", ErrInvalidID, ref.Collection)
	}
	doc := coll.Doc(ref.ID)
	if doc == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, ref.ID)
	}
	return doc, nil
}

func (s *FirestoreStore) Get(ctx context.Context, ref DocRef) (*Snapshot, error) {
	doc, err := s.doc(ref)
	if err != nil {
		return nil, err
	}
	snap, err := doc.Get(ctx)
	if err != nil {
		return nil, translate(ref, err)
	}
	return NewSnapshot(ref, snap.DataTo), nil
}

func (s *FirestoreStore) Create(ctx context.Context, ref DocRef, data Fields) error {
	doc, err := s.doc(ref)
	if err != nil {
		return err
	}
	if _, err := doc.Create(ctx, toFirestore(data)); err != nil {
		return translate(ref, err)
	}
	return nil
}

func (s *FirestoreStore) Set(ctx context.Context, ref DocRef, data Fields) error {
	doc, err := s.doc(ref)
	if err != nil {
		return err
	}
	if _, err := doc.Set(ctx, toFirestore(data)); err != nil {
		return translate(ref, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, ref DocRef, data Fields) error {
	doc, err := s.doc(ref)
	if err != nil {
		return err
	}
	fields := toFirestore(data)
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := doc.Update(ctx, updates); err != nil {
		return translate(ref, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, ref DocRef) error {
	doc, err := s.doc(ref)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx, firestore.Exists); err != nil {
		return translate(ref, err)
	}
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		coll := s.client.Collection(q.Collection)
		if coll == nil {
			yield(nil, fmt.Errorf("%w: bad collection path %q", ErrInvalidID, q.Collection))
			return
		}

		query := coll.Query
		for _, f := range q.Where {
			query = query.Where(f.Field, "==", f.Value)
		}
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}

		it := query.Documents(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(nil, translate(DocRef{Collection: q.Collection}, err))
				return
			}
			ref := DocRef{Collection: q.Collection, ID: snap.Ref.ID}
			if !yield(NewSnapshot(ref, snap.DataTo), nil) {
				return
			}
		}
	}
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// toFirestore swaps our sentinel for the Firestore one.
func toFirestore(data Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch vv := v.(type) {
		case serverTimestamp:
			out[k] = firestore.ServerTimestamp
		case Fields:
			out[k] = toFirestore(vv)
		default:
			out[k] = v
		}
	}
	return out
}

func translate(ref DocRef, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, ref, err)
	}
	return fmt.Errorf("firestore %s: %w", ref, err)
}
