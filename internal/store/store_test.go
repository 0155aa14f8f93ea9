package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/config"
	"github.com/kkkkikiki/gameadmin/internal/database"
)

var fixedNow = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

type testDoc struct {
	Title     string    `json:"title"`
	Count     int64     `json:"count"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Nested    struct {
		Coins int64 `json:"coins"`
	} `json:"nested"`
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSQLite(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	s := NewSQLStore(db)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s
}

// newPostgresStore connects with the TEST_DB_* variables and empties the
// documents table. It returns nil when TEST_DB_HOST is unset.
func newPostgresStore(t *testing.T) *SQLStore {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		return nil
	}
	ctx := context.Background()
	cfg, err := config.LoadWith(ctx, envconfig.PrefixLookuper("TEST_", envconfig.OsLookuper()))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE documents"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	s := NewSQLStore(db)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	b := map[string]Store{
		"memory": NewMemoryStore(WithClock(func() time.Time { return fixedNow })),
		"sqlite": newSQLiteStore(t),
	}
	if pg := newPostgresStore(t); pg != nil {
		b["postgres"] = pg
	}
	return b
}

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ref := DocRef{Collection: "reward_codes", ID: "ABC123"}
			err := s.Create(ctx, ref, Fields{
				"title":      "first",
				"count":      3,
				"is_active":  true,
				"created_at": ServerTimestamp,
				"nested":     Fields{"coins": 1000},
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			snap, err := s.Get(ctx, ref)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			var got testDoc
			if err := snap.DataTo(&got); err != nil {
				t.Fatalf("DataTo: %v", err)
			}
			if got.Title != "first" || got.Count != 3 || !got.IsActive || got.Nested.Coins != 1000 {
				t.Errorf("unexpected document %+v", got)
			}
			if !got.CreatedAt.Equal(fixedNow) {
				t.Errorf("created_at = %v, want server time %v", got.CreatedAt, fixedNow)
			}
		})
	}
}

func TestStoreCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ref := DocRef{Collection: "mailbox/global/mails", ID: "mail_1"}
			if err := s.Create(ctx, ref, Fields{"title": "original"}); err != nil {
				t.Fatalf("Create: %v", err)
			}
			err := s.Create(ctx, ref, Fields{"title": "second"})
			if !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("second Create error = %v, want ErrAlreadyExists", err)
			}

			snap, err := s.Get(ctx, ref)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			var got testDoc
			if err := snap.DataTo(&got); err != nil {
				t.Fatalf("DataTo: %v", err)
			}
			if got.Title != "original" {
				t.Errorf("title = %q, document was overwritten", got.Title)
			}
		})
	}
}

func TestStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ref := DocRef{Collection: "mailbox/users/u1", ID: "m"}
			if err := s.Set(ctx, ref, Fields{"title": "a", "count": 1}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, ref, Fields{"title": "b"}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			snap, err := s.Get(ctx, ref)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			var got testDoc
			if err := snap.DataTo(&got); err != nil {
				t.Fatalf("DataTo: %v", err)
			}
			if got.Title != "b" || got.Count != 0 {
				t.Errorf("unexpected document after overwrite %+v", got)
			}
		})
	}
}

func TestStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			missing := DocRef{Collection: "reward_codes", ID: "MISSING"}
			if err := s.Update(ctx, missing, Fields{"is_active": false}); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update missing error = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, missing); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete missing error = %v, want ErrNotFound", err)
			}
			if _, err := s.Get(ctx, missing); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update/Delete on missing key wrote a document: %v", err)
			}

			ref := DocRef{Collection: "reward_codes", ID: "CODE"}
			if err := s.Create(ctx, ref, Fields{"title": "t", "count": 7, "is_active": true}); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := s.Update(ctx, ref, Fields{"is_active": false}); err != nil {
				t.Fatalf("Update: %v", err)
			}
			snap, err := s.Get(ctx, ref)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			var got testDoc
			if err := snap.DataTo(&got); err != nil {
				t.Fatalf("DataTo: %v", err)
			}
			if got.IsActive || got.Title != "t" || got.Count != 7 {
				t.Errorf("Update did not merge fields: %+v", got)
			}

			if err := s.Delete(ctx, ref); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreQuery(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, active := range []bool{true, false, true, false, true} {
				ref := DocRef{Collection: "reward_codes", ID: fmt.Sprintf("C%d", 5-i)}
				if err := s.Create(ctx, ref, Fields{"title": ref.ID, "is_active": active}); err != nil {
					t.Fatalf("Create: %v", err)
				}
			}
			other := DocRef{Collection: "mailbox/global/mails", ID: "x"}
			if err := s.Create(ctx, other, Fields{"is_active": true}); err != nil {
				t.Fatalf("Create: %v", err)
			}

			collect := func(q Query) []string {
				t.Helper()
				var ids []string
				for snap, err := range s.Query(ctx, q) {
					if err != nil {
						t.Fatalf("Query: %v", err)
					}
					ids = append(ids, snap.Ref.ID)
				}
				return ids
			}

			all := collect(Query{Collection: "reward_codes"})
			if strings.Join(all, ",") != "C1,C2,C3,C4,C5" {
				t.Errorf("all = %v, want ordered by id", all)
			}

			active := collect(Query{Collection: "reward_codes", Where: []Filter{{Field: "is_active", Value: true}}})
			if strings.Join(active, ",") != "C1,C3,C5" {
				t.Errorf("active = %v", active)
			}

			limited := collect(Query{Collection: "reward_codes", Limit: 2})
			if len(limited) != 2 {
				t.Errorf("limited = %v, want 2 results", limited)
			}

			// Stopping early must not leak or error.
			for range s.Query(ctx, Query{Collection: "reward_codes"}) {
				break
			}
		})
	}
}

func TestInstrumentedPassesThrough(t *testing.T) {
	ctx := context.Background()
	s := Instrument(NewMemoryStore())
	ref := DocRef{Collection: "reward_codes", ID: "X"}

	if err := s.Create(ctx, ref, Fields{"is_active": true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, ref, Fields{}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Create duplicate error = %v", err)
	}
	n := 0
	for _, err := range s.Query(ctx, Query{Collection: "reward_codes"}) {
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Errorf("query returned %d documents, want 1", n)
	}
}

func TestSQLStoreRejectsBadFilterField(t *testing.T) {
	s := newSQLiteStore(t)
	for _, err := range s.Query(context.Background(), Query{
		Collection: "reward_codes",
		Where:      []Filter{{Field: "is_active'); DROP TABLE documents; --", Value: true}},
	}) {
		if err == nil {
			t.Fatal("expected error for bad filter field")
		}
	}
}
