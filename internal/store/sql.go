package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// fieldPattern limits filter fields to plain identifiers since they are
// interpolated into the JSON path expression.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps documents in a `documents` table with a JSON body.
// It runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore creates a store on an already migrated database
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, ref DocRef) (*Snapshot, error) {
	body, err := s.getBody(ctx, s.db, ref, false)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(ref, jsonDecoder(body)), nil
}

func (s *SQLStore) getBody(ctx context.Context, db DBExecutor, ref DocRef, forUpdate bool) ([]byte, error) {
	query := `SELECT body FROM documents WHERE collection = ? AND id = ?`
	if forUpdate && s.isPostgres() {
		query += ` FOR UPDATE`
	}

	var body string
	if err := db.GetContext(ctx, &body, db.Rebind(query), ref.Collection, ref.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", ref, err)
	}
	return []byte(body), nil
}

func (s *SQLStore) Create(ctx context.Context, ref DocRef, data Fields) error {
	now := s.now().UTC()
	body, err := encodeFields(data, now)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), ref.Collection, ref.ID, string(body), now, now)
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", ref, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLStore) Set(ctx context.Context, ref DocRef, data Fields) error {
	now := s.now().UTC()
	body, err := encodeFields(data, now)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), ref.Collection, ref.ID, string(body), now, now); err != nil {
		return fmt.Errorf("failed to set document %s: %w", ref, err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, ref DocRef, data Fields) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	body, err := s.getBody(ctx, tx, ref, true)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	merged, err := mergeFields(body, data, now)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), string(merged), now, ref.Collection, ref.ID); err != nil {
		return fmt.Errorf("failed to update document %s: %w", ref, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, ref DocRef) error {
	query := `DELETE FROM documents WHERE collection = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), ref.Collection, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", ref, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, q Query) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		query, args, err := s.buildQuery(q)
		if err != nil {
			yield(nil, err)
			return
		}

		rows, err := s.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query %s: %w", q.Collection, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id, body string
			if err := rows.Scan(&id, &body); err != nil {
				yield(nil, fmt.Errorf("failed to scan document: %w", err))
				return
			}
			ref := DocRef{Collection: q.Collection, ID: id}
			if !yield(NewSnapshot(ref, jsonDecoder([]byte(body))), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to iterate %s: %w", q.Collection, err))
		}
	}
}

func (s *SQLStore) buildQuery(q Query) (string, []interface{}, error) {
	var b strings.Builder
	args := []interface{}{q.Collection}
	b.WriteString(`SELECT id, body FROM documents WHERE collection = ?`)

	for _, f := range q.Where {
		if !fieldPattern.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		value, err := filterValue(f)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, ` AND %s = ?`, s.jsonField(f.Field))
		args = append(args, value)
	}

	b.WriteString(` ORDER BY id`)
	if q.Limit > 0 {
		fmt.Fprintf(&b, ` LIMIT %d`, q.Limit)
	}
	return s.db.Rebind(b.String()), args, nil
}

// jsonField returns an expression yielding the JSON text of a top-level
// body field.
func (s *SQLStore) jsonField(field string) string {
	if s.isPostgres() {
		return fmt.Sprintf(`(body -> '%s')::text`, field)
	}
	return fmt.Sprintf(`(body -> '$.%s')`, field)
}

func (s *SQLStore) isPostgres() bool {
	return s.db.DriverName() == "postgres"
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
