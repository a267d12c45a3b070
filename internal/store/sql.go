package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/schemagen/internal/document"
)

// DefaultTable is the table used when none is configured
const DefaultTable = "schema_documents"

// SQLStore keeps document history in a SQL table. It supports the pgx
// (PostgreSQL) and sqlite3 drivers.
type SQLStore struct {
	db     *sql.DB
	driver string
	table  string
}

// OpenSQL opens a database connection and prepares the document table
func OpenSQL(ctx context.Context, driver, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewSQLStore(db, driver, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection. Initialize must be called before
// first use unless the table already exists.
func NewSQLStore(db *sql.DB, driver, table string) (*SQLStore, error) {
	switch driver {
	case "pgx", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
	if table == "" {
		table = DefaultTable
	}
	return &SQLStore{db: db, driver: driver, table: table}, nil
}

// Initialize ensures the document table exists
func (s *SQLStore) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	kind VARCHAR(16) NOT NULL,
	name VARCHAR(255) NOT NULL,
	version INTEGER NOT NULL,
	digest CHAR(64) NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (kind, name, version)
)`, s.quotedTable())

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize %s table: %w", s.table, err)
	}
	return nil
}

// Save implements Store
func (s *SQLStore) Save(ctx context.Context, doc *document.Document) (*Record, bool, error) {
	rec, err := newRecord(doc, 0)
	if err != nil {
		return nil, false, err
	}

	var (
		result  *Record
		created bool
	)
	err = s.withTransaction(ctx, func(tx *sql.Tx) error {
		latest, err := s.scanOne(tx.QueryRowContext(ctx,
			s.selectQuery("WHERE kind = %s AND name = %s ORDER BY version DESC LIMIT 1"),
			string(doc.Kind), doc.Name))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			rec.Version = 1
		case err != nil:
			return err
		case latest.Digest == rec.Digest:
			result = latest
			return nil
		default:
			rec.Version = latest.Version + 1
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (id, kind, name, version, digest, payload, created_at) VALUES (%s)",
			s.quotedTable(), s.placeholders(7))
		if _, err := tx.ExecContext(ctx, query,
			rec.ID, string(rec.Kind), rec.Name, rec.Version, rec.Digest, string(rec.Payload), rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", rec.Kind, rec.Name, err)
		}
		result = rec
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// Latest implements Store
func (s *SQLStore) Latest(ctx context.Context, kind document.Kind, name string) (*Record, error) {
	rec, err := s.scanOne(s.db.QueryRowContext(ctx,
		s.selectQuery("WHERE kind = %s AND name = %s ORDER BY version DESC LIMIT 1"),
		string(kind), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: kind, Name: name}
	}
	return rec, err
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, kind document.Kind, name string, version int) (*Record, error) {
	rec, err := s.scanOne(s.db.QueryRowContext(ctx,
		s.selectQuery("WHERE kind = %s AND name = %s AND version = %s"),
		string(kind), name, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Kind: kind, Name: name, Version: version}
	}
	return rec, err
}

// List implements Store
func (s *SQLStore) List(ctx context.Context, kind document.Kind) ([]*Record, error) {
	query := fmt.Sprintf(`
SELECT d.id, d.kind, d.name, d.version, d.digest, d.payload, d.created_at
FROM %[1]s d
WHERE d.kind = %[2]s AND d.version = (
	SELECT MAX(v.version) FROM %[1]s v WHERE v.kind = d.kind AND v.name = d.name
)
ORDER BY d.name ASC`, s.quotedTable(), s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return records, nil
}

// Close implements Store
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// withTransaction runs fn in a transaction, committing on success and
// rolling back on error or panic
func (s *SQLStore) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanOne(row rowScanner) (*Record, error) {
	var (
		rec     Record
		kind    string
		payload string
	)
	err := row.Scan(&rec.ID, &kind, &rec.Name, &rec.Version, &rec.Digest, &payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	rec.Kind = document.Kind(kind)
	rec.Payload = []byte(payload)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// selectQuery builds a select over every column; each %s in where is
// replaced by the next placeholder
func (s *SQLStore) selectQuery(where string) string {
	n := strings.Count(where, "%s")
	args := make([]any, n)
	for i := range args {
		args[i] = s.placeholder(i + 1)
	}
	return fmt.Sprintf("SELECT id, kind, name, version, digest, payload, created_at FROM %s ",
		s.quotedTable()) + fmt.Sprintf(where, args...)
}

func (s *SQLStore) quotedTable() string {
	return pq.QuoteIdentifier(s.table)
}

func (s *SQLStore) placeholder(i int) string {
	if s.driver == "sqlite3" {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}

func (s *SQLStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
