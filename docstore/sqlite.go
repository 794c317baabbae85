package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		tag TEXT NOT NULL,
		version INTEGER NOT NULL,
		body BLOB NOT NULL,
		checksum TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_tag ON documents(tag, created_at);
`

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// OpenSQLite opens or creates the database at path, creating its
// directory and schema when missing.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory '%s': %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection test failed for '%s': %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema in '%s': %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("opened document store")
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, doc Document) error {
	if err := doc.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, tag, version, body, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tag = excluded.tag,
			version = excluded.version,
			body = excluded.body,
			checksum = excluded.checksum
	`, doc.ID.String(), doc.Tag, doc.Version, doc.Body, doc.Checksum, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	s.logger.Debug().Stringer("id", doc.ID).Str("tag", doc.Tag).Int("bytes", len(doc.Body)).Msg("stored document")
	return nil
}

// Get loads a document and verifies its checksum.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tag, version, body, checksum, created_at FROM documents
		WHERE id = ?
	`, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	if err := doc.Verify(); err != nil {
		s.logger.Warn().Err(err).Stringer("id", id).Msg("corrupted document")
		return Document{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context, tag string) ([]Document, error) {
	query := `SELECT id, tag, version, body, checksum, created_at FROM documents`
	var args []any
	if tag != "" {
		query += ` WHERE tag = ?`
		args = append(args, tag)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc Document
		id  string
	)
	if err := row.Scan(&id, &doc.Tag, &doc.Version, &doc.Body, &doc.Checksum, &doc.CreatedAt); err != nil {
		return Document{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Document{}, fmt.Errorf("invalid document id %q: %w", id, err)
	}
	doc.ID = parsed
	return doc, nil
}
