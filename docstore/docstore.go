// Package docstore persists serialized documents.
package docstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrChecksumMismatch = errors.New("document checksum mismatch")
	ErrInvalidDocument  = errors.New("invalid document")
)

// Document is one stored XML document. Tag and Version are copied from
// the root element so documents can be listed without parsing them.
type Document struct {
	ID        uuid.UUID
	Tag       string
	Version   int
	Body      []byte
	Checksum  string
	CreatedAt time.Time
}

// NewDocument wraps body with a fresh ID and its checksum.
func NewDocument(tag string, version int, body []byte) Document {
	return Document{
		ID:        uuid.New(),
		Tag:       tag,
		Version:   version,
		Body:      body,
		Checksum:  Checksum(body),
		CreatedAt: time.Now().UTC(),
	}
}

// Checksum returns the hex BLAKE2b-256 digest of body.
func Checksum(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Verify checks that the stored checksum matches the body.
func (d Document) Verify() error {
	if got := Checksum(d.Body); got != d.Checksum {
		return fmt.Errorf("%w: document %s has %s, body hashes to %s", ErrChecksumMismatch, d.ID, d.Checksum, got)
	}
	return nil
}

func (d Document) validate() error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidDocument)
	}
	if d.Tag == "" {
		return fmt.Errorf("%w: missing tag", ErrInvalidDocument)
	}
	return nil
}

// Store persists documents. Put replaces a document with the same ID.
// List returns documents with the given tag, or every document when tag
// is empty, oldest first.
type Store interface {
	Put(ctx context.Context, doc Document) error
	Get(ctx context.Context, id uuid.UUID) (Document, error)
	List(ctx context.Context, tag string) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
