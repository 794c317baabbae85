// Package hashicorpvault stores documents in a HashiCorp Vault KV v2
// secrets engine. It suits documents that must stay sealed, such as
// answer keys.
package hashicorpvault

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/vault/api"
	"github.com/hengadev/xmlcodec/docstore"
	"github.com/hengadev/xmlcodec/internal/reliability"
	"github.com/rs/zerolog"
)

// Logical is the part of the Vault logical API the store uses.
// *api.Logical implements it.
type Logical interface {
	ReadWithContext(ctx context.Context, path string) (*api.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error)
	DeleteWithContext(ctx context.Context, path string) (*api.Secret, error)
	ListWithContext(ctx context.Context, path string) (*api.Secret, error)
}

// Store is a docstore.Store keeping one KV v2 secret per document under
// <mount>/data/<prefix>/<id>.
type Store struct {
	logical Logical
	mount   string
	prefix  string
	logger  zerolog.Logger
	retry   reliability.RetryConfig
}

var _ docstore.Store = (*Store)(nil)

type Option func(s *Store)

// WithRetry sets how many times reads and writes are tried and the delay
// before the first retry.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(s *Store) {
		s.retry.MaxAttempts = attempts
		s.retry.InitialDelay = initialDelay
	}
}

func NewStore(logical Logical, mount, prefix string, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		logical: logical,
		mount:   mount,
		prefix:  prefix,
		logger:  logger,
		retry:   reliability.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// do runs a Vault request with retries.
func (s *Store) do(ctx context.Context, p string, request func(ctx context.Context) (*api.Secret, error)) (*api.Secret, error) {
	exec := reliability.NewRetryExecutor(reliability.NewExponentialBackoffPolicy(s.retry),
		func(attempt int, delay time.Duration, err error) {
			s.logger.Warn().Err(err).Str("path", p).Int("attempt", attempt).Dur("delay", delay).Msg("retrying vault request")
		})
	var secret *api.Secret
	err := exec.Execute(ctx, func(ctx context.Context) error {
		var err error
		secret, err = request(ctx)
		return err
	})
	return secret, err
}

// NewClient creates a Vault client for addr. VAULT_NAMESPACE selects a
// namespace; VAULT_ROLE_ID and VAULT_SECRET_ID log in with AppRole,
// otherwise VAULT_TOKEN is used as is.
func NewClient(addr string) (*api.Client, error) {
	config := api.DefaultConfig()
	if addr != "" {
		config.Address = addr
	}
	config.HttpClient.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if namespace := os.Getenv("VAULT_NAMESPACE"); namespace != "" {
		client.SetNamespace(namespace)
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID != "" && secretID != "" {
		resp, err := client.Logical().Write("auth/approle/login", map[string]any{
			"role_id":   roleID,
			"secret_id": secretID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to login with AppRole: %w", err)
		}
		if resp.Auth == nil {
			return nil, fmt.Errorf("no auth info returned from AppRole login")
		}
		client.SetToken(resp.Auth.ClientToken)
	}
	return client, nil
}

func (s *Store) dataPath(id uuid.UUID) string {
	return path.Join(s.mount, "data", s.prefix, id.String())
}

func (s *Store) metadataPath(parts ...string) string {
	return path.Join(append([]string{s.mount, "metadata", s.prefix}, parts...)...)
}

func (s *Store) Put(ctx context.Context, doc docstore.Document) error {
	if doc.ID == uuid.Nil || doc.Tag == "" {
		return fmt.Errorf("%w: missing ID or tag", docstore.ErrInvalidDocument)
	}
	p := s.dataPath(doc.ID)
	data := map[string]any{
		"data": map[string]any{
			"tag":        doc.Tag,
			"version":    strconv.Itoa(doc.Version),
			"body":       base64.StdEncoding.EncodeToString(doc.Body),
			"checksum":   doc.Checksum,
			"created_at": doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	_, err := s.do(ctx, p, func(ctx context.Context) (*api.Secret, error) {
		return s.logical.WriteWithContext(ctx, p, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write document to Vault at %s: %w", p, err)
	}
	s.logger.Debug().Str("path", p).Str("tag", doc.Tag).Msg("stored sealed document")
	return nil
}

// Get reads the latest version of a document and verifies its checksum.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (docstore.Document, error) {
	p := s.dataPath(id)
	secret, err := s.do(ctx, p, func(ctx context.Context) (*api.Secret, error) {
		return s.logical.ReadWithContext(ctx, p)
	})
	if err != nil {
		return docstore.Document{}, fmt.Errorf("failed to read document from Vault at %s: %w", p, err)
	}
	if secret == nil || secret.Data == nil {
		return docstore.Document{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		// KV v2 returns null data for soft-deleted versions
		return docstore.Document{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}

	doc, err := decode(id, data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("invalid document format at %s: %w", p, err)
	}
	if err := doc.Verify(); err != nil {
		return docstore.Document{}, err
	}
	return doc, nil
}

// List reads every document under the prefix. Vault has no secondary
// index, so filtering by tag loads each document.
func (s *Store) List(ctx context.Context, tag string) ([]docstore.Document, error) {
	p := s.metadataPath()
	secret, err := s.do(ctx, p, func(ctx context.Context) (*api.Secret, error) {
		return s.logical.ListWithContext(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in Vault at %s: %w", p, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}
	keys, _ := secret.Data["keys"].([]any)

	var docs []docstore.Document
	for _, k := range keys {
		name, ok := k.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(name)
		if err != nil {
			s.logger.Warn().Str("key", name).Msg("skipping non-document key")
			continue
		}
		doc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if tag == "" || doc.Tag == tag {
			docs = append(docs, doc)
		}
	}
	sortByCreation(docs)
	return docs, nil
}

// Delete removes every version of a document.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	p := s.metadataPath(id.String())
	if _, err := s.logical.DeleteWithContext(ctx, p); err != nil {
		return fmt.Errorf("failed to delete document from Vault at %s: %w", p, err)
	}
	return nil
}

func decode(id uuid.UUID, data map[string]any) (docstore.Document, error) {
	str := func(key string) (string, error) {
		v, ok := data[key].(string)
		if !ok {
			return "", fmt.Errorf("field %q missing or not a string", key)
		}
		return v, nil
	}

	doc := docstore.Document{ID: id}
	var err error
	if doc.Tag, err = str("tag"); err != nil {
		return doc, err
	}
	if doc.Checksum, err = str("checksum"); err != nil {
		return doc, err
	}
	version, err := str("version")
	if err != nil {
		return doc, err
	}
	if doc.Version, err = strconv.Atoi(version); err != nil {
		return doc, fmt.Errorf("version: %w", err)
	}
	body, err := str("body")
	if err != nil {
		return doc, err
	}
	if doc.Body, err = base64.StdEncoding.DecodeString(body); err != nil {
		return doc, fmt.Errorf("body: %w", err)
	}
	created, err := str("created_at")
	if err != nil {
		return doc, err
	}
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return doc, fmt.Errorf("created_at: %w", err)
	}
	return doc, nil
}

func sortByCreation(docs []docstore.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID.String() < docs[j].ID.String()
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
