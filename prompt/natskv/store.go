// Package natskv implements the prompt backing store on NATS JetStream KV.
// Records are stored as JSON under their canonical query key, so the
// cascade's point lookups with exact-including-null semantics map directly
// onto KV gets.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/chainflow/prompt"
)

// Bucket is the KV bucket holding prompt records.
const Bucket = "CHAINFLOW_PROMPTS"

// Store is a prompt.Store backed by a NATS JetStream KV bucket. Prompt
// areas, keys, and locals must stay within the KV key alphabet
// ([A-Za-z0-9_-]) since they become key tokens.
type Store struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates or binds the prompt bucket.
func New(ctx context.Context, js jetstream.JetStream, opts ...Option) (*Store, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      Bucket,
		Description: "Prompt templates keyed by area.key[.locals]",
	})
	if err != nil {
		return nil, fmt.Errorf("create prompt bucket: %w", err)
	}

	s := &Store{
		kv:     kv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lookup performs a point query against the bucket.
func (s *Store) Lookup(ctx context.Context, q prompt.Query) (*prompt.Record, error) {
	entry, err := s.kv.Get(ctx, q.StoreKey())
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, prompt.ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", q.StoreKey(), err)
	}

	var rec prompt.Record
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("decode prompt record %s: %w", q.StoreKey(), err)
	}
	return &rec, nil
}

// Put inserts or replaces a record under its identity key.
func (s *Store) Put(ctx context.Context, rec *prompt.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode prompt record: %w", err)
	}

	key := prompt.QueryFor(rec).StoreKey()
	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}

	s.logger.Debug("stored prompt record",
		slog.String("key", key),
		slog.String("id", rec.ID))
	return nil
}

// Delete removes the record matching the query. Deleting an absent record
// is not an error.
func (s *Store) Delete(ctx context.Context, q prompt.Query) error {
	if err := s.kv.Delete(ctx, q.StoreKey()); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", q.StoreKey(), err)
	}
	return nil
}
