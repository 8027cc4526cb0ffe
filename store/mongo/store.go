// Package mongo provides a key-value store on MongoDB.
//
// All keys of one namespace live as fields of a single document, so a
// multi-key write is one atomic update without needing a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/rentbook/store"
)

// Collection and document constants.
const (
	colState       = "rentbook_state"
	DefaultDocID   = "default"
	fieldUpdatedAt = "updated_at"
)

// compile-time interface checks
var (
	_ store.Store   = (*Store)(nil)
	_ store.Batcher = (*Store)(nil)
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
	docID  string
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithDocumentID selects the state document, letting several ledgers
// share a database.
func WithDocumentID(docID string) Option {
	return func(s *Store) {
		if docID != "" {
			s.docID = docID
		}
	}
}

// Connect dials uri and uses the named database. The client is closed
// with the store.
func Connect(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("rentbook/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // best-effort cleanup after failed ping
		return nil, fmt.Errorf("rentbook/mongo: ping: %w", err)
	}
	s := New(client.Database(database), opts...)
	s.owned = true
	return s, nil
}

// New creates a store on an existing database handle.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		client: db.Client(),
		col:    db.Collection(colState),
		docID:  DefaultDocID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates indexes for the state collection.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldUpdatedAt, Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("rentbook/mongo: migrate %s indexes: %w", colState, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.load(ctx, options.FindOne().SetProjection(bson.M{key: 1}))
	if err != nil {
		return nil, err
	}
	v, ok := doc[key].(string)
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return []byte(v), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

// SetMany implements store.Batcher with one single-document update.
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	set := bson.M{fieldUpdatedAt: time.Now().UTC()}
	for k, v := range values {
		set[k] = string(v)
	}
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": s.docID},
		bson.M{"$set": set},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("rentbook/mongo: write: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	doc, err := s.load(ctx, options.FindOne())
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		if k == "_id" || k == fieldUpdatedAt {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) load(ctx context.Context, opts *options.FindOneOptionsBuilder) (bson.M, error) {
	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": s.docID}, opts).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("rentbook/mongo: read: %w", err)
	}
	return doc, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
