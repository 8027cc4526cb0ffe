package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/tenant"
)

// Snapshot is an in-memory copy of both persisted collections.
type Snapshot struct {
	Tenants []*tenant.Tenant
	Entries []*entry.Entry
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Tenants: make([]*tenant.Tenant, len(s.Tenants)),
		Entries: make([]*entry.Entry, len(s.Entries)),
	}
	for i, t := range s.Tenants {
		c.Tenants[i] = t.Clone()
	}
	for i, e := range s.Entries {
		c.Entries[i] = e.Clone()
	}
	return c
}

// Tenant returns the tenant with the given ID string, or nil.
func (s *Snapshot) Tenant(tenantID string) *tenant.Tenant {
	for _, t := range s.Tenants {
		if t.ID.String() == tenantID {
			return t
		}
	}
	return nil
}

// Entry returns the entry with the given ID string, or nil.
func (s *Snapshot) Entry(entryID string) *entry.Entry {
	for _, e := range s.Entries {
		if e.ID.String() == entryID {
			return e
		}
	}
	return nil
}

// EntriesFor returns the entries of one tenant in stored order.
func (s *Snapshot) EntriesFor(tenantID string) []*entry.Entry {
	var out []*entry.Entry
	for _, e := range s.Entries {
		if e.TenantID.String() == tenantID {
			out = append(out, e)
		}
	}
	return out
}

// Repository serializes every read-modify-write of the two collections
// through one lock. A mutation either writes both collections or leaves
// the persisted state unchanged.
type Repository struct {
	mu     sync.Mutex
	store  Store
	codec  Codec
	logger *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithCodec sets the wire codec.
func WithCodec(c Codec) RepositoryOption {
	return func(r *Repository) { r.codec = c }
}

// WithRepositoryLogger sets the logger.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository wraps s.
func NewRepository(s Store, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:  s,
		codec:  NewCodec(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying key-value store.
func (r *Repository) Store() Store { return r.store }

// Codec returns the wire codec in use.
func (r *Repository) Codec() Codec { return r.codec }

// Load reads both collections.
func (r *Repository) Load(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, _, err := r.load(ctx)
	return snap, err
}

// Update loads both collections, passes them to fn, and writes both back
// when fn returns nil. An error from fn aborts without writing.
func (r *Repository) Update(ctx context.Context, fn func(*Snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, raw, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}

	tenantsData, err := r.codec.EncodeTenants(snap.Tenants)
	if err != nil {
		return fmt.Errorf("rentbook/store: encode %s: %w", KeyTenants, err)
	}
	entriesData, err := r.codec.EncodeEntries(snap.Entries)
	if err != nil {
		return fmt.Errorf("rentbook/store: encode %s: %w", KeyEntries, err)
	}

	return r.save(ctx, raw, map[string][]byte{
		KeyTenants: tenantsData,
		KeyEntries: entriesData,
	})
}

// rawState holds the bytes read at load time, for rollback.
type rawState map[string][]byte

func (r *Repository) load(ctx context.Context) (*Snapshot, rawState, error) {
	raw := rawState{}
	for _, key := range []string{KeyTenants, KeyEntries} {
		data, err := r.store.Get(ctx, key)
		switch {
		case errors.Is(err, ErrKeyNotFound):
			continue
		case err != nil:
			return nil, nil, fmt.Errorf("rentbook/store: read %s: %w", key, err)
		}
		raw[key] = data
	}

	tenants, err := r.codec.DecodeTenants(raw[KeyTenants])
	if err != nil {
		return nil, nil, err
	}
	entries, err := r.codec.DecodeEntries(raw[KeyEntries])
	if err != nil {
		return nil, nil, err
	}
	return &Snapshot{Tenants: tenants, Entries: entries}, raw, nil
}

// save writes both keys. Backends with batch support write them
// atomically; otherwise entries are written first and restored if the
// tenants write fails.
func (r *Repository) save(ctx context.Context, old rawState, values map[string][]byte) error {
	if b, ok := r.store.(Batcher); ok {
		if err := b.SetMany(ctx, values); err != nil {
			return fmt.Errorf("rentbook/store: write: %w", err)
		}
		return nil
	}

	if err := r.store.Set(ctx, KeyEntries, values[KeyEntries]); err != nil {
		return fmt.Errorf("rentbook/store: write %s: %w", KeyEntries, err)
	}
	if err := r.store.Set(ctx, KeyTenants, values[KeyTenants]); err != nil {
		prev, had := old[KeyEntries]
		if !had {
			prev = []byte("[]")
		}
		if rbErr := r.store.Set(ctx, KeyEntries, prev); rbErr != nil {
			r.logger.Error("rentbook/store: rollback failed",
				"key", KeyEntries,
				"error", rbErr,
			)
		}
		return fmt.Errorf("rentbook/store: write %s: %w", KeyTenants, err)
	}
	return nil
}
