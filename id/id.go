// Package id defines TypeID-based identity types for rentbook records.
//
// Tenants and ledger entries use a single ID struct with a prefix that
// identifies the record type. New IDs are K-sortable (UUIDv7-based),
// globally unique, and URL-safe in the format "prefix_suffix".
//
// Data created before TypeIDs were introduced carries opaque identifiers
// such as "1718092800000". Those are accepted by ParseLenient and kept
// verbatim as legacy IDs so existing ledgers load and round-trip unchanged.
package id

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

// Prefix constants for all rentbook record types.
const (
	PrefixTenant Prefix = "tnt"  // Tenant
	PrefixEntry  Prefix = "rent" // Rent ledger entry
)

// ID is the primary identifier type for all rentbook records.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner  typeid.TypeID
	legacy string
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "tnt_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not a valid TypeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseLenient parses s as a TypeID and falls back to a legacy ID for
// any other non-empty token without whitespace.
func ParseLenient(s string) (ID, error) {
	if parsed, err := Parse(s); err == nil {
		return parsed, nil
	}
	return Legacy(s)
}

// Legacy wraps an opaque identifier from data written before TypeIDs.
func Legacy(s string) (ID, error) {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return Nil, fmt.Errorf("id: invalid legacy id %q", s)
	}
	return ID{legacy: s, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value. Legacy IDs are accepted for any prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := ParseLenient(s)
	if err != nil {
		return Nil, err
	}

	if !parsed.IsLegacy() && parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// TenantID is a type-safe identifier for tenants (prefix: "tnt").
type TenantID = ID

// EntryID is a type-safe identifier for rent ledger entries (prefix: "rent").
type EntryID = ID

// ──────────────────────────────────────────────────
// Convenience constructors and parsers
// ──────────────────────────────────────────────────

// NewTenantID generates a new unique tenant ID.
func NewTenantID() ID { return New(PrefixTenant) }

// NewEntryID generates a new unique ledger entry ID.
func NewEntryID() ID { return New(PrefixEntry) }

// ParseTenantID parses a string and validates the "tnt" prefix.
func ParseTenantID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTenant) }

// ParseEntryID parses a string and validates the "rent" prefix.
func ParseEntryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEntry) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix),
// or the verbatim value of a legacy ID.
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	switch {
	case !i.valid:
		return ""
	case i.legacy != "":
		return i.legacy
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID. Legacy IDs have none.
func (i ID) Prefix() Prefix {
	if !i.valid || i.legacy != "" {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// IsLegacy reports whether this ID predates TypeIDs.
func (i ID) IsLegacy() bool {
	return i.valid && i.legacy != ""
}

// Equal reports whether both IDs have the same string form.
func (i ID) Equal(other ID) bool {
	return i.String() == other.String()
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := ParseLenient(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
