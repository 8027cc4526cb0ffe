package rentbook

import "github.com/xraph/rentbook/id"

// ID is the primary identifier type for all rentbook records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix

// TenantID identifies a tenant.
type TenantID = id.TenantID

// EntryID identifies a rent ledger entry.
type EntryID = id.EntryID
