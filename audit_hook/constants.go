package audithook

// Action constants for audit events.
const (
	// Tenant actions
	ActionTenantCreated = "tenant.created"
	ActionTenantUpdated = "tenant.updated"
	ActionTenantDeleted = "tenant.deleted"

	// Ledger actions
	ActionEntryCreated  = "entry.created"
	ActionEntryUpdated  = "entry.updated"
	ActionEntryDeleted  = "entry.deleted"
	ActionChainRepaired = "chain.repaired"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"
	ActionBalanceSettled  = "balance.settled"
)

// Resource constants for audit events.
const (
	ResourceTenant = "tenant"
	ResourceEntry  = "entry"
)

// Category constants for audit events.
const (
	CategoryTenancy = "tenancy"
	CategoryBilling = "billing"
	CategoryPayment = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
)
