package audithook

// Action constants for audit events.
const (
	// Account actions
	ActionContribution      = "account.contribution"
	ActionAccountConfigured = "account.configured"

	// Payout actions
	ActionPayoutExecuted = "payout.executed"
	ActionPayoutSkipped  = "payout.skipped"
	ActionPayoutFailed   = "payout.failed"
	ActionPayoutDenied   = "payout.denied"
)

// Resource constants for audit events.
const (
	ResourceAccount = "account"
	ResourcePayout  = "payout"
)

// Category constants for audit events.
const (
	CategoryLedger       = "ledger"
	CategoryDisbursement = "disbursement"
	CategoryAccess       = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)
