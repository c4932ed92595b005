package query

import "errors"

// Typed results of a query. Handlers resolve these at the boundary; none of
// them carries mailbox-provider detail.
var (
	// ErrEmptyRecipient is an input-validation failure
	ErrEmptyRecipient = errors.New("recipient address is required")

	// ErrAccountNotFound means the recipient is not in the account store;
	// the mailbox is never contacted in that case
	ErrAccountNotFound = errors.New("account not found")

	// ErrOwnerMissing means the account exists but is associated with
	// neither owner kind, which makes it unusable
	ErrOwnerMissing = errors.New("account has no owner")

	// ErrNoActiveFilters means the resolved filter set came back empty;
	// nothing to search for, not an error in the mailbox sense
	ErrNoActiveFilters = errors.New("no active filters")

	// ErrInvalidPIN is the hard rejection of a PIN-gated intent
	ErrInvalidPIN = errors.New("invalid pin")

	// ErrNoMatch means the scan completed and no message qualified
	ErrNoMatch = errors.New("no matching message")

	// ErrNoHeadline means a message matched but has nothing to digest
	ErrNoHeadline = errors.New("matched message has no headline")

	// ErrFragmentNotFound means a message matched but the requested
	// fragment (link or code) is not in it
	ErrFragmentNotFound = errors.New("fragment not found in message")

	// ErrTransport is any connection/auth/search/fetch failure; the raw
	// cause stays in the logs
	ErrTransport = errors.New("mailbox unavailable")

	// ErrTimeout means the scan exceeded its configured budget
	ErrTimeout = errors.New("mailbox scan timed out")
)
