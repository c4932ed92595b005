package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/extract"
	"github.com/luisvx/inboxcode/internal/filter"
	"github.com/luisvx/inboxcode/internal/mailbox"
	"github.com/luisvx/inboxcode/pkg/models"
)

// Store is the slice of the account store the orchestrator needs
type Store interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetResellerByID(ctx context.Context, id int64) (*models.Reseller, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
}

// Scanner runs one search-and-scan pass against the shared mailbox
type Scanner interface {
	SearchAndScan(ctx context.Context, recipient string, subjectFilters []string) (*mailbox.Match, error)
}

// Request is one caller query
type Request struct {
	Recipient string
	PIN       string
	Intent    models.Intent
}

// Result is the extracted fragment of the newest matching message
type Result struct {
	Fragment string
	Kind     mailbox.ContentKind
	Subject  string
}

// Orchestrator composes filter resolution, the mailbox scan and fragment
// extraction into one pipeline. Each query is independent; the orchestrator
// holds no per-query state and is safe for concurrent use.
type Orchestrator struct {
	store       Store
	scanner     Scanner
	scanTimeout time.Duration
	logger      *slog.Logger
}

// New creates an orchestrator. scanTimeout bounds one full mailbox scan.
func New(store Store, scanner Scanner, scanTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:       store,
		scanner:     scanner,
		scanTimeout: scanTimeout,
		logger:      logger.With("component", "query"),
	}
}

// Query finds the newest message for the recipient that passes the account's
// filter set and extracts the fragment the intent asks for. The scan runs
// synchronously under the configured timeout; errors surface to the caller
// instead of being swallowed by a fire-and-forget launch.
func (o *Orchestrator) Query(ctx context.Context, req Request) (*Result, error) {
	recipient := strings.ToLower(strings.TrimSpace(req.Recipient))
	if recipient == "" {
		return nil, ErrEmptyRecipient
	}

	account, err := o.store.GetAccountByEmail(ctx, recipient)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	storedPIN, err := o.storedPIN(ctx, account)
	if err != nil {
		return nil, err
	}

	var subjects []string
	if req.Intent == models.IntentResetDevice {
		// PIN-gated intent: reject before the mailbox is even contacted
		if !filter.VerifyPIN(storedPIN, req.PIN) {
			return nil, ErrInvalidPIN
		}
		subjects = filter.ResolveDeviceAlert(account)
	} else {
		subjects = filter.Resolve(account, storedPIN, req.PIN)
	}
	if len(subjects) == 0 {
		return nil, ErrNoActiveFilters
	}

	scanCtx, cancel := context.WithTimeout(ctx, o.scanTimeout)
	defer cancel()

	match, err := o.scanner.SearchAndScan(scanCtx, recipient, subjects)
	if err != nil {
		return nil, o.mapScanError(recipient, err)
	}

	fragment, err := extract.Fragment(match.Body, req.Intent)
	switch {
	case errors.Is(err, extract.ErrNoHeadline):
		return nil, ErrNoHeadline
	case errors.Is(err, extract.ErrNotFound):
		return nil, ErrFragmentNotFound
	case err != nil:
		o.logger.Error("extraction failed", "recipient", recipient, "intent", req.Intent.String(), "error", err)
		return nil, ErrFragmentNotFound
	}

	return &Result{
		Fragment: fragment,
		Kind:     match.Kind,
		Subject:  match.Subject,
	}, nil
}

// storedPIN resolves the PIN that gates the device-alert category: the
// reseller-wide reset PIN for wholesale accounts, the account's own PIN for
// end-client accounts.
func (o *Orchestrator) storedPIN(ctx context.Context, account *models.Account) (string, error) {
	switch account.Owner() {
	case models.OwnerReseller:
		reseller, err := o.store.GetResellerByID(ctx, account.ResellerID.Int64)
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrOwnerMissing
		}
		if err != nil {
			return "", fmt.Errorf("reseller lookup: %w", err)
		}
		return reseller.ResetPIN, nil
	case models.OwnerCustomer:
		if _, err := o.store.GetCustomerByID(ctx, account.CustomerID.Int64); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return "", ErrOwnerMissing
			}
			return "", fmt.Errorf("customer lookup: %w", err)
		}
		return account.PIN.String, nil
	default:
		return "", ErrOwnerMissing
	}
}

func (o *Orchestrator) mapScanError(recipient string, err error) error {
	switch {
	case errors.Is(err, mailbox.ErrNoMatch):
		return ErrNoMatch
	case errors.Is(err, mailbox.ErrTimeout):
		o.logger.Error("mailbox scan timed out", "recipient", recipient)
		return ErrTimeout
	default:
		// Full transport detail goes to the log only; the caller gets a
		// generic failure.
		o.logger.Error("mailbox scan failed", "recipient", recipient, "error", err)
		return ErrTransport
	}
}
