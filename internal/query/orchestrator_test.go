package query

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/filter"
	"github.com/luisvx/inboxcode/internal/mailbox"
	"github.com/luisvx/inboxcode/pkg/models"
)

type fakeStore struct {
	accounts  map[string]*models.Account
	resellers map[int64]*models.Reseller
	customers map[int64]*models.Customer
}

func (f *fakeStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	if a, ok := f.accounts[email]; ok {
		return a, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) GetResellerByID(_ context.Context, id int64) (*models.Reseller, error) {
	if r, ok := f.resellers[id]; ok {
		return r, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

type fakeScanner struct {
	calls    int
	gotTo    string
	gotSubjs []string
	match    *mailbox.Match
	err      error
}

func (f *fakeScanner) SearchAndScan(_ context.Context, recipient string, subjects []string) (*mailbox.Match, error) {
	f.calls++
	f.gotTo = recipient
	f.gotSubjs = subjects
	if f.err != nil {
		return nil, f.err
	}
	return f.match, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func resellerAccount(opts ...func(*models.Account)) *models.Account {
	a := &models.Account{
		ID:                1,
		Email:             "user@example.com",
		IsActive:          true,
		FilterSessionCode: true,
		FilterDeviceAlert: true,
		FilterHomeUpdate:  true,
		FilterTempCode:    true,
		ResellerID:        sql.NullInt64{Int64: 10, Valid: true},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func newTestOrchestrator(store *fakeStore, scanner *fakeScanner) *Orchestrator {
	return New(store, scanner, time.Second, testLogger())
}

func defaultStore() *fakeStore {
	return &fakeStore{
		accounts:  map[string]*models.Account{"user@example.com": resellerAccount()},
		resellers: map[int64]*models.Reseller{10: {ID: 10, Name: "Mayorista", ResetPIN: "4821"}},
		customers: map[int64]*models.Customer{},
	}
}

func htmlMatch(body string) *mailbox.Match {
	return &mailbox.Match{
		SeqNum:  42,
		Subject: filter.SubjectTempCode,
		Kind:    mailbox.KindHTML,
		Body:    body,
	}
}

func TestQuery_EmptyRecipient(t *testing.T) {
	scanner := &fakeScanner{}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "   "})

	assert.ErrorIs(t, err, ErrEmptyRecipient)
	assert.Zero(t, scanner.calls)
}

func TestQuery_AccountNotFound_MailboxNeverContacted(t *testing.T) {
	scanner := &fakeScanner{}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "nobody@example.com"})

	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Zero(t, scanner.calls)
}

func TestQuery_RecipientIsTrimmedAndCaseFolded(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>hola</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "  User@Example.COM "})

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", scanner.gotTo)
}

func TestQuery_OwnerMissing(t *testing.T) {
	store := defaultStore()
	store.accounts["user@example.com"] = resellerAccount(func(a *models.Account) {
		a.ResellerID = sql.NullInt64{}
	})
	scanner := &fakeScanner{}
	o := newTestOrchestrator(store, scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrOwnerMissing)
	assert.Zero(t, scanner.calls)
}

func TestQuery_DanglingResellerIsOwnerMissing(t *testing.T) {
	store := defaultStore()
	delete(store.resellers, 10)
	o := newTestOrchestrator(store, &fakeScanner{})

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrOwnerMissing)
}

func TestQuery_NoActiveFilters_MailboxNeverContacted(t *testing.T) {
	store := defaultStore()
	store.accounts["user@example.com"] = resellerAccount(func(a *models.Account) {
		a.FilterSessionCode = false
		a.FilterDeviceAlert = false
		a.FilterHomeUpdate = false
		a.FilterTempCode = false
	})
	scanner := &fakeScanner{}
	o := newTestOrchestrator(store, scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrNoActiveFilters)
	assert.Zero(t, scanner.calls)
}

func TestQuery_DeviceAlertOnlyWithWrongPIN_NoActiveFilters(t *testing.T) {
	// device-alert is the only enabled filter; wrong PIN silently drops it
	// on the general path, leaving nothing to search for
	store := defaultStore()
	store.accounts["user@example.com"] = resellerAccount(func(a *models.Account) {
		a.FilterSessionCode = false
		a.FilterHomeUpdate = false
		a.FilterTempCode = false
	})
	scanner := &fakeScanner{}
	o := newTestOrchestrator(store, scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com", PIN: "0000"})

	assert.ErrorIs(t, err, ErrNoActiveFilters)
	assert.Zero(t, scanner.calls)
}

func TestQuery_GeneralPathIncludesDeviceAlertWithValidPIN(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>hola</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com", PIN: "4821"})

	require.NoError(t, err)
	assert.Contains(t, scanner.gotSubjs, filter.SubjectDeviceAlert)
}

func TestQuery_ResetDeviceIntentRejectsBadPIN(t *testing.T) {
	scanner := &fakeScanner{}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{
		Recipient: "user@example.com",
		PIN:       "0000",
		Intent:    models.IntentResetDevice,
	})

	assert.ErrorIs(t, err, ErrInvalidPIN)
	assert.Zero(t, scanner.calls, "mailbox must not be contacted on PIN rejection")
}

func TestQuery_ResetDeviceIntentNarrowsFilters(t *testing.T) {
	body := `<a href="https://example.com/reset">Restablecer contraseña</a>`
	scanner := &fakeScanner{match: htmlMatch(body)}
	o := newTestOrchestrator(defaultStore(), scanner)

	result, err := o.Query(context.Background(), Request{
		Recipient: "user@example.com",
		PIN:       "4821",
		Intent:    models.IntentResetDevice,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{filter.SubjectDeviceAlert}, scanner.gotSubjs)
	assert.Equal(t, "https://example.com/reset", result.Fragment)
}

func TestQuery_CustomerAccountUsesAccountPIN(t *testing.T) {
	store := defaultStore()
	store.accounts["user@example.com"] = resellerAccount(func(a *models.Account) {
		a.ResellerID = sql.NullInt64{}
		a.CustomerID = sql.NullInt64{Int64: 20, Valid: true}
		a.PIN = sql.NullString{String: "9015", Valid: true}
	})
	store.customers[20] = &models.Customer{ID: 20, Name: "Cliente"}
	scanner := &fakeScanner{match: htmlMatch("<p>hola</p>")}
	o := newTestOrchestrator(store, scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com", PIN: "9015"})

	require.NoError(t, err)
	assert.Contains(t, scanner.gotSubjs, filter.SubjectDeviceAlert)
}

func TestQuery_RawIntentReturnsBodyUnmodified(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<h1>Hola</h1><p>cuerpo</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	result, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "<h1>Hola</h1><p>cuerpo</p>", result.Fragment)
	assert.Equal(t, mailbox.KindHTML, result.Kind)
	assert.Equal(t, filter.SubjectTempCode, result.Subject)
}

func TestQuery_CodeIntent(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>Tu código es 7342 hoy</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	result, err := o.Query(context.Background(), Request{
		Recipient: "user@example.com",
		Intent:    models.IntentCode,
	})

	require.NoError(t, err)
	assert.Equal(t, "7342", result.Fragment)
}

func TestQuery_DigestWithoutHeadline(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>sin encabezado</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{
		Recipient: "user@example.com",
		Intent:    models.IntentDigest,
	})

	assert.ErrorIs(t, err, ErrNoHeadline)
}

func TestQuery_FragmentNotFound(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>sin enlaces</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{
		Recipient: "user@example.com",
		Intent:    models.IntentConfirmHome,
	})

	assert.ErrorIs(t, err, ErrFragmentNotFound)
}

func TestQuery_NoMatch(t *testing.T) {
	scanner := &fakeScanner{err: mailbox.ErrNoMatch}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestQuery_TransportFailureIsGeneric(t *testing.T) {
	scanner := &fakeScanner{err: &mailbox.TransportError{Op: "login", Err: context.DeadlineExceeded}}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrTransport)
	// Provider detail must not leak through the returned error
	assert.NotContains(t, err.Error(), "login")
}

func TestQuery_TimeoutIsDistinctFromTransport(t *testing.T) {
	scanner := &fakeScanner{err: mailbox.ErrTimeout}
	o := newTestOrchestrator(defaultStore(), scanner)

	_, err := o.Query(context.Background(), Request{Recipient: "user@example.com"})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestQuery_Idempotent(t *testing.T) {
	scanner := &fakeScanner{match: htmlMatch("<p>Tu código es 7342</p>")}
	o := newTestOrchestrator(defaultStore(), scanner)
	req := Request{Recipient: "user@example.com", Intent: models.IntentCode}

	first, err := o.Query(context.Background(), req)
	require.NoError(t, err)
	second, err := o.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
