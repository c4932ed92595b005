package filter

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luisvx/inboxcode/pkg/models"
)

func account(opts ...func(*models.Account)) *models.Account {
	a := &models.Account{
		Email:             "user@example.com",
		IsActive:          true,
		FilterSessionCode: true,
		FilterDeviceAlert: true,
		FilterHomeUpdate:  true,
		FilterTempCode:    true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func TestResolve_AllFiltersEnabledWithValidPIN(t *testing.T) {
	subjects := Resolve(account(), "4821", "4821")

	assert.Equal(t, []string{
		SubjectSessionCode,
		SubjectHomeUpdate,
		SubjectHomeConfirmed,
		SubjectTempCode,
		SubjectDeviceAlert,
	}, subjects)
}

func TestResolve_WrongPINDropsOnlyDeviceAlert(t *testing.T) {
	subjects := Resolve(account(), "4821", "0000")

	assert.NotContains(t, subjects, SubjectDeviceAlert)
	assert.Contains(t, subjects, SubjectSessionCode)
	assert.Contains(t, subjects, SubjectTempCode)
}

func TestResolve_AbsentPINDropsDeviceAlert(t *testing.T) {
	subjects := Resolve(account(), "4821", "")
	assert.NotContains(t, subjects, SubjectDeviceAlert)
}

func TestResolve_EmptyStoredPINNeverMatches(t *testing.T) {
	// An account without a stored PIN cannot unlock the category, even
	// when the caller presents an empty PIN too.
	subjects := Resolve(account(), "", "")
	assert.NotContains(t, subjects, SubjectDeviceAlert)
}

func TestResolve_AllFiltersDisabled(t *testing.T) {
	a := account(func(a *models.Account) {
		a.FilterSessionCode = false
		a.FilterDeviceAlert = false
		a.FilterHomeUpdate = false
		a.FilterTempCode = false
	})

	assert.Empty(t, Resolve(a, "4821", "4821"))
}

func TestResolve_InactiveAccountHasNoFilters(t *testing.T) {
	a := account(func(a *models.Account) { a.IsActive = false })
	assert.Empty(t, Resolve(a, "4821", "4821"))
}

func TestResolve_OnlyTempCode(t *testing.T) {
	a := account(func(a *models.Account) {
		a.FilterSessionCode = false
		a.FilterDeviceAlert = false
		a.FilterHomeUpdate = false
	})

	assert.Equal(t, []string{SubjectTempCode}, Resolve(a, "", ""))
}

func TestResolve_HomeUpdateIncludesBothPhrasings(t *testing.T) {
	a := account(func(a *models.Account) {
		a.FilterSessionCode = false
		a.FilterDeviceAlert = false
		a.FilterTempCode = false
	})

	assert.Equal(t, []string{SubjectHomeUpdate, SubjectHomeConfirmed}, Resolve(a, "", ""))
}

func TestResolveDeviceAlert(t *testing.T) {
	assert.Equal(t, []string{SubjectDeviceAlert}, ResolveDeviceAlert(account()))

	disabled := account(func(a *models.Account) { a.FilterDeviceAlert = false })
	assert.Empty(t, ResolveDeviceAlert(disabled))

	inactive := account(func(a *models.Account) { a.IsActive = false })
	assert.Empty(t, ResolveDeviceAlert(inactive))
}

func TestVerifyPIN(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		presented string
		want      bool
	}{
		{"match", "4821", "4821", true},
		{"mismatch", "4821", "0000", false},
		{"absent", "4821", "", false},
		{"no stored pin", "", "", false},
		{"no stored pin with input", "", "1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPIN(tt.stored, tt.presented))
		})
	}
}

func TestAccountOwnerKind(t *testing.T) {
	a := account()
	assert.Equal(t, models.OwnerNone, a.Owner())

	a.ResellerID = sql.NullInt64{Int64: 1, Valid: true}
	assert.Equal(t, models.OwnerReseller, a.Owner())

	a.ResellerID = sql.NullInt64{}
	a.CustomerID = sql.NullInt64{Int64: 2, Valid: true}
	assert.Equal(t, models.OwnerCustomer, a.Owner())
}
