package filter

import "github.com/luisvx/inboxcode/pkg/models"

// Canonical provider subject lines. These are a compatibility contract with
// the mailbox provider's actual notifications; matching is case-insensitive
// substring but the strings themselves must not drift.
const (
	// SubjectSessionCode is the sign-in code notification
	SubjectSessionCode = "Netflix: Tu código de inicio de sesión"
	// SubjectHomeUpdate and SubjectHomeConfirmed are the two phrasings the
	// provider has used for the household-update category; both are accepted.
	SubjectHomeUpdate    = "Importante: Cómo actualizar tu Hogar con Netflix"
	SubjectHomeConfirmed = "Confirmación: Se ha confirmado tu Hogar con Netflix"
	// SubjectTempCode is the temporary access code notification
	SubjectTempCode = "Tu código de acceso temporal de Netflix"
	// SubjectDeviceAlert is the PIN-gated new-device security notification
	SubjectDeviceAlert = "Un nuevo dispositivo está usando tu cuenta"
)

// VerifyPIN reports whether the presented PIN matches the stored one. An
// empty stored PIN never matches: an account without a PIN cannot unlock the
// device-alert category.
func VerifyPIN(stored, presented string) bool {
	return stored != "" && stored == presented
}

// Resolve builds the ordered subject list for a general query from the
// account's filter toggles. The device-alert subject is included only when
// the presented PIN matches the stored one; on mismatch it is silently
// omitted while the other filters still apply. An inactive account has no
// usable filters. An empty result means there is nothing to search for and
// the mailbox should not be contacted.
func Resolve(account *models.Account, storedPIN, presentedPIN string) []string {
	if !account.IsActive {
		return nil
	}

	var subjects []string
	if account.FilterSessionCode {
		subjects = append(subjects, SubjectSessionCode)
	}
	if account.FilterHomeUpdate {
		subjects = append(subjects, SubjectHomeUpdate, SubjectHomeConfirmed)
	}
	if account.FilterTempCode {
		subjects = append(subjects, SubjectTempCode)
	}
	if account.FilterDeviceAlert && VerifyPIN(storedPIN, presentedPIN) {
		subjects = append(subjects, SubjectDeviceAlert)
	}
	return subjects
}

// ResolveDeviceAlert narrows the filter set to the device-alert subject
// alone, for callers that explicitly requested that category. PIN
// verification happens before this is called; a bad PIN rejects the query
// outright rather than falling back to the other filters.
func ResolveDeviceAlert(account *models.Account) []string {
	if !account.IsActive || !account.FilterDeviceAlert {
		return nil
	}
	return []string{SubjectDeviceAlert}
}
