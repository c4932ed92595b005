package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/luisvx/inboxcode/pkg/models"
)

// WhatsAppLink builds a wa.me link that opens a chat with the given phone
// number and the message pre-filled. Outbound delivery stays with the
// operator's phone; nothing is sent from here.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

// ExpiredReport builds the reminder text for a reseller whose accounts have
// lapsed, one line per account.
func ExpiredReport(reseller *models.Reseller, accounts []*models.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s, estas son tus cuentas vencidas:\n\n", reseller.Name)
	for _, a := range accounts {
		fmt.Fprintf(&b, "• %s (expiró el %s)\n", a.Email, a.ExpiresAt.Format("2006-01-02"))
	}
	b.WriteString("\nPor favor regulariza cuando puedas.")
	return b.String()
}
