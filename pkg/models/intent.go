package models

import "fmt"

// Intent is the caller's requested extraction strategy. The set is closed:
// handlers and the extractor switch over it exhaustively.
type Intent int

const (
	// IntentRaw returns the decoded body unmodified (default).
	IntentRaw Intent = iota
	// IntentDigest returns the first top-level heading of the message.
	IntentDigest
	// IntentCode returns the first standalone 4-digit code in the body text.
	IntentCode
	// IntentConfirmHome returns the home-update confirmation link.
	IntentConfirmHome
	// IntentTempCode returns the temporary-access-code link.
	IntentTempCode
	// IntentResetDevice returns the password-reset link from a device alert.
	// This intent is PIN-gated: it is rejected outright without a valid PIN.
	IntentResetDevice
)

var intentNames = map[Intent]string{
	IntentRaw:         "raw",
	IntentDigest:      "digest",
	IntentCode:        "code",
	IntentConfirmHome: "confirm-home",
	IntentTempCode:    "temp-code",
	IntentResetDevice: "reset-device",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// ParseIntent maps the wire name of an intent to its value. The empty string
// selects IntentRaw.
func ParseIntent(s string) (Intent, error) {
	if s == "" {
		return IntentRaw, nil
	}
	for intent, name := range intentNames {
		if name == s {
			return intent, nil
		}
	}
	return IntentRaw, fmt.Errorf("unknown intent %q", s)
}
