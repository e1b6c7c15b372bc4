package admission

import (
	"fmt"
	"strings"
)

// credentialSeparator splits the guest name from the org/event suffix.
const credentialSeparator = "|"

// ParseCredential extracts the guest name from a scanned or typed credential of the form
// "<guestName>|<orgSlug>/<eventSlug>". The suffix is informational and is not validated.
func ParseCredential(raw string) (string, error) {
	name, _, _ := strings.Cut(raw, credentialSeparator)
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidCredential
	}
	return name, nil
}

// FormatCredential builds the payload encoded into a guest's invite QR code.
func FormatCredential(guestName, orgSlug, eventSlug string) string {
	return fmt.Sprintf("%s%s%s/%s", guestName, credentialSeparator, orgSlug, eventSlug)
}
