package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me deep link that opens a chat with the client
// preloaded with the shared report URL. Phone numbers are normalized to
// digits only, as wa.me rejects punctuation.
func WhatsAppLink(phone, message string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", fmt.Errorf("phone number %q has no digits", phone)
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(message)), nil
}
