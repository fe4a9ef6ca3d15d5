package utils

import "strings"

// ChatWID normalizes a phone number or JID into the provider's chat WID
// format (number@c.us)
func ChatWID(phone string) string {
	if strings.Contains(phone, "@c.us") {
		return phone
	}
	return phone + "@c.us"
}

// DigitsOnly strips every non-digit character from a phone number, the
// normalization the ad platform expects before hashing
func DigitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
