package notify

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to parse local numbers without a country prefix.
const DefaultRegion = "IL"

// FormatE164 formats a phone number to E.164. Numbers with a plausible length
// for their region are accepted even when the metadata has no matching range,
// since newly allocated mobile prefixes lag behind the library. If parsing
// fails, it returns the trimmed input.
func FormatE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) && !phonenumbers.IsPossibleNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// WhatsAppLink returns a wa.me chat link, or "" when the number cannot be formatted.
func WhatsAppLink(input, region string) string {
	e164 := FormatE164(input, region)
	if !strings.HasPrefix(e164, "+") {
		return ""
	}
	return "https://wa.me/" + strings.TrimPrefix(e164, "+")
}
