package booking

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrPhoneNotNumeric means the phone contained characters other than
	// digits and the accepted separators.
	ErrPhoneNotNumeric = errors.New("booking: phone contains non-digit characters")
	// ErrPhoneLength means the digit count fell outside 8-15.
	ErrPhoneLength = errors.New("booking: phone must have between 8 and 15 digits")
	// ErrEmailFormat means the address did not look like local@domain.tld.
	ErrEmailFormat = errors.New("booking: email format invalid")
	// ErrEmailBlockedDomain means the domain is a known disposable/test domain.
	ErrEmailBlockedDomain = errors.New("booking: email domain not accepted")
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// blockedEmailDomains are disposable or test domains rejected during booking.
var blockedEmailDomains = map[string]struct{}{
	"test.com":          {},
	"example.com":       {},
	"mailinator.com":    {},
	"guerrillamail.com": {},
	"10minutemail.com":  {},
	"yopmail.com":       {},
	"tempmail.com":      {},
	"trashmail.com":     {},
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// NormalizePhone strips whitespace, hyphens, parentheses and a leading plus,
// requires 8-15 digits, and returns the canonical "+digits" form.
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneSeparators.Replace(strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return "", ErrPhoneNotNumeric
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", ErrPhoneNotNumeric
		}
	}
	if len(cleaned) < 8 || len(cleaned) > 15 {
		return "", ErrPhoneLength
	}
	return "+" + cleaned, nil
}

// NormalizeEmail lower-cases and validates an email address against the
// format pattern and the disposable-domain blocklist.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", ErrEmailFormat
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if _, blocked := blockedEmailDomains[domain]; blocked {
		return "", ErrEmailBlockedDomain
	}
	return email, nil
}
