// Package validation holds format checks shared by the services.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// certificateNumberRegex matches PREFIX-YYYYMMDD-XXXXXXXXXX.
var certificateNumberRegex = regexp.MustCompile(`^[A-Z]{3}-\d{8}-[0-9A-F]{10}$`)

// IsCertificateNumber reports whether number is well formed. It expects the
// trimmed, upper-cased form.
func IsCertificateNumber(number string) bool {
	return certificateNumberRegex.MatchString(number)
}

var allowedURLSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
}

// ValidateLinkURL accepts an empty string or an absolute http(s) URL.
func ValidateLinkURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not valid")
	}
	if _, ok := allowedURLSchemes[strings.ToLower(u.Scheme)]; !ok {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}
