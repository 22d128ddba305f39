package settings

import (
	"fmt"
	"net/url"
	"strings"
)

// normalizeBaseURL validates that value is an absolute http(s) URL and
// strips any trailing slash, so downstream link generation can always
// concatenate a leading "/" path without producing "//".
func normalizeBaseURL(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	u, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}

	return strings.TrimRight(u.String(), "/"), nil
}
