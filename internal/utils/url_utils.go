package utils

import (
	"net/url"
	"sort"
	"strings"

	"github.com/mikey/site-categorizer/internal/core"
	"golang.org/x/text/cases"
)

// ValidateURL checks that raw is an absolute http(s) URL with a host
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return core.NewValidationError("url", "must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return core.NewValidationError("url", "%q is malformed: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return core.NewValidationError("url", "%q must use http or https", raw)
	}
	if u.Host == "" {
		return core.NewValidationError("url", "%q has no host", raw)
	}
	return nil
}

// ValidateURLs checks a non-empty list of URLs
func ValidateURLs(urls []string) error {
	if len(urls) == 0 {
		return core.NewValidationError("urls", "at least one URL is required")
	}
	for _, raw := range urls {
		if err := ValidateURL(raw); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeURL returns the cache key for a URL. The scheme becomes https, the
// host is lower cased, trailing slashes are dropped (the root path stays "/"),
// query parameters are sorted and the fragment is removed. Unparseable input
// is returned unchanged.
func NormalizeURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawPath = ""

	query := u.Query()
	for key := range query {
		sort.Strings(query[key])
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// ContainsFold reports whether substr is within s under Unicode case folding
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
