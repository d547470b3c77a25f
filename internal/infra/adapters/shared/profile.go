// Package shared implements the timestamped HMAC protocol and the spot venue
// behaviour common to every supported exchange. Exchange packages only
// describe themselves through a Profile.
package shared

import (
	"errors"
	"strings"
)

// Paths are the REST endpoints a venue talks to, relative to its base URL.
type Paths struct {
	ServerTime string
	BookTicker string
	Account    string
}

// Profile describes one exchange.
type Profile struct {
	// Key is the lowercase identifier used in configuration and metrics.
	Key string
	// Name is the display name reported by Identity.
	Name         string
	Implemented  bool
	BaseURL      string
	APIKeyHeader string
	Paths        Paths
}

// Validate checks that the profile can build requests.
func (p Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.Key) == "":
		return errors.New("profile key required")
	case strings.TrimSpace(p.BaseURL) == "":
		return errors.New("profile base url required")
	case strings.TrimSpace(p.APIKeyHeader) == "":
		return errors.New("profile api key header required")
	case p.Paths.ServerTime == "" || p.Paths.BookTicker == "" || p.Paths.Account == "":
		return errors.New("profile paths incomplete")
	}
	return nil
}

// Endpoint joins the base URL and path.
func (p Profile) Endpoint(path string) string {
	base := strings.TrimSuffix(strings.TrimSpace(p.BaseURL), "/")
	if strings.TrimSpace(path) == "" {
		return base
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}
