package main

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrLaunch     = errors.New("failed to launch headless browser")
	ErrNavigation = errors.New("page load failed")
)

var httpSchemePrefix = regexp.MustCompile(`(?i)^https?://`)

// normalizeURL prefixes https:// when the input carries no http(s) scheme.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !httpSchemePrefix.MatchString(raw) {
		return "https://" + raw
	}
	return raw
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// hostOf returns the lower-cased hostname of rawURL, without port.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}
