package config

import (
	"os"
	"strings"
)

// AdminEmails is the allow-list consulted when a user is first created.
//
// Set via env:
// - ADMIN_EMAILS="owner@example.com,accounts@example.com"
func AdminEmails() []string {
	raw := os.Getenv("ADMIN_EMAILS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if e := strings.ToLower(strings.TrimSpace(part)); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

// IsAdminEmail compares case-insensitively.
func IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range AdminEmails() {
		if e == email {
			return true
		}
	}
	return false
}

// RequireAuth disables the "first user" fallback actor: every mutating
// request must then carry a valid bearer token.
//
// Set via env:
// - REQUIRE_AUTH=true
func RequireAuth() bool {
	return boolFromEnv("REQUIRE_AUTH")
}

// PhoneRegion enables party phone validation against a libphonenumber region (e.g. "IN").
// Empty means phones are stored as given.
func PhoneRegion() string {
	return strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_REGION")))
}

// IdentityProxySecret guards the identity callback used by the OAuth front proxy.
func IdentityProxySecret() string {
	return os.Getenv("IDENTITY_PROXY_SECRET")
}

// MaxImageWidth is the width uploaded images are downscaled to (default 1600px).
func MaxImageWidth() int {
	return intFromEnv("MAX_IMAGE_WIDTH", 1600)
}

func RedisRequired() bool {
	return boolFromEnv("REDIS_REQUIRED")
}

func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}
