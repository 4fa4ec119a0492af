package auth

import (
	"encoding/base64"
	"strings"
)

// Credential parsers for the two supported Authorization header formats.
// Parsing failures are indistinguishable from an absent header: both
// return ok=false, so a probing client cannot tell a malformed header
// apart from a missing one.

const (
	basicPrefix  = "Basic "
	bearerPrefix = "Bearer "
)

// ParseBasicAuth parses an HTTP Basic Auth header value into a
// username/password pair.
func ParseBasicAuth(header string) (username, password string, ok bool) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(basicPrefix):])
	if err != nil {
		return "", "", false
	}

	// Only the first colon delimits; passwords may contain colons.
	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}

	return username, password, true
}

// ParseBearerKey parses a Bearer token of the form "key_id:key_secret".
func ParseBearerKey(header string) (keyID, secret string, ok bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	keyID, secret, ok = strings.Cut(token, ":")
	if !ok {
		return "", "", false
	}

	return keyID, secret, true
}
