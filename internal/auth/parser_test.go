package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestParseBasicAuth(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		username, password, ok := ParseBasicAuth(basicHeader("alice", "s3cret"))
		assert.True(t, ok)
		assert.Equal(t, "alice", username)
		assert.Equal(t, "s3cret", password)
	})

	t.Run("password containing colons", func(t *testing.T) {
		username, password, ok := ParseBasicAuth(basicHeader("alice", "pa:ss:word"))
		assert.True(t, ok)
		assert.Equal(t, "alice", username)
		assert.Equal(t, "pa:ss:word", password)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := []string{
			"",
			"Basic",
			"Basic ",
			"Basic not-base64!!!",
			"Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")),
			"Bearer abc",
			base64.StdEncoding.EncodeToString([]byte("alice:pw")),
		}
		for _, header := range cases {
			_, _, ok := ParseBasicAuth(header)
			assert.False(t, ok, "header %q should not parse", header)
		}
	})
}

func TestParseBearerKey(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		keyID, secret, ok := ParseBearerKey("Bearer key_abc123:topsecret")
		assert.True(t, ok)
		assert.Equal(t, "key_abc123", keyID)
		assert.Equal(t, "topsecret", secret)
	})

	t.Run("secret containing colons", func(t *testing.T) {
		keyID, secret, ok := ParseBearerKey("Bearer key_abc:se:cr:et")
		assert.True(t, ok)
		assert.Equal(t, "key_abc", keyID)
		assert.Equal(t, "se:cr:et", secret)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := []string{
			"",
			"Bearer",
			"Bearer ",
			"Bearer tokenwithoutcolon",
			"Basic a2V5OnNlY3JldA==",
		}
		for _, header := range cases {
			_, _, ok := ParseBearerKey(header)
			assert.False(t, ok, "header %q should not parse", header)
		}
	})
}
