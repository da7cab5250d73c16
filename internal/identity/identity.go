package identity

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"
)

const tokenBytes = 6

// Ensure returns the client's identifier. An already-issued id is kept
// as is; otherwise a fresh "<nickname>-<token>" is minted.
func Ensure(nickname, existingUserID string) string {
	if existingUserID != "" {
		return existingUserID
	}

	return nickname + "-" + newToken()
}

func newToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err == nil {
		return base64.RawURLEncoding.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
