package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of the exact request body,
// keyed by email.http.signing_secret. The relay recomputes it over the raw
// bytes it received and rejects the delivery when X-Synapse-Signature
// differs. An empty secret means requests go out unsigned.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
