package webhook_gateway

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
)

const signaturePrefix = "sha1="

// Sign returns the X-Hub-Signature value GitHub sends for body.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether header is exactly the signature of the raw
// body under secret. A missing header never verifies.
func VerifySignature(body []byte, header string, secret []byte) bool {
	if header == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(header))
}
