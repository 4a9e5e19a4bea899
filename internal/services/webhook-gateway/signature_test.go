package webhook_gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_KnownVector(t *testing.T) {
	// echo -n 'hello' | openssl dgst -sha1 -hmac 'secret'
	const want = "sha1=5112055c05f944f85755efc5cd8970e194e9f45b"
	assert.Equal(t, want, Sign([]byte("hello"), []byte("secret")))
	assert.True(t, VerifySignature([]byte("hello"), want, []byte("secret")))
}

func TestVerifySignature_AnySingleByteMutationFails(t *testing.T) {
	secret := []byte("It's a Secret to Everybody")
	body := []byte(`{"action":"opened","issue":{"number":1}}`)
	header := Sign(body, secret)
	assert.True(t, VerifySignature(body, header, secret))

	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		assert.False(t, VerifySignature(mutated, header, secret), "body byte %d", i)
	}
	for i := range header {
		mutated := []byte(header)
		mutated[i] ^= 0x01
		assert.False(t, VerifySignature(body, string(mutated), secret), "header byte %d", i)
	}
}

func TestVerifySignature_RejectsMissingHeaderAndWrongScheme(t *testing.T) {
	body := []byte("{}")
	assert.False(t, VerifySignature(body, "", []byte("s")))
	assert.False(t, VerifySignature(body, "sha256="+Sign(body, []byte("s"))[5:], []byte("s")))
}

func TestVerifySignature_EmptySecretRoundTrips(t *testing.T) {
	for _, body := range [][]byte{nil, []byte("{}"), []byte("hello")} {
		assert.True(t, VerifySignature(body, Sign(body, nil), nil))
		assert.True(t, VerifySignature(body, Sign(body, []byte{}), []byte{}))
	}
}
