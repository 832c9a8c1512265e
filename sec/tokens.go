package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateOpaqueToken generates a Base64-encoded, URL-safe, opaque random string
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32 // default 32 bytes (256 bits)
	}
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashHexSHA256 is used to key KV entries by a secret without storing the secret.
func HashHexSHA256(data string) string {
	checksum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(checksum[:])
}
