package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fingerprint returns the import fingerprint of a note: the digest of its
// title and body joined by "||".
func Fingerprint(title, body string) string {
	return Sum([]byte(title + "||" + body))
}
