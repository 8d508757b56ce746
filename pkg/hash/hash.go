package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first n characters of SHA256Hex(input).
func Prefix(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// IP hashes a client address with a salt so logs can correlate requests
// without storing the raw address.
func IP(ip, salt string) string {
	return Prefix(salt+ip, 12)
}
