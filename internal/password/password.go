// Package password wraps bcrypt hashing and verification for stored
// credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a salted bcrypt digest from the plaintext. Each call uses a
// fresh random salt, so two hashes of the same plaintext differ.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. A malformed
// digest verifies false rather than erroring, so callers never leak
// whether an account exists through a hashing failure.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
