// Package passcode implements the complaint tracking gate: tracking ID
// generation and the optional complainant passcode.
//
// Hashes are unsalted SHA-256 so that a record can be checked from its ID and
// passcode alone. Identical passcodes on different complaints therefore share
// a hash.
package passcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	IDPrefix = "CMP-"
	idLength = 8

	// Crockford-style alphabet without 0/O/1/I so IDs survive being read aloud.
	idAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

var ErrEmptyPasscode = errors.New("passcode must not be empty")

// GenerateID returns a new tracking ID such as CMP-7KQ2MZ9D.
func GenerateID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate complaint id: %w", err)
	}
	var sb strings.Builder
	sb.Grow(len(IDPrefix) + idLength)
	sb.WriteString(IDPrefix)
	for _, b := range buf {
		// 256 is a multiple of 32, so the modulo is unbiased.
		sb.WriteByte(idAlphabet[int(b)%len(idAlphabet)])
	}
	return sb.String(), nil
}

// NormalizeID upper-cases and trims a user-typed tracking ID.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// LooksLikeID reports whether id has the shape of a generated tracking ID.
func LooksLikeID(id string) bool {
	if len(id) != len(IDPrefix)+idLength || !strings.HasPrefix(id, IDPrefix) {
		return false
	}
	for _, r := range id[len(IDPrefix):] {
		if !strings.ContainsRune(idAlphabet, r) {
			return false
		}
	}
	return true
}

// Hash returns the hex SHA-256 digest of raw.
func Hash(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPasscode
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether candidate unlocks a record holding storedHash.
// A record without a hash is open to anyone holding its ID.
func Verify(storedHash *string, candidate string) bool {
	if storedHash == nil || *storedHash == "" {
		return true
	}
	if candidate == "" {
		return false
	}
	got, err := Hash(candidate)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(*storedHash)) == 1
}
