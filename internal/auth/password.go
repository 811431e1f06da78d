package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum required password length.
	MinPasswordLength = 12

	// maxPasswordBytes is bcrypt's input limit.
	maxPasswordBytes = 72

	// APITokenPrefix marks bearer tokens issued by this service so they can
	// be recognised in logs and secret scanners.
	APITokenPrefix = "pp_"
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password exceeds maximum length of %d bytes", maxPasswordBytes)
)

// HashPassword checks the length bounds and returns the bcrypt hash.
func HashPassword(password string, cost int) (string, error) {
	switch {
	case len([]rune(password)) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateAPIToken returns a new bearer token and the hash to store. The
// plaintext is shown to the user once and never persisted.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	secret, err := randomHex(32)
	if err != nil {
		return "", "", err
	}
	plaintext = APITokenPrefix + secret
	return plaintext, HashToken(plaintext), nil
}

// HashToken is the SHA-256 hex digest used to look tokens up.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(h[:])
}

// GenerateSessionSecret creates a random 32-byte key for CSRF and sessions.
func GenerateSessionSecret() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
