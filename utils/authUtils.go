package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"
)

var sanitizer = bluemonday.StrictPolicy()

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CheckPasswordPolicy accepts ASCII letters and digits only, with at least one
// lowercase letter, one uppercase letter and one digit.
func CheckPasswordPolicy(password string) error {
	if len(password) < MIN_PASSWORD_LENGTH || len(password) > MAX_PASSWORD_LENGTH {
		return ErrWeakPassword
	}
	var lower, upper, digit bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			return ErrWeakPassword
		}
	}
	if !lower || !upper || !digit {
		return ErrWeakPassword
	}
	return nil
}

const maxSanitizePasses = 4

// SanitizeText strips markup and surrounding whitespace from user supplied text.
// Entities are decoded and the result sanitized again until it stops changing,
// so encoded markup cannot survive. Text that is still changing after
// maxSanitizePasses is dropped.
func SanitizeText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
		if next == s {
			return next
		}
		s = next
	}
	return ""
}

func NormalizeEmail(email string) string {
	return strings.ToLower(SanitizeText(email))
}

// ThrowawayPassword returns a random password for accounts that never sign in
// with one.
func ThrowawayPassword() (string, error) {
	b := make([]byte, THROWAWAY_PASSWORD_BYTES)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
