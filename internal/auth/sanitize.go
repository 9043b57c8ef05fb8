package auth

import (
	"errors"
	"html"
	"regexp"
	"strings"
)

const (
	maxEmailLength   = 255
	maxSubjectLength = 50
	maxNameLength    = 255
	maxPictureLength = 500
	maxCodeLength    = 500
	minStateLength   = 10
	maxStateLength   = 200
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9_\-./]+$`)
	statePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// SanitizeIdentity validates the fields used as keys and escapes the free-text ones.
// Malformed email or subject yields a KindValidation error.
func SanitizeIdentity(id *Identity) (*Identity, error) {
	email, err := NormalizeEmail(id.Email)
	if err != nil {
		return nil, validationError("invalid email from identity provider", err)
	}

	subject := strings.TrimSpace(id.Subject)
	if subject == "" || len(subject) > maxSubjectLength || !digitsOnly.MatchString(subject) {
		return nil, validationError("invalid account id from identity provider", errors.New("subject must be a numeric string"))
	}

	return &Identity{
		Subject: subject,
		Email:   email,
		Name:    sanitizeText(id.Name, maxNameLength),
		Picture: sanitizePicture(id.Picture),
	}, nil
}

// NormalizeEmail checks the address format and lower-cases it
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email is required")
	}
	if len(email) > maxEmailLength {
		return "", errors.New("email is too long")
	}
	if !emailPattern.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return strings.ToLower(email), nil
}

// sanitizeText html-escapes value and caps it at max runes
func sanitizeText(value string, max int) string {
	escaped := html.EscapeString(strings.TrimSpace(value))
	if runes := []rune(escaped); len(runes) > max {
		escaped = string(runes[:max])
	}
	return strings.TrimSpace(escaped)
}

// sanitizePicture keeps http(s) URLs only
func sanitizePicture(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "https://") && !strings.HasPrefix(value, "http://") {
		return ""
	}
	return sanitizeText(value, maxPictureLength)
}

func validCode(code string) bool {
	return len(code) <= maxCodeLength && codePattern.MatchString(code)
}

func validState(state string) bool {
	return len(state) >= minStateLength && len(state) <= maxStateLength && statePattern.MatchString(state)
}
