package domain

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Length limits shared by the domain constructors and the request validators.
const (
	UsernameMinLength    = 3
	UsernameMaxLength    = 50
	PasswordMinLength    = 8
	PasswordMaxLength    = 72 // bcrypt ignores anything longer
	TitleMaxLength       = 255
	DescriptionMaxLength = 2000
)

// forbiddenTextChars may never appear in user-supplied task text.
const forbiddenTextChars = `<>"'&`

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailValidator  = validator.New()
)

// NormalizeUsername folds a username to its canonical lower-case form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail folds an email address to its canonical lower-case form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks length and charset (letters, digits and underscore).
func ValidateUsername(username string) error {
	n := len(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return NewValidationError("username", "must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return NewValidationError("username", "may only contain letters, digits and underscores")
	}
	return nil
}

// ValidateEmail checks that email is a syntactically valid address.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "cannot be empty")
	}
	if err := emailValidator.Var(email, "email"); err != nil {
		return NewValidationError("email", "invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy: 8 to 72 characters with at
// least one uppercase letter and one digit.
func ValidatePassword(password string) error {
	n := len(password)
	if n < PasswordMinLength {
		return NewValidationError("password", "must be at least 8 characters long")
	}
	if n > PasswordMaxLength {
		return NewValidationError("password", "must be at most 72 characters long")
	}

	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return NewValidationError("password", "must contain at least one uppercase letter")
	}
	if !hasDigit {
		return NewValidationError("password", "must contain at least one digit")
	}
	return nil
}

// IsSafeText reports whether s is free of markup-significant characters.
func IsSafeText(s string) bool {
	return !strings.ContainsAny(s, forbiddenTextChars)
}

// ValidateTitle checks a task title after trimming.
func ValidateTitle(title string) error {
	if title == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if len([]rune(title)) > TitleMaxLength {
		return NewValidationError("title", "must be at most 255 characters")
	}
	if !IsSafeText(title) {
		return NewValidationError("title", "contains forbidden characters")
	}
	return nil
}

// ValidateDescription checks an optional task description after trimming.
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if len([]rune(*description)) > DescriptionMaxLength {
		return NewValidationError("description", "must be at most 2000 characters")
	}
	if !IsSafeText(*description) {
		return NewValidationError("description", "contains forbidden characters")
	}
	return nil
}
