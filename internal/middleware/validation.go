package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/veilchat/security-core/internal/model"
)

// ValidatePasscodeFormat rejects malformed codes before they ever reach
// the validator, so format errors cannot consume a lockout attempt.
func ValidatePasscodeFormat(code string) error {
	if len(code) < 4 || len(code) > 10 {
		return errors.New("passcode must be 4-10 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return errors.New("passcode must be 4-10 digits")
		}
	}
	return nil
}

// ValidateMessageText validates message text.
func ValidateMessageText(text string) error {
	if len(text) == 0 {
		return errors.New("text cannot be empty")
	}
	if len(text) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateFlavor validates a conversation flavor path parameter.
func ValidateFlavor(flavor string) (model.Flavor, error) {
	f := model.Flavor(flavor)
	if !f.Valid() {
		return "", errors.New("unknown flavor")
	}
	return f, nil
}

// ValidateRole validates a message role.
func ValidateRole(role string) (model.Role, error) {
	r := model.Role(role)
	if !r.Valid() {
		return "", errors.New("unknown role")
	}
	return r, nil
}

// ValidatePasscodeKind validates the credential kind selector.
func ValidatePasscodeKind(kind string) error {
	if kind != model.PasscodeKindReal && kind != model.PasscodeKindDuress {
		return errors.New("kind must be real or duress")
	}
	return nil
}
