package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilchat/security-core/internal/model"
)

func TestValidatePasscodeFormat(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"minimum length", "1234", false},
		{"maximum length", "1234567890", false},
		{"too short", "123", true},
		{"too long", "12345678901", true},
		{"empty", "", true},
		{"letters", "12ab", true},
		{"spaces", "12 4", true},
		{"unicode digits", "１２３４", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasscodeFormat(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessageText(t *testing.T) {
	assert.NoError(t, ValidateMessageText("hello"))
	assert.Error(t, ValidateMessageText(""))
	assert.Error(t, ValidateMessageText(strings.Repeat("a", 100001)))
	assert.Error(t, ValidateMessageText("\xff\xfe"))
}

func TestValidateFlavor(t *testing.T) {
	for _, name := range []string{"vault", "journal", "casual"} {
		f, err := ValidateFlavor(name)
		assert.NoError(t, err)
		assert.Equal(t, model.Flavor(name), f)
	}

	_, err := ValidateFlavor("secret")
	assert.Error(t, err)
	_, err = ValidateFlavor("")
	assert.Error(t, err)
}

func TestValidateRole(t *testing.T) {
	for _, name := range []string{"user", "assistant", "system"} {
		r, err := ValidateRole(name)
		assert.NoError(t, err)
		assert.Equal(t, model.Role(name), r)
	}

	_, err := ValidateRole("moderator")
	assert.Error(t, err)
}

func TestValidatePasscodeKind(t *testing.T) {
	assert.NoError(t, ValidatePasscodeKind("real"))
	assert.NoError(t, ValidatePasscodeKind("duress"))
	assert.Error(t, ValidatePasscodeKind("backup"))
	assert.Error(t, ValidatePasscodeKind(""))
}
