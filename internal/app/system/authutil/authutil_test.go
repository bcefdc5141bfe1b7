package authutil

import (
	"strings"
	"testing"
)

func TestIsValidEmail_Valid(t *testing.T) {
	for _, email := range []string{
		"test@example.com",
		"user@domain.org",
		"name.surname@company.co.uk",
		"a@b.co",
	} {
		if !IsValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
}

func TestIsValidEmail_Invalid(t *testing.T) {
	for _, email := range []string{
		"",
		"testexample.com",
		"test@@example.com",
		"@example.com",
		"test@example",
		"test@example.",
		"test@.com",
		"te st@example.com",
	} {
		if IsValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	for _, pw := range []string{"secure123", "MyP@ssw0rd", "abcdefgh"} {
		if err := ValidatePassword(pw); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", pw, err)
		}
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	for _, pw := range []string{"", "a", "abcdefg"} {
		if err := ValidatePassword(pw); err != ErrPasswordTooShort {
			t.Errorf("expected ErrPasswordTooShort for %q, got %v", pw, err)
		}
	}
}

func TestValidatePassword_Length(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("a", 129)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 128)); err != nil {
		t.Errorf("expected password at max length to be valid, got %v", err)
	}
}

func TestValidatePassword_CommonCaseInsensitive(t *testing.T) {
	for _, pw := range []string{"password", "PASSWORD", "Password1", "iloveyou"} {
		if err := ValidatePassword(pw); err != ErrPasswordCommon {
			t.Errorf("expected ErrPasswordCommon for %q, got %v", pw, err)
		}
	}
}

func TestValidateNewPassword_Mismatch(t *testing.T) {
	if err := ValidateNewPassword("secure123", "secure124"); err != ErrPasswordMismatch {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := ValidateNewPassword("short", "short"); err != ErrPasswordTooShort {
		t.Errorf("length should be checked before the confirmation, got %v", err)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "SecurePassword123" {
		t.Fatal("hash should not equal the password")
	}
	if !CheckPassword("SecurePassword123", hash) {
		t.Error("expected the password to match its hash")
	}
	if CheckPassword("WrongPassword", hash) {
		t.Error("expected a wrong password not to match")
	}
	if CheckPassword("anything", "") {
		t.Error("an empty hash must never match")
	}
}
