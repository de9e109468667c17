package registrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritrise/yogacamp/internal/models"
)

func TestValidate_AcceptsWellFormedInput(t *testing.T) {
	reg, errs := Validate(models.Input{Name: "  Ana Lee ", Email: " Ana@Example.com "}, DefaultPolicy())
	require.Empty(t, errs)

	assert.Equal(t, "Ana Lee", reg.Name)
	assert.Equal(t, "ana@example.com", reg.Email)
	assert.Equal(t, "ana@example.com", reg.ContactKey)
	assert.Empty(t, reg.Phone)
}

func TestValidate_ShortNameAndBadEmail(t *testing.T) {
	_, errs := Validate(models.Input{Name: "A", Email: "bad-email"}, DefaultPolicy())

	require.Len(t, errs, 2)
	assert.Equal(t, "Name must be at least 2 characters", errs["name"])
	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Contains(t, errs.Error(), "email: ")
}

func TestValidate_Name(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"blank", "   ", "Name is required"},
		{"one char after trim", " A ", "Name must be at least 2 characters"},
		{"two chars", "Al", ""},
		{"multibyte", "Ré", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Validate(models.Input{Name: tt.input, Email: "a@b.co"}, DefaultPolicy())
			assert.Equal(t, tt.wantMsg, errs["name"])
		})
	}
}

func TestValidate_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain", "ana@example.com", false},
		{"subdomain", "ana@mail.example.co.in", false},
		{"missing at", "ana.example.com", true},
		{"missing tld", "ana@example", true},
		{"whitespace inside", "ana lee@example.com", true},
		{"double at", "ana@@example.com", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Validate(models.Input{Name: "Ana", Email: tt.email}, DefaultPolicy())
			_, has := errs["email"]
			assert.Equal(t, tt.wantErr, has, "email %q", tt.email)
		})
	}
}

func TestValidate_PhoneBoundary(t *testing.T) {
	p := Policy{ContactField: models.ContactPhone, RequirePhone: true, PhoneDigits: 10}

	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"nine digits", "987654321", true},
		{"ten digits", "9876543210", false},
		{"eleven digits", "98765432101", true},
		{"letters", "98765abcde", true},
		{"plus prefix", "+987654321", true},
		{"blank", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, errs := Validate(models.Input{Name: "Ana", Phone: tt.phone}, p)
			if tt.wantErr {
				assert.Contains(t, errs, "phone")
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.phone, reg.ContactKey)
		})
	}
}

func TestValidate_OptionalPhoneStillChecked(t *testing.T) {
	_, errs := Validate(models.Input{Name: "Ana", Email: "ana@example.com", Phone: "123"}, DefaultPolicy())
	assert.Equal(t, "Phone number must be exactly 10 digits", errs["phone"])

	_, errs = Validate(models.Input{Name: "Ana", Email: "ana@example.com"}, DefaultPolicy())
	assert.Empty(t, errs)
}

func TestValidate_PhoneKeyedPolicyDoesNotNeedEmail(t *testing.T) {
	p := Policy{ContactField: models.ContactPhone, PhoneDigits: 10}

	reg, errs := Validate(models.Input{Name: "Ravi", Phone: "9876543210"}, p)
	require.Empty(t, errs)
	assert.Empty(t, reg.Email)
	assert.Equal(t, "9876543210", reg.ContactKey)

	_, errs = Validate(models.Input{Name: "Ravi", Email: "ravi@example.com"}, p)
	assert.Equal(t, "Phone number is required", errs["phone"])
}
