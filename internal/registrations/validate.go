package registrations

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spiritrise/yogacamp/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return s != ""
	})
	return v
}

// Policy describes which fields a deployment requires and which one is the uniqueness key.
type Policy struct {
	ContactField models.ContactField
	RequireEmail bool
	RequirePhone bool
	PhoneDigits  int
}

// DefaultPolicy keys registrations by email and accepts an optional 10-digit phone.
func DefaultPolicy() Policy {
	return Policy{ContactField: models.ContactEmail, RequireEmail: true, PhoneDigits: 10}
}

func (p Policy) emailRequired() bool { return p.RequireEmail || p.ContactField == models.ContactEmail }
func (p Policy) phoneRequired() bool { return p.RequirePhone || p.ContactField == models.ContactPhone }

// FieldErrors maps a request field to a user-facing message. Empty means valid.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid registration: " + strings.Join(parts, "; ")
}

// Validate trims and checks a submission against the policy. On success it returns
// an unsaved registration with its contact key set.
func Validate(in models.Input, p Policy) (models.Registration, FieldErrors) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	digits := p.PhoneDigits
	if digits <= 0 {
		digits = 10
	}

	errs := FieldErrors{}
	if err := validate.Var(name, "required,min=2"); err != nil {
		errs["name"] = message(err, map[string]string{
			"required": "Name is required",
			"min":      "Name must be at least 2 characters",
		})
	}

	emailTag := "omitempty,contact_email"
	if p.emailRequired() {
		emailTag = "required,contact_email"
	}
	if err := validate.Var(email, emailTag); err != nil {
		errs["email"] = message(err, map[string]string{
			"required":      "Email is required",
			"contact_email": "Please enter a valid email address",
		})
	}

	phoneTag := fmt.Sprintf("omitempty,digits,len=%d", digits)
	if p.phoneRequired() {
		phoneTag = fmt.Sprintf("required,digits,len=%d", digits)
	}
	if err := validate.Var(phone, phoneTag); err != nil {
		lengthMsg := fmt.Sprintf("Phone number must be exactly %d digits", digits)
		errs["phone"] = message(err, map[string]string{
			"required": "Phone number is required",
			"digits":   lengthMsg,
			"len":      lengthMsg,
		})
	}

	if len(errs) > 0 {
		return models.Registration{}, errs
	}

	reg := models.Registration{Name: name, Email: email, Phone: phone}
	reg.ContactKey = ContactKey(reg, p.ContactField)
	return reg, nil
}

// ContactKey returns the uniqueness value of a validated registration.
func ContactKey(reg models.Registration, field models.ContactField) string {
	if field == models.ContactPhone {
		return reg.Phone
	}
	return reg.Email
}

func message(err error, byTag map[string]string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := byTag[verrs[0].Tag()]; ok {
			return msg
		}
	}
	return "Invalid value"
}
