package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

const maxBodyBytes = 1 << 20

const msgPasswordsDoNotMatch = "Passwords do not match!"

// passwordLength limits passwords to what bcrypt can hash. ozzo's Length counts runes, not bytes.
var passwordLength = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) > users.MaxPasswordBytes {
		return errors.Errorf("must be at most %d bytes", users.MaxPasswordBytes)
	}
	return nil
})

// emailFormat checks the address syntax only, without any DNS lookup.
var emailFormat = validation.NewStringRule(govalidator.IsEmail, "must be a valid email address")

// SignUpPayload is the sign-up request body
type SignUpPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (p SignUpPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required),
		validation.Field(&p.LastName, validation.Required),
		validation.Field(&p.Age, validation.Required, validation.Min(12), validation.Max(100)),
		validation.Field(&p.Email, validation.Required, emailFormat),
		validation.Field(&p.Password, validation.Required, passwordLength),
	)
}

// SignInPayload is the sign-in request body
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p SignInPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, emailFormat),
		validation.Field(&p.Password, validation.Required),
	)
}

type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (p ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, emailFormat),
	)
}

type ResetPasswordPayload struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (p ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Password, validation.Required, passwordLength),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
	)
}

// ChangePasswordPayload leaves OldPassword optional so a blank one is rejected as a wrong password.
type ChangePasswordPayload struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (p ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.NewPassword, validation.Required, passwordLength),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.NewPassword)),
		),
	)
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msgPasswordsDoNotMatch)
		}
		return nil
	}
}

// decodePayload reads a JSON body into payload and runs its validation rules.
func decodePayload(w http.ResponseWriter, r *http.Request, payload any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "Invalid request body", err)
	}

	if v, ok := payload.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return apperrors.Wrap(apperrors.KindValidation, validationMessage(err), err)
		}
	}
	return nil
}

// validationMessage flattens ozzo field errors into one client message.
func validationMessage(err error) string {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	return strings.TrimSuffix(fieldErrs.Error(), ".")
}
