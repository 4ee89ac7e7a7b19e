package chain

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// accountNamePattern accepts a-z, 1-5 and '.', not ending in '.'. Length is
// left to the directory, which answers unknown names with not found.
var accountNamePattern = regexp.MustCompile(`^[a-z1-5.]*[a-z1-5]$`)

// IsValidAccountName reports whether name only uses the account name
// alphabet.
func IsValidAccountName(name string) bool {
	return accountNamePattern.MatchString(name)
}

func newValidator() (*validator.Validate, error) {
	validate := validator.New()
	if err := validate.RegisterValidation("eosname", func(fl validator.FieldLevel) bool {
		return IsValidAccountName(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return validate, nil
}

type accountQuery struct {
	Name string `validate:"required,eosname"`
}
