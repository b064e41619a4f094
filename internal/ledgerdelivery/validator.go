package ledgerdelivery

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var accountNumberRx = regexp.MustCompile(`^[A-Za-z0-9-]{1,34}$`)

// ValidAccountNumber validates whether the account number is well formed.
var ValidAccountNumber validator.Func = func(fl validator.FieldLevel) bool {
	if n, ok := fl.Field().Interface().(string); ok {
		return accountNumberRx.MatchString(n)
	}
	return false
}
