package reconcile

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookshop/internal/httpx"
)

// ErrInvalidISBN marks a query that was never sent to the lookup service.
var ErrInvalidISBN = errors.New("invalid ISBN")

var (
	isbn10 = regexp.MustCompile(`^\d{9}[\dXx]$`)
	isbn13 = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	httpx.RegisterValidation("isbn", func(fl validator.FieldLevel) bool {
		return ValidISBN(fl.Field().String())
	}, "%s must be a valid ISBN (10 or 13 digits)")
}

// ValidISBN reports whether s has the shape of an ISBN-10 or ISBN-13 once
// hyphens and spaces are removed. Check digits are left to the lookup service.
func ValidISBN(s string) bool {
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	switch len(s) {
	case 10:
		return isbn10.MatchString(s)
	case 13:
		return isbn13.MatchString(s)
	}
	return false
}
