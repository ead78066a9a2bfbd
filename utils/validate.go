package utils

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("web_url", validateWebURL)
	return v
}

// validateWebURL accepts absolute http and https URLs with a host.
func validateWebURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// IsWebURL reports whether raw is an http(s) URL safe to hand to a browser as an image source.
func IsWebURL(raw string) bool {
	return validate.Var(raw, "web_url") == nil
}
