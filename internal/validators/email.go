package validators

import (
	"net"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// IsEmail checks the address syntax only.
func IsEmail(email string) bool {
	return instance().Var(strings.TrimSpace(email), "required,email") == nil
}

// IsEmailDomainValid resolves the domain part (MX first, then A/AAAA).
func IsEmailDomainValid(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}
