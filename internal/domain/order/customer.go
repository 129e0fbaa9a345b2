package order

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japabox/storefront/internal/domain/shared"
)

// DigitsOnly strips every non-digit rune from s
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCPF returns the 11 digits of a CPF
func NormalizeCPF(cpf string) (string, error) {
	d := DigitsOnly(cpf)
	if len(d) != 11 {
		return "", shared.NewDomainError("INVALID_CPF", "CPF deve ter 11 dígitos")
	}
	return d, nil
}

// NormalizePhone returns the 10 or 11 digits of a Brazilian phone number
func NormalizePhone(phone string) (string, error) {
	d := DigitsOnly(phone)
	if len(d) < 10 || len(d) > 11 {
		return "", shared.NewDomainError("INVALID_PHONE", "Telefone deve ter DDD e 8 ou 9 dígitos")
	}
	return d, nil
}

// NormalizeCustomer trims and validates customer fields
func NormalizeCustomer(c Customer) (Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, shared.NewDomainError("INVALID_NAME", "Informe seu nome")
	}
	if utf8.RuneCountInString(c.Name) > 200 {
		return c, shared.NewDomainError("INVALID_NAME", "Nome muito longo")
	}
	cpf, err := NormalizeCPF(c.CPF)
	if err != nil {
		return c, err
	}
	c.CPF = cpf
	phone, err := NormalizePhone(c.Phone)
	if err != nil {
		return c, err
	}
	c.Phone = phone
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return c, shared.NewDomainError("INVALID_EMAIL", "E-mail inválido")
		}
	}
	return c, nil
}
