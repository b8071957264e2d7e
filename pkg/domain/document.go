package domain

import "strings"

// NormalizeDocument strips formatting characters from a CPF/CNPJ.
func NormalizeDocument(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateDocument checks a CPF (11 digits) or CNPJ (14 digits) using the
// Receita Federal check-digit algorithm. Returns ErrInvalidDocument on
// any malformed input.
func ValidateDocument(doc string) error {
	digits := NormalizeDocument(doc)
	switch len(digits) {
	case 11:
		if validCPF(digits) {
			return nil
		}
	case 14:
		if validCNPJ(digits) {
			return nil
		}
	}
	return ErrInvalidDocument
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func validCPF(cpf string) bool {
	if allSame(cpf) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cpf[i]-'0') * (n + 1 - i)
		}
		d := (sum * 10) % 11
		if d == 10 {
			d = 0
		}
		if d != int(cpf[n]-'0') {
			return false
		}
	}
	return true
}

func validCNPJ(cnpj string) bool {
	if allSame(cnpj) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for _, n := range []int{12, 13} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cnpj[i]-'0') * weights[len(weights)-n+i]
		}
		d := sum % 11
		if d < 2 {
			d = 0
		} else {
			d = 11 - d
		}
		if d != int(cnpj[n]-'0') {
			return false
		}
	}
	return true
}
