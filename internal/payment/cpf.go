package payment

import (
	"strings"

	"bistro-checkout/internal/model"
)

// NormalizeCPF strips punctuation from raw and validates the result as a
// CPF: 11 digits, not all equal, with both mod-11 check digits matching.
func NormalizeCPF(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == ' ':
			return -1
		default:
			return 'x'
		}
	}, raw)

	if !ValidCPF(digits) {
		return "", model.ErrInvalidCPF
	}
	return digits, nil
}

// ValidCPF validates an unformatted 11-digit CPF.
func ValidCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}

	var d [11]int
	allEqual := true
	for i := 0; i < 11; i++ {
		c := cpf[i]
		if c < '0' || c > '9' {
			return false
		}
		d[i] = int(c - '0')
		if d[i] != d[0] {
			allEqual = false
		}
	}
	if allEqual {
		return false
	}

	return checkDigit(d[:9]) == d[9] && checkDigit(d[:10]) == d[10]
}

// checkDigit computes the mod-11 check digit for the given prefix.
func checkDigit(prefix []int) int {
	weight := len(prefix) + 1
	sum := 0
	for _, v := range prefix {
		sum += v * weight
		weight--
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}
