package organization

import (
	"strings"

	"github.com/erp/console/internal/domain/shared"
)

// ErrInvalidTaxID is returned for a malformed CNPJ
var ErrInvalidTaxID = shared.NewDomainError("INVALID_TAX_ID", "Tax ID must be a valid CNPJ")

// NormalizeCNPJ strips punctuation and verifies both check digits
func NormalizeCNPJ(raw string) (string, error) {
	digits := make([]byte, 0, 14)
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch >= '0' && ch <= '9':
			digits = append(digits, ch)
		case ch == '.' || ch == '/' || ch == '-' || ch == ' ':
		default:
			return "", ErrInvalidTaxID
		}
	}
	if len(digits) != 14 {
		return "", ErrInvalidTaxID
	}
	if strings.Count(string(digits), string(digits[0])) == 14 {
		return "", ErrInvalidTaxID
	}
	if cnpjDigit(digits[:12]) != digits[12] || cnpjDigit(digits[:13]) != digits[13] {
		return "", ErrInvalidTaxID
	}
	return string(digits), nil
}

// FormatCNPJ renders 14 digits as 00.000.000/0000-00
func FormatCNPJ(digits string) string {
	if len(digits) != 14 {
		return digits
	}
	return digits[:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
}

func cnpjDigit(body []byte) byte {
	weight := len(body) - 7
	sum := 0
	for _, d := range body {
		sum += int(d-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}
