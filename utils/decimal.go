package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ParseDecimalOrZero parses user-formatted numbers such as "1,250.50",
// "Rs. 1200", "₹ -300" or "1e3". Blank or unparsable input yields zero.
func ParseDecimalOrZero(value string) decimal.Decimal {
	d, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// maxDecimalExponent bounds exponent notation such as "1e3"; amounts are
// stored as decimal(20,4).
const maxDecimalExponent = 20

// ParseDecimal parses a plain or exponent-form number after dropping
// thousands separators. A leading currency prefix ("Rs.", "₹", "$") is
// tolerated; any other text is an error rather than a guess.
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return decimal.Zero, NewValidationError("empty decimal string")
	}
	d, err := strictDecimal(s)
	if err == nil {
		return d, nil
	}
	rest := trimCurrencyPrefix(s)
	if rest == s {
		return decimal.Zero, err
	}
	return strictDecimal(rest)
}

func strictDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("invalid decimal value: " + s)
	}
	if exp := d.Exponent(); exp > maxDecimalExponent || exp < -maxDecimalExponent {
		return decimal.Zero, NewValidationError("decimal value out of range: " + s)
	}
	return d, nil
}

// trimCurrencyPrefix removes letters, '₹' and '$' at the start, then the dots
// and spaces that follow them. Without such a prefix s is returned unchanged.
func trimCurrencyPrefix(s string) string {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsLetter(r) && r != '₹' && r != '$' {
			break
		}
		i += size
	}
	if i == 0 {
		return s
	}
	return strings.TrimLeft(s[i:], ". ")
}

// FlexString accepts a JSON number or a JSON string. Form fields arrive as
// strings while JSON clients send numbers; both end up as text here.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		*f = ""
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

func (f FlexString) Decimal() decimal.Decimal {
	return ParseDecimalOrZero(string(f))
}

// DecimalPtr returns nil for a nil receiver so patches can tell "absent" from "0".
func (f *FlexString) DecimalPtr() *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := f.Decimal()
	return &d
}

func DecimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
