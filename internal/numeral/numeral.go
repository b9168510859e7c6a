// Package numeral converts monetary amounts into Chinese uppercase
// financial numerals (大写金额) as written on cheques and gift ledgers.
//
// All functions are pure and never return errors: invalid input yields an
// empty string and amounts of 10^16 or more yield TooLarge.
package numeral

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// TooLarge is returned for amounts at or above 10^16.
const TooLarge = "金额过大"

// MaxValidAmount is the largest amount accepted by IsValidAmount.
var MaxValidAmount = decimal.RequireFromString("999999999999.99")

var (
	digits   = [10]string{"零", "壹", "贰", "叁", "肆", "伍", "陆", "柒", "捌", "玖"}
	units    = [4]string{"", "拾", "佰", "仟"}
	bigUnits = [4]string{"", "万", "亿", "万亿"}

	limit = decimal.New(1, 16)
)

const (
	zero     = "零"
	yuan     = "元"
	exact    = "整"
	jiaoUnit = "角"
	fenUnit  = "分"
)

// ToChinese converts a non-negative amount to its uppercase form.
//
//	ToChinese(0)       -> "零元整"
//	ToChinese(1.05)    -> "壹元零伍分"
//	ToChinese(1001)    -> "壹仟零壹元整"
//	ToChinese(-1)      -> ""
//	ToChinese(1e16)    -> "金额过大"
func ToChinese(amount float64) string {
	switch {
	case math.IsNaN(amount), amount < 0:
		return ""
	case math.IsInf(amount, 1):
		return TooLarge
	}
	return convert(decimal.NewFromFloat(amount))
}

// ToChineseString parses s as a decimal number and converts it. Surrounding
// whitespace is ignored; anything that does not parse yields "".
func ToChineseString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ""
	}
	return convert(d)
}

// ToChineseDecimal converts an already parsed decimal amount.
func ToChineseDecimal(d decimal.Decimal) string {
	return convert(d)
}

func convert(d decimal.Decimal) string {
	if d.IsNegative() {
		return ""
	}
	if d.GreaterThanOrEqual(limit) {
		return TooLarge
	}
	// Rounding to cents first lets 0.999 carry into the integer part
	// instead of producing a hundredth fen.
	d = d.Round(2)
	if d.GreaterThanOrEqual(limit) {
		return TooLarge
	}

	integer := d.Truncate(0)
	cents := d.Sub(integer).Shift(2).IntPart()
	n := integer.IntPart()

	var b strings.Builder
	if n == 0 {
		b.WriteString(zero)
	} else {
		b.WriteString(integerText(n))
	}
	b.WriteString(yuan)

	if cents == 0 {
		b.WriteString(exact)
		return b.String()
	}

	jiao, fen := cents/10, cents%10
	if jiao > 0 {
		b.WriteString(digits[jiao])
		b.WriteString(jiaoUnit)
	} else if n > 0 {
		b.WriteString(zero)
	}
	if fen > 0 {
		b.WriteString(digits[fen])
		b.WriteString(fenUnit)
	}
	return b.String()
}

// integerText expands n (0 < n < 10^16) four digits at a time, lowest
// group first. A group that is entirely zero contributes a single bridging
// 零 only when something has already been written below it.
func integerText(n int64) string {
	out := ""
	for group := 0; n > 0; group++ {
		seg := int(n % 10000)
		switch {
		case seg != 0:
			out = segmentText(seg) + bigUnits[group] + out
		case out != "" && !strings.HasPrefix(out, zero):
			out = zero + out
		}
		n /= 10000
	}
	out = collapseZeros(out)
	return strings.TrimSuffix(out, zero)
}

// segmentText expands 1..9999. Zeros between non-zero digits produce one
// 零; trailing zeros produce nothing.
func segmentText(n int) string {
	var b strings.Builder
	pending := false
	for place, div := 3, 1000; place >= 0; place, div = place-1, div/10 {
		d := n / div
		n %= div
		if d == 0 {
			if b.Len() > 0 {
				pending = true
			}
			continue
		}
		if pending {
			b.WriteString(zero)
			pending = false
		}
		b.WriteString(digits[d])
		b.WriteString(units[place])
	}
	return b.String()
}

func collapseZeros(s string) string {
	for strings.Contains(s, zero+zero) {
		s = strings.ReplaceAll(s, zero+zero, zero)
	}
	return s
}

// FormatAmount renders v with two decimals and thousands separators,
// e.g. 1234.56 -> "1,234.56". NaN and infinities render as "0.00".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return FormatDecimal(decimal.NewFromFloat(v))
}

// FormatDecimal is FormatAmount for decimal values.
func FormatDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// IsValidAmount reports whether s parses to an amount between 0 and
// MaxValidAmount inclusive.
func IsValidAmount(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.LessThanOrEqual(MaxValidAmount)
}
