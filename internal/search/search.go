// Package search turns free-text ledger queries into SQL conditions and
// in-memory filters.
//
// A query is split into terms that must all match. Purely numeric terms
// match a guest name or remark containing the digits, or a record whose
// amount is exactly that many yuan. Other terms match the guest name,
// remark, item description or uppercase amount text.
package search

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"giftbook/internal/core"
)

// TimeLayout is the layout timestamps are stored with.
const TimeLayout = "2006-01-02 15:04:05"

// Criteria is an advanced query. Zero values disable a filter.
type Criteria struct {
	Keyword     string
	MinAmount   *core.Money
	MaxAmount   *core.Money
	PaymentType *core.PaymentType
	StartDate   time.Time // inclusive
	EndDate     time.Time // inclusive, whole day
}

// Condition is a SQL WHERE fragment with its positional arguments.
type Condition struct {
	Where string
	Args  []any
}

// Normalize folds full-width ASCII to half-width, trims the keyword and
// collapses runs of whitespace into single spaces.
func Normalize(keyword string) string {
	keyword = width.Narrow.String(keyword)
	return strings.Join(strings.Fields(keyword), " ")
}

// SplitTerms splits a normalized keyword on spaces. Consecutive single
// Chinese characters are merged back into one term so that "张 三" still
// finds "张三".
func SplitTerms(keyword string) []string {
	var terms []string
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			terms = append(terms, pending.String())
			pending.Reset()
		}
	}
	for _, part := range strings.Fields(keyword) {
		if utf8.RuneCountInString(part) == 1 && isHan(part) {
			pending.WriteString(part)
			continue
		}
		flush()
		terms = append(terms, part)
	}
	flush()
	return terms
}

// Terms normalizes and splits a keyword.
func Terms(keyword string) []string {
	return SplitTerms(Normalize(keyword))
}

// BuildCondition builds the WHERE fragment for a plain keyword search.
// Deleted records are always excluded.
func BuildCondition(keyword string) Condition {
	return Build(Criteria{Keyword: keyword})
}

// Build builds the WHERE fragment for c. Column names follow the records
// table.
func Build(c Criteria) Condition {
	var parts []string
	var args []any

	for _, term := range Terms(c.Keyword) {
		like := "%" + escapeLike(term) + "%"
		if isDigits(term) {
			parts = append(parts, `(guest_name LIKE ? ESCAPE '\' OR amount_cents = ? OR remark LIKE ? ESCAPE '\')`)
			args = append(args, like, yuanToCents(term), like)
			continue
		}
		parts = append(parts, `(guest_name LIKE ? ESCAPE '\' OR remark LIKE ? ESCAPE '\' OR item_description LIKE ? ESCAPE '\' OR amount_chinese LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	if c.MinAmount != nil {
		parts = append(parts, "amount_cents >= ?")
		args = append(args, c.MinAmount.Cents)
	}
	if c.MaxAmount != nil {
		parts = append(parts, "amount_cents <= ?")
		args = append(args, c.MaxAmount.Cents)
	}
	if c.PaymentType != nil {
		parts = append(parts, "payment_type = ?")
		args = append(args, int(*c.PaymentType))
	}
	if !c.StartDate.IsZero() {
		parts = append(parts, "create_time >= ?")
		args = append(args, dayStart(c.StartDate).Format(TimeLayout))
	}
	if !c.EndDate.IsZero() {
		parts = append(parts, "create_time < ?")
		args = append(args, dayStart(c.EndDate).AddDate(0, 0, 1).Format(TimeLayout))
	}

	parts = append(parts, "is_deleted = 0")
	return Condition{Where: strings.Join(parts, " AND "), Args: args}
}

// Match reports whether r satisfies c, mirroring Build for records held in
// memory.
func Match(r core.Record, c Criteria) bool {
	if r.IsDeleted {
		return false
	}
	for _, term := range Terms(c.Keyword) {
		if !matchTerm(r, term) {
			return false
		}
	}
	if c.MinAmount != nil && r.Amount.Cents < c.MinAmount.Cents {
		return false
	}
	if c.MaxAmount != nil && r.Amount.Cents > c.MaxAmount.Cents {
		return false
	}
	if c.PaymentType != nil && r.PaymentType != *c.PaymentType {
		return false
	}
	created := r.CreateTime.UTC()
	if !c.StartDate.IsZero() && created.Before(dayStart(c.StartDate)) {
		return false
	}
	if !c.EndDate.IsZero() && !created.Before(dayStart(c.EndDate).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Filter returns the records matching c, preserving order.
func Filter(records []core.Record, c Criteria) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if Match(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func matchTerm(r core.Record, term string) bool {
	lower := strings.ToLower(term)
	contains := func(field string) bool {
		return strings.Contains(strings.ToLower(field), lower)
	}
	if isDigits(term) {
		return contains(r.GuestName) || contains(r.Remark) || r.Amount.Cents == yuanToCents(term)
	}
	return contains(r.GuestName) || contains(r.Remark) || contains(r.ItemDescription) || contains(r.AmountChinese)
}

func isHan(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.Is(unicode.Han, r)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// yuanToCents converts a digit string to cents, or -1 when it cannot be a
// stored amount.
func yuanToCents(digits string) int64 {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > core.MaxAmountCents/100 {
		return -1
	}
	return n * 100
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
