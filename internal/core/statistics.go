package core

// Statistics summarizes the live (not deleted) records of the ledger.
type Statistics struct {
	TotalCount     int
	TotalAmount    Money
	CashAmount     Money
	WeChatAmount   Money
	InternalAmount Money
	Max            Money
	Min            Money
}

// Average returns the mean amount rounded half-up to the fen, or zero for
// an empty ledger.
func (s Statistics) Average() Money {
	if s.TotalCount == 0 {
		return Money{}
	}
	n := int64(s.TotalCount)
	return Money{Cents: (s.TotalAmount.Cents*2 + n) / (2 * n)}
}

// Summarize computes statistics over records in memory. Deleted records
// are skipped.
func Summarize(records []Record) Statistics {
	var s Statistics
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		if s.TotalCount == 0 || r.Amount.Cents > s.Max.Cents {
			s.Max = r.Amount
		}
		if s.TotalCount == 0 || r.Amount.Cents < s.Min.Cents {
			s.Min = r.Amount
		}
		s.TotalCount++
		s.TotalAmount = s.TotalAmount.Add(r.Amount)
		switch r.PaymentType {
		case PaymentCash:
			s.CashAmount = s.CashAmount.Add(r.Amount)
		case PaymentWeChat:
			s.WeChatAmount = s.WeChatAmount.Add(r.Amount)
		case PaymentInternal:
			s.InternalAmount = s.InternalAmount.Add(r.Amount)
		}
	}
	return s
}
