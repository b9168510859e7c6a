package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"giftbook/internal/numeral"
)

type amountView struct {
	Value     string `json:"value"`
	Chinese   string `json:"chinese"`
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
}

type lunarView struct {
	Date       string `json:"date"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	IsLeap     bool   `json:"isLeap"`
	MonthName  string `json:"monthName"`
	DayName    string `json:"dayName"`
	StemBranch string `json:"stemBranch"`
	Zodiac     string `json:"zodiac"`
	Text       string `json:"text"`
}

// handleConvertAmount converts ?value= to uppercase numerals. Amounts above
// the ledger limit still convert but are reported as not valid.
func (s *Server) handleConvertAmount(w http.ResponseWriter, r *http.Request) {
	value := strings.ReplaceAll(strings.TrimSpace(r.URL.Query().Get("value")), ",", "")
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		respondMessage(w, http.StatusUnprocessableEntity, ErrMsgInvalidAmount)
		return
	}
	respondOK(w, amountView{
		Value:     value,
		Chinese:   numeral.ToChineseDecimal(d),
		Formatted: numeral.FormatDecimal(d),
		Valid:     numeral.IsValidAmount(value),
	})
}

// handleLunar converts ?date=YYYY-MM-DD.
func (s *Server) handleLunar(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r.URL.Query(), "date")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if day.IsZero() {
		respondError(w, r, newBadRequest(ErrMsgInvalidDate, nil))
		return
	}

	d, err := s.calendar.SolarToLunar(day)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, lunarView{
		Date:       day.Format(time.DateOnly),
		Year:       d.Year,
		Month:      d.Month,
		Day:        d.Day,
		IsLeap:     d.IsLeap,
		MonthName:  d.MonthName(),
		DayName:    d.DayName(),
		StemBranch: d.StemBranch(),
		Zodiac:     d.Zodiac(),
		Text:       d.String(),
	})
}

// handleLunarToday renders today's date, in the ledger time zone, the way
// the ledger header shows it.
func (s *Server) handleLunarToday(w http.ResponseWriter, r *http.Request) {
	disp, err := s.calendar.Display(s.now().In(s.views.loc))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, disp)
}
