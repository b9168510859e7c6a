package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"giftbook/internal/core"
	"giftbook/internal/search"
)

// HeaderUpdatedBy names the operator recorded in history for writes.
const HeaderUpdatedBy = "X-Updated-By"

const maxBatchSize = 1000

// amountField accepts an amount as a JSON number or a string such as
// "1,200.50".
type amountField struct {
	raw string
	set bool
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = amountField{}
		return nil
	}
	a.set = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.raw = s
		return nil
	}
	a.raw = string(b)
	return nil
}

// recordRequest is the body of record create and update calls.
type recordRequest struct {
	GuestName       string      `json:"guestName"`
	Amount          amountField `json:"amount"`
	ItemDescription string      `json:"itemDescription"`
	PaymentType     *int        `json:"paymentType"`
	Remark          string      `json:"remark"`
}

type batchRequest struct {
	Records []recordRequest `json:"records"`
}

// toInput converts the request and reports a missing or malformed amount
// alongside any other field problem.
func (req recordRequest) toInput() (core.RecordInput, error) {
	in := core.RecordInput{
		GuestName:       sanitizeInput(req.GuestName),
		ItemDescription: sanitizeInput(req.ItemDescription),
		Remark:          sanitizeInput(req.Remark),
		PaymentType:     core.PaymentCash,
	}
	if req.PaymentType != nil {
		in.PaymentType = core.PaymentType(*req.PaymentType)
	}
	in = in.Normalize()

	amountMsg := ""
	if !req.Amount.set || strings.TrimSpace(req.Amount.raw) == "" {
		amountMsg = "This field is required"
	} else if m, err := core.ParseAmount(req.Amount.raw); err != nil {
		amountMsg = "Must be between 0 and 99999999.99"
	} else {
		in.Amount = m
	}
	if amountMsg == "" {
		return in, nil
	}

	verr := &core.ValidationError{Fields: map[string]string{}, Err: core.ErrInvalidAmount}
	var other *core.ValidationError
	if errors.As(in.Validate(), &other) {
		for k, v := range other.Fields {
			verr.Fields[k] = v
		}
	}
	verr.Fields["amount"] = amountMsg
	return in, verr
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return newBadRequest(ErrMsgInvalidRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return newBadRequest(ErrMsgInvalidRequest, errors.New("trailing data after JSON body"))
	}
	return nil
}

func recordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, newBadRequest(ErrMsgInvalidID, err)
	}
	return id, nil
}

// queryInt returns the named integer parameter, or def when it is absent.
func queryInt(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, newBadRequest(fmt.Sprintf("Invalid %s parameter", name), err)
	}
	return n, nil
}

func queryBool(q url.Values, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(q.Get(name)))
	return b
}

// parseCriteria reads q, min, max, payment, start and end.
func parseCriteria(q url.Values) (search.Criteria, error) {
	c := search.Criteria{Keyword: q.Get("q")}

	for name, dst := range map[string]**core.Money{"min": &c.MinAmount, "max": &c.MaxAmount} {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		m, err := core.ParseAmount(v)
		if err != nil {
			return search.Criteria{}, newBadRequest(fmt.Sprintf("Invalid %s parameter", name), err)
		}
		*dst = &m
	}

	if v := strings.TrimSpace(q.Get("payment")); v != "" {
		n, err := strconv.Atoi(v)
		pt := core.PaymentType(n)
		if err != nil || !pt.Valid() {
			return search.Criteria{}, newBadRequest("Invalid payment parameter", err)
		}
		c.PaymentType = &pt
	}

	var err error
	if c.StartDate, err = queryDate(q, "start"); err != nil {
		return search.Criteria{}, err
	}
	if c.EndDate, err = queryDate(q, "end"); err != nil {
		return search.Criteria{}, err
	}
	return c, nil
}

func queryDate(q url.Values, name string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, newBadRequest(ErrMsgInvalidDate, err)
	}
	return t, nil
}

func updatedBy(r *http.Request) string {
	return sanitizeInput(r.Header.Get(HeaderUpdatedBy))
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
