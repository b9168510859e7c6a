package http

import (
	"time"

	"giftbook/internal/core"
)

type recordView struct {
	ID              int64  `json:"id"`
	GuestName       string `json:"guestName"`
	Amount          string `json:"amount"`
	AmountDisplay   string `json:"amountDisplay"`
	AmountChinese   string `json:"amountChinese"`
	ItemDescription string `json:"itemDescription"`
	PaymentType     int    `json:"paymentType"`
	PaymentLabel    string `json:"paymentLabel"`
	Remark          string `json:"remark"`
	CreateTime      string `json:"createTime"`
	UpdateTime      string `json:"updateTime"`
}

type valuesView struct {
	GuestName       string `json:"guestName"`
	Amount          string `json:"amount"`
	ItemDescription string `json:"itemDescription"`
	PaymentType     int    `json:"paymentType"`
	PaymentLabel    string `json:"paymentLabel"`
	Remark          string `json:"remark"`
}

type historyView struct {
	ID         int64       `json:"id"`
	RecordID   int64       `json:"recordId"`
	Operation  string      `json:"operation"`
	Old        valuesView  `json:"old"`
	New        *valuesView `json:"new"`
	UpdatedBy  string      `json:"updatedBy"`
	UpdateTime string      `json:"updateTime"`
	ChangeDesc string      `json:"changeDesc"`
}

type pageView struct {
	Records    []recordView `json:"records"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

type statisticsView struct {
	TotalCount         int    `json:"totalCount"`
	TotalAmount        string `json:"totalAmount"`
	TotalAmountChinese string `json:"totalAmountChinese"`
	CashAmount         string `json:"cashAmount"`
	WeChatAmount       string `json:"wechatAmount"`
	InternalAmount     string `json:"internalAmount"`
	AverageAmount      string `json:"averageAmount"`
	MaxAmount          string `json:"maxAmount"`
	MinAmount          string `json:"minAmount"`
}

// views formats timestamps in the ledger's display time zone.
type views struct {
	loc *time.Location
}

func amountString(m core.Money) string {
	return m.Yuan().StringFixed(2)
}

func (v views) timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(v.loc).Format(time.DateTime)
}

func (v views) record(r core.Record) recordView {
	chinese := r.AmountChinese
	if chinese == "" {
		chinese = r.Amount.Chinese()
	}
	return recordView{
		ID:              r.ID,
		GuestName:       r.GuestName,
		Amount:          amountString(r.Amount),
		AmountDisplay:   r.Amount.String(),
		AmountChinese:   chinese,
		ItemDescription: r.ItemDescription,
		PaymentType:     int(r.PaymentType),
		PaymentLabel:    r.PaymentType.Label(),
		Remark:          r.Remark,
		CreateTime:      v.timestamp(r.CreateTime),
		UpdateTime:      v.timestamp(r.UpdateTime),
	}
}

func (v views) records(rs []core.Record) []recordView {
	out := make([]recordView, 0, len(rs))
	for _, r := range rs {
		out = append(out, v.record(r))
	}
	return out
}

func (v views) page(p core.Page[core.Record]) pageView {
	return pageView{
		Records:    v.records(p.Items),
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

func valuesOf(rv core.RecordValues) valuesView {
	return valuesView{
		GuestName:       rv.GuestName,
		Amount:          amountString(rv.Amount),
		ItemDescription: rv.ItemDescription,
		PaymentType:     int(rv.PaymentType),
		PaymentLabel:    rv.PaymentType.Label(),
		Remark:          rv.Remark,
	}
}

func (v views) history(hs []core.RecordHistory) []historyView {
	out := make([]historyView, 0, len(hs))
	for _, h := range hs {
		hv := historyView{
			ID:         h.ID,
			RecordID:   h.RecordID,
			Operation:  string(h.Operation),
			Old:        valuesOf(h.Old),
			UpdatedBy:  h.UpdatedBy,
			UpdateTime: v.timestamp(h.UpdateTime),
			ChangeDesc: h.ChangeDesc,
		}
		if h.New != nil {
			nv := valuesOf(*h.New)
			hv.New = &nv
		}
		out = append(out, hv)
	}
	return out
}

func statistics(s core.Statistics) statisticsView {
	return statisticsView{
		TotalCount:         s.TotalCount,
		TotalAmount:        amountString(s.TotalAmount),
		TotalAmountChinese: s.TotalAmount.Chinese(),
		CashAmount:         amountString(s.CashAmount),
		WeChatAmount:       amountString(s.WeChatAmount),
		InternalAmount:     amountString(s.InternalAmount),
		AverageAmount:      amountString(s.Average()),
		MaxAmount:          amountString(s.Max),
		MinAmount:          amountString(s.Min),
	}
}
