package render

import (
	"fmt"

	"giftbook/internal/core"
)

// Fixed texts printed in the book.
const (
	DefaultTitle   = "礼金簿"
	StatsTitle     = "礼金簿统计"
	BackCoverText1 = "做一款好用的电子礼金簿"
	BackCoverText2 = "微信公众号：说自"
)

// Options control the printed book.
type Options struct {
	Title      string
	ExportDate string
	Theme      Theme
	Geometry   *Geometry
}

// Book is a fully positioned gift book ready to render.
type Book struct {
	Title      string
	ExportDate string
	Theme      Theme
	Geometry   Geometry
	Pages      []ContentPage
	Stats      StatisticsPage
	Back       [2]string
}

// ContentPage holds up to ColumnsPerPage record columns and its footer.
type ContentPage struct {
	Number       int
	TotalPages   int
	TotalRecords int
	Subtotal     core.Money
	Columns      []Column
}

// RecordCountText is the left footer, e.g. "共 16 条记录".
func (p ContentPage) RecordCountText() string {
	return fmt.Sprintf("共 %d 条记录", p.TotalRecords)
}

// PageText is the centered footer, e.g. "第 1 页 / 共 2 页".
func (p ContentPage) PageText() string {
	return fmt.Sprintf("第 %d 页 / 共 %d 页", p.Number, p.TotalPages)
}

// SubtotalText is the right footer, e.g. "本页小计：¥1,200.00".
func (p ContentPage) SubtotalText() string {
	return "本页小计：¥" + p.Subtotal.String()
}

// Column is one record printed vertically.
type Column struct {
	Left           int
	Name           string
	NameFontSize   int
	Remark         string
	AmountChinese  string
	AmountFontSize int
	Item           string
	Payment        string
	Amount         string
}

// StatisticsPage summarizes the whole book.
type StatisticsPage struct {
	Count int
	Total core.Money
}

func (s StatisticsPage) CountText() string   { return fmt.Sprintf("总人数：%d 人", s.Count) }
func (s StatisticsPage) TotalText() string   { return "总金额：¥" + s.Total.String() }
func (s StatisticsPage) ChineseText() string { return "大写金额：" + s.Total.Chinese() }

// Layout splits records into pages of ColumnsPerPage columns, in the given
// order, and positions every column.
func Layout(records []core.Record, opts Options) Book {
	g := DefaultGeometry
	if opts.Geometry != nil {
		g = *opts.Geometry
	}
	if opts.Theme.Name == "" {
		opts.Theme = ThemeRed
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	b := Book{
		Title:      title,
		ExportDate: opts.ExportDate,
		Theme:      opts.Theme,
		Geometry:   g,
		Stats:      StatisticsPage{Count: len(records)},
		Back:       [2]string{BackCoverText1, BackCoverText2},
	}

	totalPages := (len(records) + ColumnsPerPage - 1) / ColumnsPerPage
	for p := 0; p < totalPages; p++ {
		start := p * ColumnsPerPage
		end := min(start+ColumnsPerPage, len(records))

		page := ContentPage{
			Number:       p + 1,
			TotalPages:   totalPages,
			TotalRecords: len(records),
			Columns:      make([]Column, 0, end-start),
		}
		for i, r := range records[start:end] {
			page.Columns = append(page.Columns, newColumn(g, i, r))
			page.Subtotal = page.Subtotal.Add(r.Amount)
		}
		b.Stats.Total = b.Stats.Total.Add(page.Subtotal)
		b.Pages = append(b.Pages, page)
	}
	return b
}

func newColumn(g Geometry, i int, r core.Record) Column {
	chinese := r.AmountChinese
	if chinese == "" {
		chinese = r.Amount.Chinese()
	}
	hasItem := r.ItemDescription != ""
	return Column{
		Left:           g.ColumnLeft(i),
		Name:           r.GuestName,
		NameFontSize:   AdaptiveFontSize(r.GuestName, true, false),
		Remark:         r.Remark,
		AmountChinese:  chinese,
		AmountFontSize: AdaptiveFontSize(chinese, false, hasItem),
		Item:           r.ItemDescription,
		Payment:        r.PaymentType.Label(),
		Amount:         "¥" + r.Amount.String(),
	}
}
