package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"giftbook/internal/core"
)

func TestDefaultGeometry(t *testing.T) {
	g := DefaultGeometry
	checks := []struct {
		name      string
		got, want int
	}{
		{"column width", g.ColumnWidth, 192},
		{"column gap", g.ColumnGap, 21},
		{"list left", g.List.Left, 171},
		{"list top", g.List.Top, 408},
		{"list height", g.List.Height, 1671},
		{"remark top", g.RemarkArea.Top, 579},
		{"amount top", g.AmountArea.Top, 908},
		{"amount height", g.AmountArea.Height, 638},
		{"payment top", g.PaymentArea.Top, 1546},
		{"footer top", g.Footer.Top, 2159},
		{"footer page left", g.FooterPageLeft, 1277},
		{"footer subtotal left", g.FooterSumLeft, 2625},
		{"header date left", g.HeaderDateLeft, 2638},
		{"cover title size", g.CoverTitleSize, 100},
		{"stats title size", g.StatsTitleSize, 75},
		{"back text2 size", g.BackText2Size, 83},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if got := g.ColumnLeft(0); got != 171 {
		t.Errorf("ColumnLeft(0) = %d", got)
	}
	if got := g.ColumnLeft(14); got != 171+14*213 {
		t.Errorf("ColumnLeft(14) = %d", got)
	}
	if right := g.ColumnLeft(ColumnsPerPage-1) + g.ColumnWidth; right > PageWidth {
		t.Errorf("last column ends at %d beyond page width", right)
	}
}

func TestAdaptiveFontSize(t *testing.T) {
	cases := []struct {
		text    string
		isName  bool
		hasItem bool
		want    int
	}{
		{"", true, false, 110},
		{"张三", true, false, 110},
		{"欧阳娜娜", true, false, 85},
		{"欧阳娜娜娜", true, false, 60},
		{"欧阳娜娜娜娜", true, false, 55},
		{"贰佰元", false, false, 110},
		{"贰佰元整", false, false, 85},
		{"贰佰元", false, true, 85},
		{"壹仟贰佰元整", false, true, 55},
		{"贰佰元", true, true, 110},
	}
	for _, c := range cases {
		if got := AdaptiveFontSize(c.text, c.isName, c.hasItem); got != c.want {
			t.Errorf("AdaptiveFontSize(%q, %v, %v) = %d, want %d", c.text, c.isName, c.hasItem, got, c.want)
		}
	}
}

func records(n int) []core.Record {
	out := make([]core.Record, n)
	for i := range out {
		out[i] = core.Record{
			ID:          int64(i + 1),
			GuestName:   fmt.Sprintf("宾客%d", i+1),
			Amount:      core.Money{Cents: int64(i+1) * 10000},
			PaymentType: core.PaymentType(i % 3),
		}
	}
	return out
}

func TestLayoutPages(t *testing.T) {
	cases := []struct {
		n     int
		pages int
		last  int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{15, 1, 15},
		{16, 2, 1},
		{45, 3, 15},
	}
	for _, c := range cases {
		recs := records(c.n)
		b := Layout(recs, Options{})
		if len(b.Pages) != c.pages {
			t.Fatalf("n=%d: %d pages, want %d", c.n, len(b.Pages), c.pages)
		}
		if c.pages > 0 && len(b.Pages[c.pages-1].Columns) != c.last {
			t.Errorf("n=%d: last page has %d columns, want %d", c.n, len(b.Pages[c.pages-1].Columns), c.last)
		}

		var sum core.Money
		for i, p := range b.Pages {
			if p.Number != i+1 || p.TotalPages != c.pages || p.TotalRecords != c.n {
				t.Errorf("n=%d: page %d header %+v", c.n, i, p)
			}
			sum = sum.Add(p.Subtotal)
		}
		want := core.Summarize(recs).TotalAmount
		if sum != want || b.Stats.Total != want {
			t.Errorf("n=%d: subtotals %v stats %v, want %v", c.n, sum, b.Stats.Total, want)
		}
		if b.Stats.Count != c.n {
			t.Errorf("n=%d: stats count %d", c.n, b.Stats.Count)
		}
	}
}

func TestLayoutColumns(t *testing.T) {
	recs := []core.Record{
		{GuestName: "张三", Amount: core.Money{Cents: 20000}, AmountChinese: "贰佰元整", PaymentType: core.PaymentWeChat, Remark: "同学"},
		{GuestName: "欧阳娜娜", Amount: core.Money{Cents: 120000}, ItemDescription: "被子", PaymentType: core.PaymentType(9)},
	}
	b := Layout(recs, Options{Title: "张李婚礼", ExportDate: "2024-05-01", Theme: ThemeGray})

	if b.Title != "张李婚礼" || b.Theme.Name != "gray" {
		t.Fatalf("unexpected book header %q %q", b.Title, b.Theme.Name)
	}
	cols := b.Pages[0].Columns
	if cols[0].Left != 171 || cols[1].Left != 384 {
		t.Errorf("column positions %d %d", cols[0].Left, cols[1].Left)
	}
	if cols[0].Payment != "微信" || cols[0].Amount != "¥200.00" || cols[0].AmountFontSize != 85 {
		t.Errorf("unexpected first column %+v", cols[0])
	}
	if cols[1].AmountChinese != "壹仟贰佰元整" || cols[1].AmountFontSize != 55 || cols[1].NameFontSize != 85 {
		t.Errorf("unexpected second column %+v", cols[1])
	}
	if cols[1].Payment != "未知" || cols[1].Amount != "¥1,200.00" {
		t.Errorf("unexpected second column payment %+v", cols[1])
	}

	p := b.Pages[0]
	if p.SubtotalText() != "本页小计：¥1,400.00" {
		t.Errorf("SubtotalText = %q", p.SubtotalText())
	}
	if p.RecordCountText() != "共 2 条记录" || p.PageText() != "第 1 页 / 共 1 页" {
		t.Errorf("footer texts %q %q", p.RecordCountText(), p.PageText())
	}
	if b.Stats.ChineseText() != "大写金额：壹仟肆佰元整" || b.Stats.CountText() != "总人数：2 人" {
		t.Errorf("stats texts %q %q", b.Stats.ChineseText(), b.Stats.CountText())
	}
}

func TestLayoutDefaults(t *testing.T) {
	b := Layout(nil, Options{})
	if b.Title != DefaultTitle || b.Theme.Name != "red" {
		t.Fatalf("defaults not applied: %q %q", b.Title, b.Theme.Name)
	}
	if b.Back != [2]string{"做一款好用的电子礼金簿", "微信公众号：说自"} {
		t.Fatalf("back cover %v", b.Back)
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("GRAY").Name != "gray" || ThemeByName("red").Name != "red" || ThemeByName("blue").Name != "red" {
		t.Fatal("unexpected theme lookup")
	}
}

func TestRenderHTML(t *testing.T) {
	recs := records(16)
	recs[0].GuestName = "<script>alert(1)</script>"
	recs[1].ItemDescription = "被子"

	var buf bytes.Buffer
	if err := RenderHTML(&buf, Layout(recs, Options{Title: "婚礼", ExportDate: "2024-05-01"})); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, `class="page `); got != 1+2+1+1 {
		t.Errorf("rendered %d pages, want 5", got)
	}
	if got := strings.Count(out, `class="record-column"`); got != 16 {
		t.Errorf("rendered %d columns, want 16", got)
	}
	if strings.Contains(out, "<script>alert") {
		t.Error("guest name was not escaped")
	}
	for _, want := range []string{
		"第 2 页 / 共 2 页",
		"共 16 条记录",
		"本页小计：¥12,000.00",
		"本页小计：¥1,600.00",
		"总人数：16 人",
		"做一款好用的电子礼金簿",
		`class="item-description">被子</span>`,
		"size: 3508px 2479px",
		"top: 592px",
		"left: 171px",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
