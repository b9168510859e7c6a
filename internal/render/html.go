package render

import (
	"fmt"
	"html/template"
	"io"
	"sync"

	"giftbook/internal/metrics"
	appweb "giftbook/web"
)

const bookTemplate = "book.html"

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

// bookView adds the derived positions the template needs.
type bookView struct {
	Book
	PageWidth  int
	PageHeight int
	RemarkTop  int
	AmountTop  int
	PaymentTop int
	StatsTitle string
}

func bookTemplates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.ParseFS(appweb.TemplatesFS, "templates/"+bookTemplate)
	})
	return parsed, parseErr
}

// RenderHTML writes the book as one HTML document with one element per
// printed page.
func RenderHTML(w io.Writer, b Book) error {
	t, err := bookTemplates()
	if err != nil {
		return fmt.Errorf("parse book template: %w", err)
	}
	g := b.Geometry
	view := bookView{
		Book:       b,
		PageWidth:  PageWidth,
		PageHeight: PageHeight,
		RemarkTop:  g.RemarkArea.Top + PositionOffset,
		AmountTop:  g.AmountArea.Top + PositionOffset,
		PaymentTop: g.PaymentArea.Top + PositionOffset,
		StatsTitle: StatsTitle,
	}
	if err := t.ExecuteTemplate(w, bookTemplate, view); err != nil {
		return fmt.Errorf("render book: %w", err)
	}
	metrics.Exports.WithLabelValues(metrics.FormatPrint).Inc()
	return nil
}
