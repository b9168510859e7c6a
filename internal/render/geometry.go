// Package render lays out the gift book for printing and renders it as a
// self-contained HTML document of fixed size pages.
package render

import "math"

// Scale converts design units to print pixels (landscape A4 at 300 DPI).
const Scale = 4.167

// Page dimensions in pixels.
const (
	PageWidth  = 3508
	PageHeight = 2479
)

// ColumnsPerPage is the number of records printed on a content page.
const ColumnsPerPage = 15

// PositionOffset shifts the lower column regions down to line up with the
// printed grid.
const PositionOffset = 13

// Region is a rectangle in print pixels.
type Region struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Geometry holds the positions of every printed element.
type Geometry struct {
	CoverText      Region
	CoverTitleSize int
	CoverDateSize  int

	Header         Region
	HeaderNameSize int
	HeaderDateSize int
	HeaderDateLeft int

	List        Region
	ColumnWidth int
	ColumnGap   int
	NameArea    Region
	RemarkArea  Region
	AmountArea  Region
	PaymentArea Region

	Footer         Region
	FooterPageLeft int
	FooterSumLeft  int

	StatsTitle     Region
	StatsTitleSize int
	StatsContent   Region

	BackText1     Region
	BackText1Size int
	BackText2     Region
	BackText2Size int
}

// DefaultGeometry is the layout of the standard gift book template.
var DefaultGeometry = Geometry{
	CoverText:      region(251, 461, 341, 77),
	CoverTitleSize: px(24),
	CoverDateSize:  px(14),

	Header:         region(41, 21, 760, 35),
	HeaderNameSize: px(24),
	HeaderDateSize: px(13),
	HeaderDateLeft: px(633),

	List:        region(41, 98, 760, 401),
	ColumnWidth: px(46),
	ColumnGap:   px(5),
	NameArea:    region(0, 0, 46, 139),
	RemarkArea:  region(0, 139, 46, 19),
	AmountArea:  region(0, 218, 46, 153),
	PaymentArea: region(0, 371, 46, 30),

	Footer:         region(41, 518, 760, 30),
	FooterPageLeft: px(306.5),
	FooterSumLeft:  px(630),

	StatsTitle:     region(361, 137, 120, 35),
	StatsTitleSize: px(18),
	StatsContent:   region(270, 193, 302, 230),

	BackText1:     region(307, 263, 228, 35),
	BackText1Size: px(24),
	BackText2:     region(364, 310, 200, 29),
	BackText2Size: px(20),
}

// ColumnLeft returns the x position of the i-th column of a page.
func (g Geometry) ColumnLeft(i int) int {
	return g.List.Left + i*(g.ColumnWidth+g.ColumnGap)
}

// px scales a design unit, rounding halves up.
func px(v float64) int {
	return int(math.Floor(v*Scale + 0.5))
}

func region(left, top, width, height float64) Region {
	return Region{Left: px(left), Top: px(top), Width: px(width), Height: px(height)}
}
