// Package lunar converts Gregorian dates to the traditional Chinese lunar
// calendar using a packed per-year lookup table.
package lunar

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedDate is returned for dates outside the range covered by the
// converter's table.
var ErrUnsupportedDate = errors.New("date outside supported lunar range")

// Epoch is the first day of lunar year 1900 (正月初一).
var Epoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, time.UTC)

const isoDate = "2006-01-02"

// Date is a lunar calendar date.
type Date struct {
	Year   int
	Month  int // 1-12; a leap month repeats the number of the month before it
	Day    int // 1-30
	IsLeap bool
}

// MonthName returns e.g. "闰二月".
func (d Date) MonthName() string { return MonthName(d.Month, d.IsLeap) }

// DayName returns e.g. "初一".
func (d Date) DayName() string { return DayName(d.Day) }

// StemBranch returns the sexagenary year name, e.g. "癸卯年".
func (d Date) StemBranch() string { return StemBranchYear(d.Year) }

// Zodiac returns the zodiac year name, e.g. "兔年".
func (d Date) Zodiac() string { return Zodiac(d.Year) }

// String returns the month and day names, e.g. "冬月二十".
func (d Date) String() string { return d.MonthName() + d.DayName() }

// Display is the two-line rendering of a day used by the ledger header.
type Display struct {
	Primary   string `json:"primary"`   // 腊月十二
	Secondary string `json:"secondary"` // 乙巳年 2026-01-30
}

// Converter maps Gregorian dates onto a lunar table. It is immutable and
// safe for concurrent use.
type Converter struct {
	table Table
	last  time.Time
}

// NewConverter builds a converter over table, whose first entry must
// describe lunar year 1900.
func NewConverter(table Table) *Converter {
	t := make(Table, len(table))
	copy(t, table)

	total := 0
	for _, e := range t {
		total += DecodeYearProfile(e).Days()
	}
	return &Converter{
		table: t,
		last:  Epoch.AddDate(0, 0, total-1),
	}
}

var defaultConverter = NewConverter(DefaultTable)

// Default returns the converter backed by DefaultTable.
func Default() *Converter { return defaultConverter }

// SolarToLunar converts t with the default converter.
func SolarToLunar(t time.Time) (Date, error) { return defaultConverter.SolarToLunar(t) }

// SupportedRange returns the first and last Gregorian days the converter
// accepts, both inclusive.
func (c *Converter) SupportedRange() (first, last time.Time) {
	return Epoch, c.last
}

// SolarToLunar converts the calendar day of t (in t's own location) to a
// lunar date. The time of day is ignored.
func (c *Converter) SolarToLunar(t time.Time) (Date, error) {
	day := civilDay(t)
	if day.Before(Epoch) || day.After(c.last) {
		return Date{}, fmt.Errorf("convert %s: %w", day.Format(isoDate), ErrUnsupportedDate)
	}
	offset := int(day.Sub(Epoch).Hours() / 24)

	year := FirstYear
	var p YearProfile
	for _, entry := range c.table {
		p = DecodeYearProfile(entry)
		if n := p.Days(); offset >= n {
			offset -= n
			year++
			continue
		}
		break
	}

	for m := 1; m <= 12; m++ {
		n := p.MonthDays[m-1]
		if offset < n {
			return Date{Year: year, Month: m, Day: offset + 1}, nil
		}
		offset -= n
		if m != p.LeapMonth {
			continue
		}
		n = p.LeapDays()
		if offset < n {
			return Date{Year: year, Month: m, Day: offset + 1, IsLeap: true}, nil
		}
		offset -= n
	}
	// Unreachable while c.last is derived from the same table.
	return Date{}, fmt.Errorf("convert %s: %w", day.Format(isoDate), ErrUnsupportedDate)
}

// Display renders the lunar date of now with its Gregorian date.
func (c *Converter) Display(now time.Time) (Display, error) {
	d, err := c.SolarToLunar(now)
	if err != nil {
		return Display{}, err
	}
	return Display{
		Primary:   d.MonthName() + d.DayName(),
		Secondary: d.StemBranch() + " " + now.Format(isoDate),
	}, nil
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
