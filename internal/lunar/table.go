package lunar

// Table holds one packed entry per lunar year, starting with lunar year 1900.
//
// Bits 0-3 hold the leap month (0 for none), bits 4-15 hold the length of
// months 12 down to 1 (set means 30 days, clear means 29) and bit 16 holds
// the length of the leap month.
type Table []uint32

// FirstYear is the lunar year described by Table[0].
const FirstYear = 1900

// DefaultTable covers lunar years 1900 through 2049.
var DefaultTable = Table{
	0x04bd8, 0x04ae0, 0x0a570, 0x054d5, 0x0d260, 0x0d950, 0x16554, 0x056a0, 0x09ad0, 0x055d2, // 1900
	0x04ae0, 0x0a5b6, 0x0a4d0, 0x0d250, 0x1d255, 0x0b540, 0x0d6a0, 0x0ada2, 0x095b0, 0x14977, // 1910
	0x04970, 0x0a4b0, 0x0b4b5, 0x06a50, 0x06d40, 0x1ab54, 0x02b60, 0x09570, 0x052f2, 0x04970, // 1920
	0x06566, 0x0d4a0, 0x0ea50, 0x06e95, 0x05ad0, 0x02b60, 0x186e3, 0x092e0, 0x1c8d7, 0x0c950, // 1930
	0x0d4a0, 0x1d8a6, 0x0b550, 0x056a0, 0x1a5b4, 0x025d0, 0x092d0, 0x0d2b2, 0x0a950, 0x0b557, // 1940
	0x06ca0, 0x0b550, 0x15355, 0x04da0, 0x0a5d0, 0x14573, 0x052d0, 0x0a9a8, 0x0e950, 0x06aa0, // 1950
	0x0aea6, 0x0ab50, 0x04b60, 0x0aae4, 0x0a570, 0x05260, 0x0f263, 0x0d950, 0x05b57, 0x056a0, // 1960
	0x096d0, 0x04dd5, 0x04ad0, 0x0a4d0, 0x0d4d4, 0x0d250, 0x0d558, 0x0b540, 0x0b5a0, 0x195a6, // 1970
	0x095b0, 0x049b0, 0x0a974, 0x0a4b0, 0x0b27a, 0x06a50, 0x06d40, 0x0af46, 0x0ab60, 0x09570, // 1980
	0x04af5, 0x04970, 0x064b0, 0x074a3, 0x0ea50, 0x06b58, 0x055c0, 0x0ab60, 0x096d5, 0x092e0, // 1990
	0x0c960, 0x0d954, 0x0d4a0, 0x0da50, 0x07552, 0x056a0, 0x0abb7, 0x025d0, 0x092d0, 0x0cab5, // 2000
	0x0a950, 0x0b4a0, 0x0baa4, 0x0ad50, 0x055d9, 0x04ba0, 0x0a5b0, 0x15176, 0x052b0, 0x0a930, // 2010
	0x07954, 0x06aa0, 0x0ad50, 0x05b52, 0x04b60, 0x0a6e6, 0x0a4e0, 0x0d260, 0x0ea65, 0x0d530, // 2020
	0x05aa0, 0x076a3, 0x096d0, 0x04bd7, 0x04ad0, 0x0a4d0, 0x1d0b6, 0x0d250, 0x0d520, 0x0dd45, // 2030
	0x0b5a0, 0x056d0, 0x055b2, 0x049b0, 0x0a577, 0x0a4b0, 0x0aa50, 0x1b255, 0x06d20, 0x0ada0, // 2040
}

// YearProfile is the decoded form of a table entry.
type YearProfile struct {
	LeapMonth         int // 0 when the year has no leap month
	LeapHasThirtyDays bool
	MonthDays         [12]int
}

// DecodeYearProfile unpacks a table entry.
func DecodeYearProfile(entry uint32) YearProfile {
	p := YearProfile{
		LeapMonth:         int(entry & 0xf),
		LeapHasThirtyDays: entry&0x10000 != 0,
	}
	for m := 1; m <= 12; m++ {
		if entry&(0x10000>>m) != 0 {
			p.MonthDays[m-1] = 30
		} else {
			p.MonthDays[m-1] = 29
		}
	}
	return p
}

// LeapDays returns the length of the leap month, or 0 without one.
func (p YearProfile) LeapDays() int {
	switch {
	case p.LeapMonth == 0:
		return 0
	case p.LeapHasThirtyDays:
		return 30
	default:
		return 29
	}
}

// Days returns the number of days in the lunar year.
func (p YearProfile) Days() int {
	n := p.LeapDays()
	for _, d := range p.MonthDays {
		n += d
	}
	return n
}

// LastYear returns the last lunar year the table describes.
func (t Table) LastYear() int {
	return FirstYear + len(t) - 1
}

// Profile returns the decoded entry for a lunar year.
func (t Table) Profile(year int) (YearProfile, bool) {
	i := year - FirstYear
	if i < 0 || i >= len(t) {
		return YearProfile{}, false
	}
	return DecodeYearProfile(t[i]), true
}
