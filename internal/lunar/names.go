package lunar

var (
	stems    = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	branches = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	animals  = [12]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}
	months   = [12]string{"正", "二", "三", "四", "五", "六", "七", "八", "九", "十", "冬", "腊"}
	days     = [30]string{
		"初一", "初二", "初三", "初四", "初五", "初六", "初七", "初八", "初九", "初十",
		"十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八", "十九", "二十",
		"廿一", "廿二", "廿三", "廿四", "廿五", "廿六", "廿七", "廿八", "廿九", "三十",
	}
)

const (
	yearSuffix  = "年"
	monthSuffix = "月"
	leapPrefix  = "闰"
)

// StemBranchYear returns the sexagenary name of a lunar year, e.g. 2024 -> "甲辰年".
func StemBranchYear(year int) string {
	return stems[mod(year-4, 10)] + branches[mod(year-4, 12)] + yearSuffix
}

// Zodiac returns the zodiac animal of a lunar year, e.g. 2024 -> "龙年".
func Zodiac(year int) string {
	return animals[mod(year-4, 12)] + yearSuffix
}

// MonthName returns the display name of a lunar month, e.g. (12, false) -> "腊月".
// It returns "" for months outside 1..12.
func MonthName(month int, leap bool) string {
	if month < 1 || month > 12 {
		return ""
	}
	name := months[month-1] + monthSuffix
	if leap {
		name = leapPrefix + name
	}
	return name
}

// DayName returns the display name of a lunar day, e.g. 21 -> "廿一".
// It returns "" for days outside 1..30.
func DayName(day int) string {
	if day < 1 || day > 30 {
		return ""
	}
	return days[day-1]
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
