package service

import "time"

// HijriDate 表示表算法（民用）伊斯兰历日期
type HijriDate struct {
	Year  int
	Month int
	Day   int
}

// islamicEpochJDN 对应公历 622-07-19（儒略日数），即希吉拉元年元月初一
const islamicEpochJDN = 1948440

// ToHijri 将公历日期换算为表算法伊斯兰历。
// offsetDays 用于对齐本地见月（常见取值 -2~+2），正值表示本地新月早于表算法。
func ToHijri(date time.Time, offsetDays int) HijriDate {
	if offsetDays != 0 {
		date = date.AddDate(0, 0, offsetDays)
	}

	jdn := gregorianJDN(date.Year(), int(date.Month()), date.Day())

	// 30 年周期共 10631 天，含 11 个闰年
	l := jdn - islamicEpochJDN + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354

	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29

	month := (24 * l) / 709
	day := l - (709*month)/24
	year := 30*n + j - 30

	return HijriDate{Year: year, Month: month, Day: day}
}

// gregorianJDN 返回（外推）公历日期的儒略日数。
func gregorianJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3

	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}
