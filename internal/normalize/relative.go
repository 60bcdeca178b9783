package normalize

import (
	"regexp"
	"time"
)

// relativeRule maps a phrase to a day offset from today. Rules are
// evaluated in order and the first match wins.
type relativeRule struct {
	match  *regexp.Regexp
	offset func(today time.Weekday) int
}

type weekdayName struct {
	day     time.Weekday
	english string
	chinese string
}

var weekdayNames = []weekdayName{
	{time.Monday, "monday", "一"},
	{time.Tuesday, "tuesday", "二"},
	{time.Wednesday, "wednesday", "三"},
	{time.Thursday, "thursday", "四"},
	{time.Friday, "friday", "五"},
	{time.Saturday, "saturday", "六"},
	{time.Sunday, "sunday", "日"},
}

var relativeRules = buildRelativeRules()

func buildRelativeRules() []relativeRule {
	rules := []relativeRule{
		{match: regexp.MustCompile(`day after tomorrow|后天`), offset: fixedOffset(2)},
		{match: regexp.MustCompile(`tomorrow|next day|明天`), offset: fixedOffset(1)},
		{match: regexp.MustCompile(`today|今天`), offset: fixedOffset(0)},
	}
	for _, name := range weekdayNames {
		rules = append(rules, relativeRule{
			match:  regexp.MustCompile(`next ` + name.english + `|下周` + name.chinese),
			offset: nextWeekday(name.day),
		})
	}
	for _, name := range weekdayNames {
		rules = append(rules, relativeRule{
			match:  regexp.MustCompile(`this ` + name.english + `|本周` + name.chinese),
			offset: thisWeekday(name.day),
		})
	}
	// A bare 周日 reads as the coming Sunday.
	rules = append(rules, relativeRule{
		match:  regexp.MustCompile(`周日`),
		offset: nextWeekday(time.Sunday),
	})
	return rules
}

func fixedOffset(days int) func(time.Weekday) int {
	return func(time.Weekday) int { return days }
}

// nextWeekday always moves forward, a full week when target is today.
func nextWeekday(target time.Weekday) func(time.Weekday) int {
	return func(today time.Weekday) int {
		d := mondayIndex(target) - mondayIndex(today)
		if d <= 0 {
			d += 7
		}
		return d
	}
}

// thisWeekday resolves to today when target is today.
func thisWeekday(target time.Weekday) func(time.Weekday) int {
	return func(today time.Weekday) int {
		d := mondayIndex(target) - mondayIndex(today)
		if d < 0 {
			d += 7
		}
		return max(d, 0)
	}
}

// mondayIndex numbers weekdays Monday=0 through Sunday=6.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// resolveRelative returns the date a relative phrase refers to.
func resolveRelative(lowered string, today Date) (Date, bool) {
	for _, rule := range relativeRules {
		if rule.match.MatchString(lowered) {
			return today.AddDays(rule.offset(today.Weekday())), true
		}
	}
	return Date{}, false
}
