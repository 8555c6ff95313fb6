// Package calendar содержит арифметику рабочих дней месяца.
//
// Месяц везде нумеруется с нуля (0 = январь), все даты в локальном часовом поясе.
package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const DateKeyLayout = "2006-01-02"

var workWeek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// MonthStart возвращает полночь первого дня месяца
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local)
}

// MonthEnd возвращает полночь последнего дня месяца
func MonthEnd(year, month int) time.Time {
	return MonthStart(year, month).AddDate(0, 1, -1)
}

// ValidMonth сообщает, лежит ли месяц (с нуля) в диапазоне 0..11
func ValidMonth(month int) bool {
	return month >= 0 && month <= 11
}

// MonthPrefix возвращает префикс ключа даты вида YYYY-MM
func MonthPrefix(year, month int) string {
	return MonthStart(year, month).Format("2006-01")
}

// WorkingDaysInMonth возвращает все дни с понедельника по пятницу в порядке возрастания
func WorkingDaysInMonth(year, month int) []time.Time {
	start := MonthStart(year, month)
	end := MonthEnd(year, month)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: workWeek,
		Dtstart:   start,
		Until:     end,
	})
	if err != nil {
		return nil
	}

	dates := r.Between(start, end, true)
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, truncateToDay(d))
	}
	return days
}

// RemainingWorkingDays возвращает рабочие дни месяца строго после сегодняшнего дня.
// Для месяцев в прошлом результат пустой, для будущих содержит весь месяц.
func RemainingWorkingDays(year, month int) []time.Time {
	return RemainingWorkingDaysAt(year, month, time.Now())
}

// RemainingWorkingDaysAt то же, что RemainingWorkingDays, относительно момента now
func RemainingWorkingDaysAt(year, month int, now time.Time) []time.Time {
	today := truncateToDay(now.Local())

	var days []time.Time
	for _, d := range WorkingDaysInMonth(year, month) {
		if d.After(today) {
			days = append(days, d)
		}
	}
	return days
}

// FormatDateKey форматирует дату как YYYY-MM-DD по локальному календарю
func FormatDateKey(t time.Time) string {
	return t.Local().Format(DateKeyLayout)
}

// ParseDateKey разбирает ключ YYYY-MM-DD в локальную полночь
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// EffectiveWorkingDays вычитает дни отсутствия из рабочих дней, не опускаясь ниже нуля
func EffectiveWorkingDays(total, absenceCount int) int {
	return max(0, total-absenceCount)
}

// ExcludeHolidays убирает из списка дни, ключи которых есть в holidays
func ExcludeHolidays(days []time.Time, holidays map[string]bool) []time.Time {
	if len(holidays) == 0 {
		return days
	}

	result := make([]time.Time, 0, len(days))
	for _, d := range days {
		if !holidays[FormatDateKey(d)] {
			result = append(result, d)
		}
	}
	return result
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
