// Package attendance считает процент посещаемости офиса и прогресс к цели.
package attendance

import (
	"math"

	"workdays/internal/models"
)

// Percentage возвращает долю офисных дней в процентах.
// При нулевом знаменателе возвращает 0.
func Percentage(effectiveTotal, officeDays int) float64 {
	if effectiveTotal == 0 {
		return 0
	}
	return float64(officeDays) / float64(effectiveTotal) * 100
}

// DaysNeededForGoal возвращает, сколько офисных дней не хватает до цели goalPercent.
// Дробная потребность округляется вверх.
func DaysNeededForGoal(effectiveTotal, officeDays, goalPercent int) int {
	required := int(math.Ceil(float64(goalPercent) * float64(effectiveTotal) / 100))
	return max(0, required-officeDays)
}

// CountByType подсчитывает записи по типу дня
func CountByType(entries []models.DayEntry) map[models.DayType]int {
	counts := make(map[models.DayType]int, len(models.DayTypes))
	for _, e := range entries {
		counts[e.Type]++
	}
	return counts
}

// AbsenceCount суммирует дни больничного, отпуска и прочих отсутствий
func AbsenceCount(counts map[models.DayType]int) int {
	total := 0
	for t, n := range counts {
		if t.IsAbsence() {
			total += n
		}
	}
	return total
}
