// Package holidays разбирает производственный календарь в формате
// {"year":2025,"months":[{"month":1,"days":"1,2,3,4,5,6,7,8,11+,12"}]}.
// Метки "+" и "*" после номера дня отбрасываются.
package holidays

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON структура исходного JSON
type CalendarJSON struct {
	Year   int         `json:"year"`
	Months []MonthDays `json:"months"`
	Stats  *Statistic  `json:"statistic,omitempty"`
}

type MonthDays struct {
	Month int    `json:"month"` // 1-12
	Days  string `json:"days"`
}

type Statistic struct {
	Workdays int `json:"workdays"`
	Holidays int `json:"holidays"`
}

type Holiday struct {
	Date  time.Time
	Year  int
	Month int // 1-12
	Day   int
}

// Key возвращает ключ даты YYYY-MM-DD
func (h Holiday) Key() string {
	return h.Date.Format("2006-01-02")
}

// ParseFile читает и разбирает файл календаря
func ParseFile(filePath string) ([]Holiday, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает JSON календаря в список нерабочих дней
func Parse(data []byte) ([]Holiday, error) {
	var cal CalendarJSON
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	var result []Holiday
	for _, monthData := range cal.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", monthData.Month)
		}

		for _, dayStr := range strings.Split(monthData.Days, ",") {
			dayStr = strings.TrimSpace(dayStr)
			dayStr = strings.TrimSuffix(dayStr, "+")
			dayStr = strings.TrimSuffix(dayStr, "*")
			if dayStr == "" {
				continue
			}

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w",
					dayStr, monthData.Month, err)
			}

			date := time.Date(cal.Year, time.Month(monthData.Month), day, 0, 0, 0, 0, time.Local)
			if date.Day() != day || int(date.Month()) != monthData.Month {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, monthData.Month)
			}

			result = append(result, Holiday{
				Date:  date,
				Year:  cal.Year,
				Month: monthData.Month,
				Day:   day,
			})
		}
	}

	return result, nil
}

// ForMonth возвращает ключи нерабочих дней месяца (month с нуля)
func ForMonth(days []Holiday, year, month int) map[string]bool {
	result := map[string]bool{}
	for _, d := range days {
		if d.Year == year && d.Month == month+1 {
			result[d.Key()] = true
		}
	}
	return result
}
