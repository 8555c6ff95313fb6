package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"workdays/internal/calendar"
	"workdays/internal/models"
	"workdays/internal/service"
)

var commandDayTypes = map[string]models.DayType{
	"office": models.DayTypeOffice,
	"sick":   models.DayTypeSick,
	"leave":  models.DayTypeAnnualLeave,
	"other":  models.DayTypeOther,
}

var dayTypeLabels = map[models.DayType]string{
	models.DayTypeOffice:      "🏢 Офис",
	models.DayTypeSick:        "🤒 Больничный",
	models.DayTypeAnnualLeave: "🌴 Отпуск",
	models.DayTypeOther:       "📌 Другое",
}

var monthNames = []string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// handleCommand возвращает текст ответа на команду
func (h *Handler) handleCommand(command, args string) string {
	args = strings.TrimSpace(args)

	if dayType, ok := commandDayTypes[command]; ok {
		return h.markDay(dayType, args)
	}

	switch command {
	case "start":
		return "👋 Привет! Я отмечаю, в какие дни ты был в офисе, и считаю прогресс к цели.\n\n" + helpText
	case "help":
		return helpText
	case "clear":
		return h.clearDay(args)
	case "month":
		return h.showMonth(args)
	case "goal":
		return h.goal(args)
	default:
		return "❓ Неизвестная команда. Список команд: /help"
	}
}

const helpText = `📖 Команды:
/office [ГГГГ-ММ-ДД] - день в офисе
/sick [ГГГГ-ММ-ДД] - больничный
/leave [ГГГГ-ММ-ДД] - отпуск
/other [ГГГГ-ММ-ДД] - другое отсутствие
/clear [ГГГГ-ММ-ДД] - снять отметку
/month [ГГГГ-ММ] - статистика месяца
/goal [процент] - показать или задать цель (50, 60, 70, 80, 90, 100)

Без даты используется сегодняшний день.`

func (h *Handler) dateArg(args string) string {
	if args == "" {
		return h.attendanceService.Today()
	}
	return args
}

func (h *Handler) markDay(dayType models.DayType, args string) string {
	date := h.dateArg(args)
	if err := h.attendanceService.MarkDay(date, dayType); err != nil {
		return "❌ Неверная дата. Формат: ГГГГ-ММ-ДД"
	}
	return fmt.Sprintf("✅ %s: %s", date, dayTypeLabels[dayType])
}

func (h *Handler) clearDay(args string) string {
	date := h.dateArg(args)
	if err := h.attendanceService.ClearDay(date); err != nil {
		return "❌ Неверная дата. Формат: ГГГГ-ММ-ДД"
	}
	return fmt.Sprintf("🗑 Отметка за %s снята", date)
}

func (h *Handler) showMonth(args string) string {
	var year, month int
	if args == "" {
		today, _ := calendar.ParseDateKey(h.attendanceService.Today())
		year, month = today.Year(), int(today.Month())-1
	} else {
		t, err := time.ParseInLocation("2006-01", args, time.Local)
		if err != nil {
			return "❌ Неверный месяц. Формат: ГГГГ-ММ"
		}
		year, month = t.Year(), int(t.Month())-1
	}

	return formatSummary(h.attendanceService.MonthSummary(year, month))
}

func (h *Handler) goal(args string) string {
	if args == "" {
		return fmt.Sprintf("🎯 Текущая цель: %d%%", h.attendanceService.Goal())
	}

	goal, err := strconv.Atoi(strings.TrimSuffix(args, "%"))
	if err != nil {
		return "❌ Цель должна быть числом: 50, 60, 70, 80, 90 или 100"
	}

	if err := h.attendanceService.SetGoal(goal); err != nil {
		if errors.Is(err, service.ErrInvalidGoal) {
			return "❌ Цель должна быть числом: 50, 60, 70, 80, 90 или 100"
		}
		h.logger.WithError(err).Error("Failed to save goal")
		return "❌ Не удалось сохранить цель"
	}
	return fmt.Sprintf("🎯 Цель установлена: %d%%", goal)
}

func formatSummary(s service.MonthSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 %s %d\n", monthNames[s.Month], s.Year)
	fmt.Fprintf(&b, "Рабочих дней: %d (осталось %d)\n", s.WorkingDays, s.RemainingDays)
	if s.Holidays > 0 {
		fmt.Fprintf(&b, "Праздников в будни: %d\n", s.Holidays)
	}
	for _, t := range models.DayTypes {
		fmt.Fprintf(&b, "%s: %d\n", dayTypeLabels[t], s.Counts[t])
	}
	fmt.Fprintf(&b, "Учитываемых дней: %d\n", s.EffectiveDays)
	fmt.Fprintf(&b, "Посещаемость: %.1f%% (цель %d%%)\n", s.Percentage, s.GoalPercent)

	if s.DaysNeeded == 0 {
		b.WriteString("🎉 Цель достигнута!")
	} else {
		fmt.Fprintf(&b, "До цели: %d дн.", s.DaysNeeded)
	}

	return b.String()
}
