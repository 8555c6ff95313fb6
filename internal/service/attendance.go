package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"workdays/internal/attendance"
	"workdays/internal/calendar"
	"workdays/internal/models"
	"workdays/internal/repository"
	"workdays/internal/slot"
	"workdays/pkg/holidays"

	"github.com/sirupsen/logrus"
)

// GoalSlotKey слот с выбранной целью посещаемости
const GoalSlotKey = "workdays_goal"

var ErrInvalidGoal = errors.New("goal is not one of the allowed values")

type MonthSummary struct {
	Year  int
	Month int // с нуля

	WorkingDays   int
	RemainingDays int
	Holidays      int // праздники, выпавшие на будни

	Counts        map[models.DayType]int
	OfficeDays    int
	Absences      int
	EffectiveDays int

	Percentage  float64
	GoalPercent int
	DaysNeeded  int

	Entries []models.DayEntry
}

type AttendanceService struct {
	repo        repository.DayEntryRepository
	slots       slot.Store
	holidays    []holidays.Holiday
	defaultGoal int
	logger      *logrus.Logger
	now         func() time.Time
}

func NewAttendanceService(
	repo repository.DayEntryRepository,
	slots slot.Store,
	nonWorkingDays []holidays.Holiday,
	defaultGoal int,
) *AttendanceService {
	if !models.IsValidGoal(defaultGoal) {
		defaultGoal = models.DefaultGoalPercent
	}

	return &AttendanceService{
		repo:        repo,
		slots:       slots,
		holidays:    nonWorkingDays,
		defaultGoal: defaultGoal,
		logger:      newLogger(),
		now:         time.Now,
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())
	return logger
}

// Today возвращает ключ сегодняшней даты по локальному времени
func (s *AttendanceService) Today() string {
	return calendar.FormatDateKey(s.now())
}

// MarkDay проверяет дату и сохраняет тип дня
func (s *AttendanceService) MarkDay(date string, dayType models.DayType) error {
	entry := models.DayEntry{Date: date, Type: dayType}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid day entry: %w", err)
	}

	s.repo.SetDay(date, dayType)
	return nil
}

// ClearDay удаляет отметку дня
func (s *AttendanceService) ClearDay(date string) error {
	if _, err := calendar.ParseDateKey(date); err != nil {
		return err
	}

	s.repo.RemoveDay(date)
	return nil
}

// MonthSummary собирает статистику месяца (month с нуля)
func (s *AttendanceService) MonthSummary(year, month int) MonthSummary {
	nonWorking := holidays.ForMonth(s.holidays, year, month)
	weekdays := calendar.WorkingDaysInMonth(year, month)
	workingDays := calendar.ExcludeHolidays(weekdays, nonWorking)
	remaining := calendar.ExcludeHolidays(calendar.RemainingWorkingDaysAt(year, month, s.now()), nonWorking)

	entries := s.repo.GetEntriesForMonth(year, month)
	counts := attendance.CountByType(entries)
	absences := attendance.AbsenceCount(counts)
	effective := calendar.EffectiveWorkingDays(len(workingDays), absences)
	office := counts[models.DayTypeOffice]
	goal := s.Goal()

	s.logger.WithFields(logrus.Fields{
		"year":    year,
		"month":   month + 1,
		"entries": len(entries),
	}).Debug("Month summary calculated")

	return MonthSummary{
		Year:          year,
		Month:         month,
		WorkingDays:   len(workingDays),
		RemainingDays: len(remaining),
		Holidays:      len(weekdays) - len(workingDays),
		Counts:        counts,
		OfficeDays:    office,
		Absences:      absences,
		EffectiveDays: effective,
		Percentage:    attendance.Percentage(effective, office),
		GoalPercent:   goal,
		DaysNeeded:    attendance.DaysNeededForGoal(effective, office, goal),
		Entries:       entries,
	}
}

// Goal возвращает сохраненную цель или значение по умолчанию
func (s *AttendanceService) Goal() int {
	raw, ok, err := s.slots.Get(GoalSlotKey)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read goal slot")
		return s.defaultGoal
	}
	if !ok {
		return s.defaultGoal
	}

	goal, err := strconv.Atoi(raw)
	if err != nil || !models.IsValidGoal(goal) {
		s.logger.WithField("value", raw).Warn("Ignoring invalid stored goal")
		return s.defaultGoal
	}
	return goal
}

// SetGoal сохраняет цель посещаемости
func (s *AttendanceService) SetGoal(goal int) error {
	if !models.IsValidGoal(goal) {
		return ErrInvalidGoal
	}

	if err := s.slots.Set(GoalSlotKey, strconv.Itoa(goal)); err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	return nil
}
