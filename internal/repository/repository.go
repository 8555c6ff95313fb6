package repository

import (
	"fmt"

	"workdays/internal/models"

	"github.com/sirupsen/logrus"
)

// Ключи слотов хоста
const (
	SnapshotSlotKey = "workdays_db"
	EntriesSlotKey  = "workdays_entries"
)

// DayEntryRepository единый интерфейс обоих хранилищ.
// Методы никогда не возвращают ошибок и не паникуют: сбои хранилища
// логируются и сводятся к пустому или неизменному состоянию.
type DayEntryRepository interface {
	SetDay(date string, dayType models.DayType)
	RemoveDay(date string)
	// GetEntriesForMonth возвращает записи месяца (month с нуля) по возрастанию даты
	GetEntriesForMonth(year, month int) []models.DayEntry
}

func newLogger(component string) *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())
	return logger.WithField("component", component)
}

// attempt выполняет fn, превращая панику в ошибку
func attempt[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// orDefault выполняет fn и при ошибке или панике возвращает def.
// Все места, где сбой хранилища проглатывается, проходят через эту функцию.
func orDefault[T any](logger *logrus.Entry, op string, def T, fn func() (T, error)) T {
	value, err := attempt(fn)
	if err != nil {
		logger.WithError(err).WithField("op", op).Warn("Storage operation degraded")
		return def
	}
	return value
}

// swallow вариант orDefault для операций без результата
func swallow(logger *logrus.Entry, op string, fn func() error) {
	orDefault(logger, op, struct{}{}, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

func validEntry(logger *logrus.Entry, entry models.DayEntry) bool {
	if err := entry.Validate(); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"date": entry.Date,
			"type": entry.Type,
		}).Warn("Ignoring invalid day entry")
		return false
	}
	return true
}
