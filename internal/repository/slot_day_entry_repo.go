package repository

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"workdays/internal/calendar"
	"workdays/internal/models"
	"workdays/internal/slot"

	"github.com/sirupsen/logrus"
)

// SlotDayEntryRepository запасное хранилище: весь список записей
// сериализуется в JSON и пишется в слот EntriesSlotKey целиком.
// Слот читается один раз, дальше источником для чтения служит копия в памяти.
// Пока слот не удалось прочитать, изменения живут только в памяти:
// перезаписать непрочитанный слот значит потерять сохраненную историю.
type SlotDayEntryRepository struct {
	slots   slot.Store
	mu      sync.Mutex
	entries []models.DayEntry
	loaded  bool
	touched map[string]struct{} // даты, измененные до успешного чтения слота
	logger  *logrus.Entry
}

func NewSlotDayEntryRepository(slots slot.Store) *SlotDayEntryRepository {
	return &SlotDayEntryRepository{
		slots:   slots,
		touched: map[string]struct{}{},
		logger:  newLogger("slot_day_entry_repo"),
	}
}

func (r *SlotDayEntryRepository) SetDay(date string, dayType models.DayType) {
	entry := models.DayEntry{Date: date, Type: dayType}
	if !validEntry(r.logger, entry) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.save(date, append(without(r.load(), date), entry))

	r.logger.WithFields(logrus.Fields{
		"date": date,
		"type": dayType,
	}).Debug("Day entry set")
}

func (r *SlotDayEntryRepository) RemoveDay(date string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.save(date, without(r.load(), date))
	r.logger.WithField("date", date).Debug("Day entry removed")
}

func (r *SlotDayEntryRepository) GetEntriesForMonth(year, month int) []models.DayEntry {
	if !calendar.ValidMonth(month) {
		return []models.DayEntry{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := calendar.MonthPrefix(year, month) + "-"
	result := []models.DayEntry{}
	for _, e := range r.load() {
		if strings.HasPrefix(e.Date, prefix) {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result
}

// load возвращает копию в памяти, при необходимости дочитывая слот.
// Ошибка чтения не кэшируется: следующая операция попробует снова.
func (r *SlotDayEntryRepository) load() []models.DayEntry {
	if r.loaded {
		return r.entries
	}

	stored, err := attempt(r.read)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to read entries slot, keeping changes in memory")
		return r.entries
	}

	r.entries = mergeStored(r.entries, stored, r.touched)
	r.loaded = true
	r.touched = map[string]struct{}{}
	return r.entries
}

// read читает слот; поврежденные данные означают пустой список, а не ошибку
func (r *SlotDayEntryRepository) read() ([]models.DayEntry, error) {
	raw, ok, err := r.slots.Get(EntriesSlotKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return orDefault(r.logger, "decode_entries", []models.DayEntry(nil), func() ([]models.DayEntry, error) {
		var entries []models.DayEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}), nil
}

// save обновляет копию в памяти и переписывает слот; ошибка записи только логируется
func (r *SlotDayEntryRepository) save(date string, entries []models.DayEntry) {
	r.entries = entries
	if !r.loaded {
		r.touched[date] = struct{}{}
		r.logger.WithField("date", date).Warn("Entries slot was never read, change not persisted")
		return
	}

	swallow(r.logger, "save_entries", func() error {
		if entries == nil {
			entries = []models.DayEntry{}
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		return r.slots.Set(EntriesSlotKey, string(data))
	})
}

// mergeStored добавляет к записям сессии сохраненные записи дат, которых сессия не касалась
func mergeStored(session, stored []models.DayEntry, touched map[string]struct{}) []models.DayEntry {
	result := append([]models.DayEntry{}, session...)
	for _, e := range stored {
		if _, ok := touched[e.Date]; !ok {
			result = append(result, e)
		}
	}
	return result
}

func without(entries []models.DayEntry, date string) []models.DayEntry {
	result := make([]models.DayEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date != date {
			result = append(result, e)
		}
	}
	return result
}
