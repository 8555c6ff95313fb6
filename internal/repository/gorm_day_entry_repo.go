package repository

import (
	"context"
	"encoding/base64"
	"sync"

	"workdays/internal/calendar"
	"workdays/internal/models"
	"workdays/internal/slot"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDayEntryRepository реляционное хранилище. После каждого изменения
// база целиком сериализуется и пишется в слот SnapshotSlotKey.
// Если слот не удалось прочитать при старте, снимок не пишется, пока чтение
// не удастся и сохраненные записи не будут слиты с изменениями сессии.
type GormDayEntryRepository struct {
	db      *gorm.DB
	slots   slot.Store
	open    EngineOpener
	mu      sync.Mutex
	synced  bool
	touched map[string]struct{} // даты, измененные до успешного чтения слота
	logger  *logrus.Entry
}

// NewGormDayEntryRepository поднимает движок через open, восстанавливая
// сохраненный снимок. Непригодный снимок отбрасывается, и база стартует пустой.
func NewGormDayEntryRepository(ctx context.Context, slots slot.Store, open EngineOpener) (*GormDayEntryRepository, error) {
	logger := newLogger("gorm_day_entry_repo")

	snapshot, readErr := loadSnapshot(logger, slots)
	if readErr != nil {
		logger.WithError(readErr).Warn("Failed to read snapshot slot, changes stay in memory until it is readable")
	}

	db, err := open(ctx, snapshot)
	if err != nil && snapshot != nil {
		logger.WithError(err).Warn("Saved snapshot is unusable, starting with empty database")
		db, err = open(ctx, nil)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to open relational engine")
		return nil, err
	}

	logger.WithField("restored", snapshot != nil).Info("Day entry repository initialized")

	return &GormDayEntryRepository{
		db:      db,
		slots:   slots,
		open:    open,
		synced:  readErr == nil,
		touched: map[string]struct{}{},
		logger:  logger,
	}, nil
}

func (r *GormDayEntryRepository) SetDay(date string, dayType models.DayType) {
	entry := models.DayEntry{Date: date, Type: dayType}
	if !validEntry(r.logger, entry) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	swallow(r.logger, "set_day", func() error {
		return r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"type"}),
		}).Create(&entry).Error
	})
	r.persist(date)

	r.logger.WithFields(logrus.Fields{
		"date": date,
		"type": dayType,
	}).Debug("Day entry set")
}

func (r *GormDayEntryRepository) RemoveDay(date string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	swallow(r.logger, "remove_day", func() error {
		return r.db.Where("date = ?", date).Delete(&models.DayEntry{}).Error
	})
	r.persist(date)

	r.logger.WithField("date", date).Debug("Day entry removed")
}

func (r *GormDayEntryRepository) GetEntriesForMonth(year, month int) []models.DayEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resync()

	if !calendar.ValidMonth(month) {
		return []models.DayEntry{}
	}
	prefix := calendar.MonthPrefix(year, month)
	start := prefix + "-01"
	end := prefix + "-31"

	entries := orDefault(r.logger, "get_entries_for_month", []models.DayEntry(nil), func() ([]models.DayEntry, error) {
		var entries []models.DayEntry
		err := r.db.Where("date >= ? AND date <= ?", start, end).
			Order("date ASC").
			Find(&entries).Error
		return entries, err
	})
	if entries == nil {
		return []models.DayEntry{}
	}
	return entries
}

// persist пишет снимок базы в слот; ошибка записи (например, превышение квоты)
// только логируется, состояние в памяти остается верным до конца сессии
func (r *GormDayEntryRepository) persist(date string) {
	if !r.resync() {
		r.touched[date] = struct{}{}
		r.logger.WithField("date", date).Warn("Snapshot slot was never read, change not persisted")
		return
	}

	swallow(r.logger, "persist_snapshot", func() error {
		data, err := exportSQLite(context.Background(), r.db)
		if err != nil {
			return err
		}
		return r.slots.Set(SnapshotSlotKey, base64.StdEncoding.EncodeToString(data))
	})
}

// resync дочитывает слот, если при старте он был недоступен, и добавляет
// сохраненные записи дат, которых сессия не касалась. Возвращает true,
// если слот прочитан и снимок можно перезаписывать.
func (r *GormDayEntryRepository) resync() bool {
	if r.synced {
		return true
	}

	snapshot, err := loadSnapshot(r.logger, r.slots)
	if err != nil {
		r.logger.WithError(err).Warn("Snapshot slot is still unreadable")
		return false
	}

	stored := r.storedEntries(snapshot)
	swallow(r.logger, "merge_snapshot", func() error {
		for _, e := range stored {
			if _, ok := r.touched[e.Date]; ok {
				continue
			}
			entry := e
			if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})

	r.logger.WithField("merged", len(stored)).Info("Snapshot slot read after startup failure")
	r.synced = true
	r.touched = map[string]struct{}{}
	return true
}

// storedEntries поднимает снимок во временной базе и возвращает все его записи.
// Непригодный снимок дает пустой список, как и при старте.
func (r *GormDayEntryRepository) storedEntries(snapshot []byte) []models.DayEntry {
	if snapshot == nil {
		return nil
	}

	return orDefault(r.logger, "read_snapshot", []models.DayEntry(nil), func() ([]models.DayEntry, error) {
		db, err := r.open(context.Background(), snapshot)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		var entries []models.DayEntry
		err = db.Order("date ASC").Find(&entries).Error
		return entries, err
	})
}

// loadSnapshot возвращает декодированный снимок. Ошибка означает, что слот
// прочитать не удалось; отсутствующий или поврежденный снимок дает nil без ошибки.
func loadSnapshot(logger *logrus.Entry, slots slot.Store) ([]byte, error) {
	encoded, err := attempt(func() (string, error) {
		encoded, _, err := slots.Get(SnapshotSlotKey)
		return encoded, err
	})
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, nil
	}

	return orDefault(logger, "decode_snapshot", []byte(nil), func() ([]byte, error) {
		return base64.StdEncoding.DecodeString(encoded)
	}), nil
}
