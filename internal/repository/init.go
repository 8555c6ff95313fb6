package repository

import (
	"context"

	"workdays/internal/slot"
)

const (
	EngineSQLite   = "sqlite"
	EngineFallback = "fallback"
)

// InitStorage выбирает хранилище один раз за сессию: реляционное, если движок
// удалось поднять, иначе запасное на слоте. Вызывающий видит только интерфейс.
// open == nil означает OpenSQLiteEngine.
func InitStorage(ctx context.Context, slots slot.Store, engine string, open EngineOpener) DayEntryRepository {
	logger := newLogger("storage_init")

	if engine == EngineFallback {
		logger.Info("Relational engine disabled by config, using slot storage")
		return NewSlotDayEntryRepository(slots)
	}

	if open == nil {
		open = OpenSQLiteEngine
	}

	repo := orDefault(logger, "init_relational", (*GormDayEntryRepository)(nil), func() (*GormDayEntryRepository, error) {
		return NewGormDayEntryRepository(ctx, slots, open)
	})
	if repo == nil {
		logger.Warn("Relational engine unavailable, falling back to slot storage")
		return NewSlotDayEntryRepository(slots)
	}

	return repo
}
