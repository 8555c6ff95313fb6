package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"workdays/internal/models"
	"workdays/internal/slot"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type backendFactory func(t *testing.T, slots slot.Store) DayEntryRepository

var backends = map[string]backendFactory{
	"slot": func(t *testing.T, slots slot.Store) DayEntryRepository {
		return NewSlotDayEntryRepository(slots)
	},
	"gorm": func(t *testing.T, slots slot.Store) DayEntryRepository {
		repo, err := NewGormDayEntryRepository(context.Background(), slots, OpenSQLiteEngine)
		require.NoError(t, err)
		return repo
	},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, newRepo func(slots slot.Store) DayEntryRepository)) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, func(slots slot.Store) DayEntryRepository { return factory(t, slots) })
		})
	}
}

func TestSetAndGetEntries(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-04-05", models.DayTypeSick)
		repo.SetDay("2023-04-03", models.DayTypeOffice)

		entries := repo.GetEntriesForMonth(2023, 3)
		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-03", Type: models.DayTypeOffice},
			{Date: "2023-04-05", Type: models.DayTypeSick},
		}, entries)
	})
}

func TestSetDayOverwritesType(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-04-03", models.DayTypeOffice)
		repo.SetDay("2023-04-03", models.DayTypeSick)

		entries := repo.GetEntriesForMonth(2023, 3)
		require.Len(t, entries, 1)
		assert.Equal(t, models.DayTypeSick, entries[0].Type)
	})
}

func TestRemoveDay(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-04-03", models.DayTypeOffice)
		repo.SetDay("2023-04-04", models.DayTypeOther)
		repo.RemoveDay("2023-04-03")

		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-04", Type: models.DayTypeOther},
		}, repo.GetEntriesForMonth(2023, 3))
	})
}

func TestRemoveAbsentDayIsNoop(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-04-03", models.DayTypeOffice)

		assert.NotPanics(t, func() { repo.RemoveDay("2023-04-10") })
		assert.Len(t, repo.GetEntriesForMonth(2023, 3), 1)
	})
}

func TestEmptyMonth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())

		entries := repo.GetEntriesForMonth(2023, 5)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestOnlyRequestedMonth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-03-31", models.DayTypeOffice)
		repo.SetDay("2023-04-01", models.DayTypeOther)
		repo.SetDay("2023-04-30", models.DayTypeSick)
		repo.SetDay("2023-05-01", models.DayTypeAnnualLeave)
		repo.SetDay("2024-04-15", models.DayTypeOffice)

		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-01", Type: models.DayTypeOther},
			{Date: "2023-04-30", Type: models.DayTypeSick},
		}, repo.GetEntriesForMonth(2023, 3))

		assert.Equal(t, []models.DayEntry{
			{Date: "2023-05-01", Type: models.DayTypeAnnualLeave},
		}, repo.GetEntriesForMonth(2023, 4))
	})
}

func TestDecemberAndJanuary(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-12-29", models.DayTypeOffice)
		repo.SetDay("2024-01-02", models.DayTypeOffice)

		assert.Equal(t, []models.DayEntry{{Date: "2023-12-29", Type: models.DayTypeOffice}}, repo.GetEntriesForMonth(2023, 11))
		assert.Equal(t, []models.DayEntry{{Date: "2024-01-02", Type: models.DayTypeOffice}}, repo.GetEntriesForMonth(2024, 0))
	})
}

func TestSupportsAllDayTypes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-04-03", models.DayTypeOffice)
		repo.SetDay("2023-04-04", models.DayTypeSick)
		repo.SetDay("2023-04-05", models.DayTypeAnnualLeave)
		repo.SetDay("2023-04-06", models.DayTypeOther)

		var types []models.DayType
		for _, e := range repo.GetEntriesForMonth(2023, 3) {
			types = append(types, e.Type)
		}
		assert.Equal(t, models.DayTypes, types)
	})
}

func TestInvalidEntriesIgnored(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2023-4-3", models.DayTypeOffice)
		repo.SetDay("2023-04-03", "remote")

		assert.Empty(t, repo.GetEntriesForMonth(2023, 3))
	})
}

func TestPersistsAcrossInstances(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		slots := slot.NewMemoryStore()

		first := newRepo(slots)
		first.SetDay("2023-04-03", models.DayTypeOther)
		first.SetDay("2023-04-04", models.DayTypeOffice)
		first.RemoveDay("2023-04-04")

		second := newRepo(slots)
		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-03", Type: models.DayTypeOther},
		}, second.GetEntriesForMonth(2023, 3))
	})
}

func TestQuotaExceededDoesNotBreakSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		slots := slot.NewMemoryStore()
		slots.QuotaBytes = 10

		repo := newRepo(slots)
		assert.NotPanics(t, func() {
			repo.SetDay("2023-04-03", models.DayTypeOffice)
			repo.RemoveDay("2023-04-04")
		})

		for _, key := range []string{SnapshotSlotKey, EntriesSlotKey} {
			_, ok, err := slots.Get(key)
			require.NoError(t, err)
			assert.False(t, ok, key)
		}

		// следующая сессия не видит незаписанных изменений
		slots.QuotaBytes = 0
		assert.Empty(t, newRepo(slots).GetEntriesForMonth(2023, 3))
	})
}

func TestSessionStateSurvivesQuota(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		slots := slot.NewMemoryStore()
		slots.QuotaBytes = 10

		repo := newRepo(slots)
		repo.SetDay("2023-04-03", models.DayTypeOffice)
		repo.SetDay("2023-04-04", models.DayTypeSick)
		repo.RemoveDay("2023-04-04")

		assert.Equal(t, []models.DayEntry{{Date: "2023-04-03", Type: models.DayTypeOffice}}, repo.GetEntriesForMonth(2023, 3))
	})
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		snapshot string
	}{
		{"not base64", "%%% not base64 %%%"},
		{"not a database", base64.StdEncoding.EncodeToString([]byte("definitely not an sqlite file"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := slot.NewMemoryStore()
			require.NoError(t, slots.Set(SnapshotSlotKey, tt.snapshot))

			repo, err := NewGormDayEntryRepository(context.Background(), slots, OpenSQLiteEngine)
			require.NoError(t, err)
			assert.Empty(t, repo.GetEntriesForMonth(2023, 3))

			repo.SetDay("2023-04-03", models.DayTypeOffice)
			assert.Len(t, repo.GetEntriesForMonth(2023, 3), 1)
		})
	}
}

func TestCorruptEntriesStartEmpty(t *testing.T) {
	slots := slot.NewMemoryStore()
	require.NoError(t, slots.Set(EntriesSlotKey, "{not json"))

	repo := NewSlotDayEntryRepository(slots)
	assert.Empty(t, repo.GetEntriesForMonth(2023, 3))

	repo.SetDay("2023-04-03", models.DayTypeOffice)
	raw, _, err := slots.Get(EntriesSlotKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2023-04-03","type":"office"}]`, raw)
}

func TestBackendsUseSeparateSlots(t *testing.T) {
	slots := slot.NewMemoryStore()

	NewSlotDayEntryRepository(slots).SetDay("2023-04-03", models.DayTypeOffice)

	repo, err := NewGormDayEntryRepository(context.Background(), slots, OpenSQLiteEngine)
	require.NoError(t, err)
	assert.Empty(t, repo.GetEntriesForMonth(2023, 3))
}

func TestInitStorageSelectsRelational(t *testing.T) {
	repo := InitStorage(context.Background(), slot.NewMemoryStore(), EngineSQLite, nil)
	assert.IsType(t, &GormDayEntryRepository{}, repo)
}

func TestInitStorageFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		engine string
		open   EngineOpener
	}{
		{
			name:   "engine error",
			engine: EngineSQLite,
			open: func(ctx context.Context, snapshot []byte) (*gorm.DB, error) {
				return nil, errors.New("engine unavailable")
			},
		},
		{
			name:   "engine panic",
			engine: EngineSQLite,
			open: func(ctx context.Context, snapshot []byte) (*gorm.DB, error) {
				panic("missing export")
			},
		},
		{
			name:   "disabled by config",
			engine: EngineFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := slot.NewMemoryStore()
			repo := InitStorage(context.Background(), slots, tt.engine, tt.open)
			require.IsType(t, &SlotDayEntryRepository{}, repo)

			repo.SetDay("2023-04-03", models.DayTypeOffice)
			assert.Len(t, repo.GetEntriesForMonth(2023, 3), 1)
		})
	}
}

func TestInitStorageRestoresSnapshot(t *testing.T) {
	slots := slot.NewMemoryStore()

	first := InitStorage(context.Background(), slots, EngineSQLite, nil)
	first.SetDay("2023-04-03", models.DayTypeAnnualLeave)

	second := InitStorage(context.Background(), slots, EngineSQLite, nil)
	assert.Equal(t, []models.DayEntry{
		{Date: "2023-04-03", Type: models.DayTypeAnnualLeave},
	}, second.GetEntriesForMonth(2023, 3))
}

// unreadableStore отказывает в чтении, пока readErr не сброшен
type unreadableStore struct {
	slot.Store
	readErr error
}

func (s *unreadableStore) Get(key string) (string, bool, error) {
	if s.readErr != nil {
		return "", false, s.readErr
	}
	return s.Store.Get(key)
}

func TestUnreadableSlotIsNotOverwritten(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		slots := slot.NewMemoryStore()
		first := newRepo(slots)
		first.SetDay("2023-04-03", models.DayTypeOffice)
		first.SetDay("2023-04-04", models.DayTypeSick)

		flaky := &unreadableStore{Store: slots, readErr: errors.New("connection refused")}
		repo := newRepo(flaky)
		repo.SetDay("2023-04-05", models.DayTypeSick)
		repo.RemoveDay("2023-04-03")

		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-03", Type: models.DayTypeOffice},
			{Date: "2023-04-04", Type: models.DayTypeSick},
		}, newRepo(slots).GetEntriesForMonth(2023, 3))

		// после восстановления слота сохраненная история сливается с изменениями сессии
		flaky.readErr = nil
		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-04", Type: models.DayTypeSick},
			{Date: "2023-04-05", Type: models.DayTypeSick},
		}, repo.GetEntriesForMonth(2023, 3))

		repo.SetDay("2023-04-06", models.DayTypeOffice)
		assert.Equal(t, []models.DayEntry{
			{Date: "2023-04-04", Type: models.DayTypeSick},
			{Date: "2023-04-05", Type: models.DayTypeSick},
			{Date: "2023-04-06", Type: models.DayTypeOffice},
		}, newRepo(slots).GetEntriesForMonth(2023, 3))
	})
}

func TestInitStorageSurvivesRedisOutage(t *testing.T) {
	for _, engine := range []string{EngineSQLite, EngineFallback} {
		t.Run(engine, func(t *testing.T) {
			ctx := context.Background()
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			slots := slot.NewRedisStore(client, "workdays:")

			first := InitStorage(ctx, slots, engine, nil)
			first.SetDay("2023-04-03", models.DayTypeOffice)
			first.SetDay("2023-04-04", models.DayTypeOther)

			mr.Close()
			repo := InitStorage(ctx, slots, engine, nil)
			require.NoError(t, mr.Restart())

			repo.SetDay("2023-04-05", models.DayTypeSick)

			assert.Equal(t, []models.DayEntry{
				{Date: "2023-04-03", Type: models.DayTypeOffice},
				{Date: "2023-04-04", Type: models.DayTypeOther},
				{Date: "2023-04-05", Type: models.DayTypeSick},
			}, InitStorage(ctx, slots, engine, nil).GetEntriesForMonth(2023, 3))
		})
	}
}

func TestMonthOutOfRange(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newRepo func(slot.Store) DayEntryRepository) {
		repo := newRepo(slot.NewMemoryStore())
		repo.SetDay("2024-01-02", models.DayTypeOffice)
		repo.SetDay("2022-12-30", models.DayTypeSick)

		assert.Equal(t, []models.DayEntry{}, repo.GetEntriesForMonth(2023, 12))
		assert.Equal(t, []models.DayEntry{}, repo.GetEntriesForMonth(2023, -1))
		assert.Len(t, repo.GetEntriesForMonth(2024, 0), 1)
	})
}
