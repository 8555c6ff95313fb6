package repository

import (
	"context"
	"database/sql"
	"fmt"

	"workdays/internal/models"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EngineOpener открывает реляционный движок; snapshot == nil означает пустую базу.
// Ошибка открытия переводит InitStorage на запасное хранилище.
type EngineOpener func(ctx context.Context, snapshot []byte) (*gorm.DB, error)

// OpenSQLiteEngine открывает SQLite в памяти и, если передан снимок,
// восстанавливает из него содержимое базы. Схема создается идемпотентно.
func OpenSQLiteEngine(ctx context.Context, snapshot []byte) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	// База в памяти живет, пока жива ее единственная connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if len(snapshot) > 0 {
		if err := restoreSQLite(ctx, db, snapshot); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.DayEntry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate day_entries: %w", err)
	}

	return db, nil
}

// restoreSQLite разворачивает снимок во временной базе и копирует его в db через
// backup API. Базу после Deserialize нельзя расширять, поэтому в нее не пишем.
func restoreSQLite(ctx context.Context, db *gorm.DB, snapshot []byte) error {
	scratch, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer scratch.Close()

	srcConn, err := scratch.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	return srcConn.Raw(func(driverConn any) error {
		src, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		if err := src.Deserialize(snapshot, "main"); err != nil {
			return err
		}

		return withSQLiteConn(ctx, db, func(dst *sqlite3.SQLiteConn) error {
			backup, err := dst.Backup("main", src, "main")
			if err != nil {
				return err
			}
			if _, err := backup.Step(-1); err != nil {
				backup.Finish()
				return err
			}
			return backup.Finish()
		})
	})
}

// exportSQLite сериализует всю базу в байты формата файла SQLite
func exportSQLite(ctx context.Context, db *gorm.DB) ([]byte, error) {
	var data []byte
	err := withSQLiteConn(ctx, db, func(c *sqlite3.SQLiteConn) error {
		var err error
		data, err = c.Serialize("main")
		return err
	})
	return data, err
}

func withSQLiteConn(ctx context.Context, db *gorm.DB, fn func(c *sqlite3.SQLiteConn) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		return fn(c)
	})
}
