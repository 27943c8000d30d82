package common

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"studynotes/config"
	"studynotes/logger"
)

// ConnectDb opens the main database. DATABASE_URL selects postgres,
// otherwise the sqlite file from SQLITE_DB is used.
func ConnectDb(cfg *config.Config, log *logger.Logger) *gorm.DB {
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Error("error opening postgres db", "error", err)
			return nil
		}
		log.Info("opened postgres db")
		return db
	}

	if cfg.SqliteDB == "" {
		log.Error("SQLITE_DB not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.SqliteDB), &gorm.Config{})
	if err != nil {
		log.Error("error opening sqlite db", "path", cfg.SqliteDB, "error", err)
		return nil
	}
	log.Info("opened sqlite db", "path", cfg.SqliteDB)
	return db
}

// ConnectAnalyticsDb opens the separate usage-analytics database. A nil
// result disables analytics.
func ConnectAnalyticsDb(cfg *config.Config, log *logger.Logger) *gorm.DB {
	if cfg.AnalyticsDB == "" {
		log.Info("ANALYTICS_DB not set - analytics will be disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.AnalyticsDB), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("error opening analytics sqlite db", "path", cfg.AnalyticsDB, "error", err)
		return nil
	}

	log.Info("opened analytics sqlite db", "path", cfg.AnalyticsDB)
	return db
}
