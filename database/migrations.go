package database

import (
	"studynotes/logger"
	"studynotes/models"

	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB, log *logger.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Notebook{},
		&models.Note{},
		&models.CustomPrompt{},
	)

	if err != nil {
		log.Error("migrations failed", "error", err)
		return err
	}

	log.Info("migrations completed")
	return nil
}
