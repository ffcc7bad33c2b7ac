package database

import (
	"fmt"

	"github.com/CUknot/tasksphere_backend/config"
	"github.com/CUknot/tasksphere_backend/logger"
	"github.com/CUknot/tasksphere_backend/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect establishes a connection to the database
func Connect(cfg config.Database, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.Name))
	return db, nil
}

// Migrate automatically migrates the database schema
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Group{}, "Members", &models.GroupMember{}); err != nil {
		return fmt.Errorf("setup group members join table: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Group{}, &models.GroupMember{}, &models.Message{}, &models.FileRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
