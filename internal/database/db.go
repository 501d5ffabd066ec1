package database

import (
	"fmt"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Connect opens the terminal's local database and syncs the schema.
// driver is "mysql" or "sqlite".
func Connect(driver, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is empty; configure the database")
	}

	var dialector gorm.Dialector
	switch driver {
	case "", "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	var (
		db  *gorm.DB
		err error
	)
	// Wait for the DB to be ready
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Warnf("Failed to connect to database. Retrying in 2 seconds... (%d/%d)", i+1, connectAttempts)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, err)
	}
	log.Infof("✅ Connected to %s", dialector.Name())

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("✅ Database Schema Synced!")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Operator{},
		&models.JournalEntry{},
		&models.JournalLine{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
