package db

import (
	"fmt"
	"os"
	"path/filepath"

	"reflectionsmatch/config"
	"reflectionsmatch/logger"
	"reflectionsmatch/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect opens the database (sqlite3 by default). Tables are migrated when
// AUTOMIGRATE=1; the migrate command calls Migrate directly.
func Connect(log *logger.Logger) (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		log.Info("connecting to postgresql", "host", conf.DbHost, "db", conf.DbName)
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		dbPath := conf.DbPath
		if dbPath == "" {
			dbPath = "db/database.db"
		}
		log.Info("connecting to sqlite3", "path", dbPath)
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		db, err = gorm.Open("sqlite3", dbPath)
	}

	if err != nil {
		log.Error("database connection failed", "error", err)
		return nil, err
	}

	db.LogMode(conf.Env != "prod")

	if getenv("AUTOMIGRATE", "0") == "1" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Reflection{},
		&models.RefreshToken{},
		&models.PasswordReset{},
	).Error; err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
