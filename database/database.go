package database

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/zennieheo/hackathon2024-BE/models"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

var Mysql *gorm.DB

// InitDatabasePool opens the shared MySQL pool and migrates the schema.
func InitDatabasePool(config *structs.EnvironmentModel) (*gorm.DB, error) {
	c := config.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Password, c.Host, c.Port, c.Db)
	if c.Params != "" {
		dsn += "?" + c.Params
	}

	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.DB().SetMaxIdleConns(int(c.MaxIdle))
	db.DB().SetMaxOpenConns(int(c.MaxOpenConn))
	if c.MaxLifeTime != "" {
		lifetime, err := time.ParseDuration(c.MaxLifeTime)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("parse database.max_life_time: %w", err)
		}
		db.DB().SetConnMaxLifetime(lifetime)
	}
	db.LogMode(c.LogEnable == 1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	Mysql = db
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.FoodIntakeEntry{},
		&models.User{},
		&models.APIKey{},
		&models.RevokedToken{},
		&models.IntakeReport{},
		&models.ActivityLog{},
	).Error; err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping reports whether the pool is usable; nil pool counts as healthy (memory mode).
func Ping() error {
	if Mysql == nil {
		return nil
	}
	return Mysql.DB().Ping()
}

func Close() error {
	if Mysql == nil {
		return nil
	}
	return Mysql.Close()
}
