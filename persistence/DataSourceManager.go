package persistence

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
)

var ActiveDataSourceManager *DataSourceManager

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

// ParseDatabaseConfigFromEnv DATABASE_URL  mysql://root:root@(127.0.0.1:3306)/gesdoc?charset=utf8mb4&parseTime=True&loc=Local
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	idx := strings.Index(databaseURL, "://")
	if idx <= 0 || idx == len(databaseURL)-3 {
		return nil, errors.New("invalid DATABASE_URL: " + databaseURL)
	}
	return &DatabaseConfig{DriverType: databaseURL[0:idx], DriverArgs: databaseURL[idx+3:]}, nil
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	otgorm.AddGormCallbacks(db)
	m.gormDB = db
	if os.Getenv("GIN_MODE") != "release" {
		m.gormDB.LogMode(true)
	}
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m.gormDB != nil {
		return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
	}
	return nil
}

// PrepareMysqlDatabase create the database of driverArgs when absent
func PrepareMysqlDatabase(driverArgs string) error {
	slashIdx := strings.Index(driverArgs, "/")
	if slashIdx <= 0 || slashIdx == len(driverArgs)-1 {
		return errors.New("invalid mysql driver args")
	}
	databaseName := driverArgs[slashIdx+1:]
	if paramIdx := strings.Index(databaseName, "?"); paramIdx >= 0 {
		databaseName = databaseName[0:paramIdx]
	}
	if databaseName == "" {
		return errors.New("database name is not detected in driver args")
	}

	db, err := sql.Open("mysql", driverArgs[0:slashIdx+1])
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS " + databaseName + " CHARACTER SET utf8mb4")
	return err
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(config.DriverType, config.DriverArgs)
	if err != nil {
		return nil, err
	}
	err = db.DB().Ping()
	if err != nil {
		return nil, err
	}
	return db, nil
}
