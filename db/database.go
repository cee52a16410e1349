package db

import (
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the catalog database. It is constructed once by the process
// entry point and handed to everything that needs it.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite catalog at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      false,
			Colorful:                  true,
		},
	)

	gdb, err := gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(&Asset{}, &Tag{}); err != nil {
		return nil, err
	}

	return &Store{db: gdb}, nil
}
