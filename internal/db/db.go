// Package db opens the shared gorm handle.
package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/corpedigital/assistant-api/internal/assistant"
	"github.com/corpedigital/assistant-api/internal/pin"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&pin.Record{}, &assistant.Job{}); err != nil {
		return nil, err
	}
	return gdb, nil
}
