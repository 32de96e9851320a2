package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mindwellcare/chat-relay/internal/chat"
)

// Connect opens the database and migrates the chat tables. Fatal on
// failure: nothing in either binary works without storage.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gdb.AutoMigrate(&chat.Session{}, &chat.UsageRecord{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
