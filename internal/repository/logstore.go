package repository

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

// LogStore persists sync log lines into the crm_sync_log table. It
// implements io.Writer so it can be attached to the standard logger next to
// the webhook sink. Its own write failures go to stderr only, never back
// into the logger, to avoid recursion.
type LogStore struct {
	db *gorm.DB
}

func NewLogStore(dsn string) (*LogStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open log store: %w", err)
	}
	if err := db.AutoMigrate(&model.SyncLog{}); err != nil {
		return nil, fmt.Errorf("migrate crm_sync_log: %w", err)
	}
	return &LogStore{db: db}, nil
}

// NewLogStoreFromDB wraps an existing gorm handle; used by tests.
func NewLogStoreFromDB(db *gorm.DB) *LogStore {
	return &LogStore{db: db}
}

func (s *LogStore) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if line == "" {
		return len(p), nil
	}
	entry := model.SyncLog{
		UUID:     uuid.NewString(),
		LogTime:  time.Now(),
		LogLevel: levelOf(line),
		Message:  line,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		fmt.Fprintf(os.Stderr, "log store insert failed: %v\n", err)
	}
	return len(p), nil
}

// levelOf infers the level from the message prefix the sync loop uses.
// Everything that is not an explicit error or warning counts as INFO.
func levelOf(line string) string {
	// Lines arrive with the stdlib log date/time prefix.
	if i := strings.Index(line, " "); i >= 0 {
		if j := strings.Index(line[i+1:], " "); j >= 0 {
			line = line[i+1+j+1:]
		}
	}
	switch {
	case strings.HasPrefix(line, "ERROR"):
		return "ERROR"
	case strings.HasPrefix(line, "WARN"):
		return "WARNING"
	default:
		return "INFO"
	}
}
