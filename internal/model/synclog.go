package model

import "time"

// SyncLog mirrors the crm_sync_log table: one row per log line emitted
// during a sync run.
type SyncLog struct {
	UUID     string    `json:"uuid" gorm:"primaryKey;type:varchar(36)"`
	LogTime  time.Time `json:"log_time" gorm:"index"`
	LogLevel string    `json:"log_level" gorm:"type:varchar(20)"`
	Message  string    `json:"message" gorm:"type:text"`
}

// TableName specifies the table name for SyncLog.
func (SyncLog) TableName() string {
	return "crm_sync_log"
}
